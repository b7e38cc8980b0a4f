// Package wiring builds the runtime backends selected by configuration.
// Each constructor maps a provider name from the config to a concrete
// implementation so the serve and work commands share one wiring path.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/quietgrove/dossier/pkg/chat"
	"github.com/quietgrove/dossier/pkg/config"
	"github.com/quietgrove/dossier/pkg/dispatch"
	dispatchmem "github.com/quietgrove/dossier/pkg/dispatch/memory"
	dispatchredis "github.com/quietgrove/dossier/pkg/dispatch/redis"
	"github.com/quietgrove/dossier/pkg/eventstream"
	eventkafka "github.com/quietgrove/dossier/pkg/eventstream/kafka"
	eventnop "github.com/quietgrove/dossier/pkg/eventstream/nop"
	"github.com/quietgrove/dossier/pkg/extract"
	"github.com/quietgrove/dossier/pkg/graph"
	graphmem "github.com/quietgrove/dossier/pkg/graph/inmemory"
	graphneo4j "github.com/quietgrove/dossier/pkg/graph/neo4j"
	graphpostgres "github.com/quietgrove/dossier/pkg/graph/postgres"
	graphsqlite "github.com/quietgrove/dossier/pkg/graph/sqlite"
	"github.com/quietgrove/dossier/pkg/oracle"
	"github.com/quietgrove/dossier/pkg/pipeline"
	"github.com/quietgrove/dossier/pkg/recency"
	recencymem "github.com/quietgrove/dossier/pkg/recency/inmemory"
	recencyredis "github.com/quietgrove/dossier/pkg/recency/redis"
)

const (
	ProviderMemory   = "memory"
	ProviderRedis    = "redis"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderNeo4j    = "neo4j"
	ProviderNop      = "nop"
	ProviderKafka    = "kafka"
)

// sqliteFileName is the graph database file created under the config
// directory when no explicit path is configured.
const sqliteFileName = "dossier.db"

// NewRecencyStore builds the recency buffer backend.
func NewRecencyStore(ctx context.Context, cfg *config.Config) (recency.Store, error) {
	switch cfg.Recency.Provider {
	case ProviderMemory, "":
		return recencymem.NewStore(), nil
	case ProviderRedis:
		store, err := recencyredis.NewStore(ctx, cfg.Recency.RedisAddr, cfg.Recency.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect recency store to redis: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown recency provider %q", cfg.Recency.Provider)
	}
}

// NewGraphDriver builds the knowledge graph backend. configDir anchors the
// default sqlite database path.
func NewGraphDriver(ctx context.Context, cfg *config.Config, configDir string) (graph.Driver, error) {
	switch cfg.Graph.Provider {
	case ProviderMemory:
		return graphmem.NewDriver(), nil
	case ProviderSQLite, "":
		path := cfg.Graph.SQLitePath
		if path == "" {
			path = filepath.Join(configDir, sqliteFileName)
		}
		driver, err := graphsqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite graph at %s: %w", path, err)
		}
		return driver, nil
	case ProviderPostgres:
		driver, err := graphpostgres.NewDriver(ctx, cfg.Graph.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect graph to postgres: %w", err)
		}
		return driver, nil
	case ProviderNeo4j:
		driver, err := graphneo4j.NewDriver(ctx, cfg.Graph.Neo4jURI, cfg.Graph.Neo4jUser, cfg.Graph.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect graph to neo4j: %w", err)
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("unknown graph provider %q", cfg.Graph.Provider)
	}
}

// NewQueue builds the task queue backend.
func NewQueue(ctx context.Context, cfg *config.Config) (dispatch.Queue, error) {
	switch cfg.Queue.Provider {
	case ProviderMemory, "":
		return dispatchmem.NewQueue(int(cfg.Queue.Capacity)), nil
	case ProviderRedis:
		queue, err := dispatchredis.NewQueue(ctx, cfg.Queue.RedisAddr, cfg.Queue.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect queue to redis: %w", err)
		}
		return queue, nil
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Queue.Provider)
	}
}

// NewPublisher builds the event stream backend.
func NewPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case ProviderNop, "":
		return eventnop.NewPublisher(), nil
	case ProviderKafka:
		brokers := cfg.KafkaBrokers()
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka events enabled but no brokers configured")
		}
		return eventkafka.NewPublisher(brokers, cfg.Events.Topic), nil
	default:
		return nil, fmt.Errorf("unknown events provider %q", cfg.Events.Provider)
	}
}

// NewOracles builds the two model callers: the conversational reply caller
// and the JSON-mode classification caller used by extraction.
func NewOracles(cfg *config.Config) (reply oracle.CallFunc, classify oracle.CallFunc, err error) {
	reply, err = oracle.New(oracle.Config{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		BaseURL:  cfg.Oracle.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build reply oracle: %w", err)
	}

	classify, err = oracle.New(oracle.Config{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		BaseURL:  cfg.Oracle.BaseURL,
		JSONMode: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build classification oracle: %w", err)
	}
	return reply, classify, nil
}

// NewDispatcher assembles the extraction pipeline and the worker dispatcher
// that drains the queue into it.
func NewDispatcher(queue dispatch.Queue, driver graph.Driver, events eventstream.Publisher, classify oracle.CallFunc, cfg *config.Config, logger *slog.Logger) *dispatch.Dispatcher {
	extractor := extract.NewExtractor(classify, logger)
	processor := pipeline.NewProcessor(extractor, driver, events, logger)

	opts := []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithDeadLetterHook(processor.DeadLetter()),
	}
	if cfg.Queue.Workers > 0 {
		opts = append(opts, dispatch.WithWorkers(int(cfg.Queue.Workers)))
	}
	return dispatch.NewDispatcher(queue, processor.Process, opts...)
}

// NewChatService assembles the conversational front end.
func NewChatService(store recency.Store, queue dispatch.Queue, reply oracle.CallFunc, cfg *config.Config, logger *slog.Logger) *chat.Service {
	var opts []chat.Option
	if cfg.Chat.SystemPrompt != "" {
		opts = append(opts, chat.WithSystemPrompt(cfg.Chat.SystemPrompt))
	}
	return chat.NewService(store, queue, reply, logger, opts...)
}
