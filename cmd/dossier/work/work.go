// Package workcmder provides the work command for running only the
// extraction workers.
package workcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quietgrove/dossier/cmd/dossier/wiring"
	"github.com/quietgrove/dossier/pkg/config"
	"github.com/quietgrove/dossier/pkg/logger"
)

type WorkCommander struct {
	redisAddr      string
	graphProvider  string
	sqlitePath     string
	postgresDSN    string
	neo4jURI       string
	queueProvider  string
	workers        uint
	oracleProvider string
	oracleModel    string
	oracleTarget   string
	eventsProvider string
	kafkaBrokers   string
	kafkaTopic     string
	debug          bool

	viper  *viper.Viper
	target string
	logger *slog.Logger
}

const workLongDesc string = `Run just the extraction workers.

Workers drain queued chat messages, classify them with the language model,
validate the observations, and persist them to the knowledge graph. Pair
with "dossier serve api" and the redis queue provider to scale workers
separately from the API.`

const workShortDesc string = "Run the extraction workers"

var workFlags = []string{
	config.FlagRedisAddr,
	config.FlagGraphProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagNeo4jURI,
	config.FlagQueueProvider,
	config.FlagWorkers,
	config.FlagOracleProvider,
	config.FlagOracleModel,
	config.FlagOracleTarget,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewWorkCmd() *cobra.Command {
	cmder := &WorkCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "work",
		Short: workShortDesc,
		Long:  workLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd, fs)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagRedisAddr, &cmder.redisAddr)
	config.AddStringFlag(cmd, fs, config.FlagGraphProvider, &cmder.graphProvider)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagNeo4jURI, &cmder.neo4jURI)
	config.AddStringFlag(cmd, fs, config.FlagQueueProvider, &cmder.queueProvider)
	config.AddUintFlag(cmd, fs, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, fs, config.FlagOracleProvider, &cmder.oracleProvider)
	config.AddStringFlag(cmd, fs, config.FlagOracleModel, &cmder.oracleModel)
	config.AddStringFlag(cmd, fs, config.FlagOracleTarget, &cmder.oracleTarget)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, fs, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, fs, config.FlagKafkaTopic, &cmder.kafkaTopic)

	return cmd
}

func (c *WorkCommander) setup(cmd *cobra.Command, fs config.FlagSet) error {
	var err error
	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %v", err)
	}

	configDir, err := cmd.Flags().GetString("config-dir")
	if err != nil {
		return fmt.Errorf("could not get config-dir flag: %v", err)
	}

	configer, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("could not resolve config directory: %w", err)
	}
	if path := configer.GetTarget(); path != "" {
		c.target = filepath.Dir(path)
	}

	c.viper, err = config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("could not initialize config: %w", err)
	}
	config.BindRegisteredFlags(c.viper, cmd, fs, workFlags)

	return nil
}

func (c *WorkCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))
	cfg := config.FromViper(c.viper)

	if cfg.Queue.Provider == wiring.ProviderMemory || cfg.Queue.Provider == "" {
		return fmt.Errorf("standalone workers need a shared queue, set queue.provider to %q", wiring.ProviderRedis)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := wiring.NewGraphDriver(ctx, cfg, c.target)
	if err != nil {
		return err
	}
	defer driver.Close()

	queue, err := wiring.NewQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	events, err := wiring.NewPublisher(cfg)
	if err != nil {
		return err
	}
	defer events.Close()

	_, classify, err := wiring.NewOracles(cfg)
	if err != nil {
		return err
	}

	dispatcher := wiring.NewDispatcher(queue, driver, events, classify, cfg, c.logger)

	c.logger.Info("starting workers",
		"queue", cfg.Queue.Provider,
		"graph", cfg.Graph.Provider,
		"workers", cfg.Queue.Workers,
	)

	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
		return nil
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		<-done
		return nil
	}
}
