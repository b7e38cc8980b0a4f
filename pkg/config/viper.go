package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quietgrove/dossier/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the DOSSIER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DOSSIER_API_LISTEN, DOSSIER_GRAPH_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: DOSSIER_API_LISTEN, DOSSIER_QUEUE_WORKERS, etc.
	v.SetEnvPrefix("DOSSIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from a viper instance, applying the full
// precedence chain (flag > env > file > default) key by key.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Recency: RecencyConfig{
			Provider:  v.GetString("recency.provider"),
			RedisAddr: v.GetString("recency.redis_addr"),
			RedisDB:   v.GetInt("recency.redis_db"),
		},
		Graph: GraphConfig{
			Provider:      v.GetString("graph.provider"),
			SQLitePath:    v.GetString("graph.sqlite_path"),
			PostgresDSN:   v.GetString("graph.postgres_dsn"),
			Neo4jURI:      v.GetString("graph.neo4j_uri"),
			Neo4jUser:     v.GetString("graph.neo4j_user"),
			Neo4jPassword: v.GetString("graph.neo4j_password"),
		},
		Queue: QueueConfig{
			Provider:  v.GetString("queue.provider"),
			RedisAddr: v.GetString("queue.redis_addr"),
			RedisDB:   v.GetInt("queue.redis_db"),
			Workers:   v.GetUint("queue.workers"),
			Capacity:  v.GetUint("queue.capacity"),
		},
		Oracle: OracleConfig{
			Provider: v.GetString("oracle.provider"),
			Model:    v.GetString("oracle.model"),
			BaseURL:  v.GetString("oracle.base_url"),
		},
		Chat: ChatConfig{
			SystemPrompt: v.GetString("chat.system_prompt"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Recency buffer
	v.SetDefault("recency.provider", d.Recency.Provider)
	v.SetDefault("recency.redis_addr", d.Recency.RedisAddr)
	v.SetDefault("recency.redis_db", d.Recency.RedisDB)

	// Knowledge graph
	v.SetDefault("graph.provider", d.Graph.Provider)
	v.SetDefault("graph.sqlite_path", d.Graph.SQLitePath)
	v.SetDefault("graph.postgres_dsn", d.Graph.PostgresDSN)
	v.SetDefault("graph.neo4j_uri", d.Graph.Neo4jURI)
	v.SetDefault("graph.neo4j_user", d.Graph.Neo4jUser)
	v.SetDefault("graph.neo4j_password", d.Graph.Neo4jPassword)

	// Task queue
	v.SetDefault("queue.provider", d.Queue.Provider)
	v.SetDefault("queue.redis_addr", d.Queue.RedisAddr)
	v.SetDefault("queue.redis_db", d.Queue.RedisDB)
	v.SetDefault("queue.workers", d.Queue.Workers)
	v.SetDefault("queue.capacity", d.Queue.Capacity)

	// Oracle
	v.SetDefault("oracle.provider", d.Oracle.Provider)
	v.SetDefault("oracle.model", d.Oracle.Model)
	v.SetDefault("oracle.base_url", d.Oracle.BaseURL)

	// Chat
	v.SetDefault("chat.system_prompt", d.Chat.SystemPrompt)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
