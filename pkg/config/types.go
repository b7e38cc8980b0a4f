package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent dossier configuration stored as
// config.toml in the .dossier/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	API     APIConfig     `toml:"api"`
	Recency RecencyConfig `toml:"recency"`
	Graph   GraphConfig   `toml:"graph"`
	Queue   QueueConfig   `toml:"queue"`
	Oracle  OracleConfig  `toml:"oracle"`
	Chat    ChatConfig    `toml:"chat"`
	Events  EventsConfig  `toml:"events"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// RecencyConfig selects and configures the recency buffer backend.
type RecencyConfig struct {
	Provider  string `toml:"provider,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
	RedisDB   int    `toml:"redis_db,omitempty"`
}

// GraphConfig selects and configures the knowledge graph backend.
type GraphConfig struct {
	Provider      string `toml:"provider,omitempty"`
	SQLitePath    string `toml:"sqlite_path,omitempty"`
	PostgresDSN   string `toml:"postgres_dsn,omitempty"`
	Neo4jURI      string `toml:"neo4j_uri,omitempty"`
	Neo4jUser     string `toml:"neo4j_user,omitempty"`
	Neo4jPassword string `toml:"neo4j_password,omitempty"`
}

// QueueConfig selects and configures the extraction task queue.
type QueueConfig struct {
	Provider  string `toml:"provider,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
	RedisDB   int    `toml:"redis_db,omitempty"`
	Workers   uint   `toml:"workers,omitempty"`
	Capacity  uint   `toml:"capacity,omitempty"`
}

// OracleConfig holds the language model settings shared by the reply and
// extraction paths. API keys come from the environment, never the file.
type OracleConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
}

// ChatConfig holds hot-path conversation settings.
type ChatConfig struct {
	SystemPrompt string `toml:"system_prompt,omitempty"`
}

// EventsConfig selects and configures the lifecycle event publisher.
// Brokers is a comma-separated list of Kafka bootstrap addresses.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"recency.provider": {
		get: func(c *Config) string { return c.Recency.Provider },
		set: func(c *Config, v string) error { c.Recency.Provider = v; return nil },
	},
	"recency.redis_addr": {
		get: func(c *Config) string { return c.Recency.RedisAddr },
		set: func(c *Config, v string) error { c.Recency.RedisAddr = v; return nil },
	},
	"recency.redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.Recency.RedisDB) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for recency.redis_db: %w", err)
			}
			c.Recency.RedisDB = n
			return nil
		},
	},
	"graph.provider": {
		get: func(c *Config) string { return c.Graph.Provider },
		set: func(c *Config, v string) error { c.Graph.Provider = v; return nil },
	},
	"graph.sqlite_path": {
		get: func(c *Config) string { return c.Graph.SQLitePath },
		set: func(c *Config, v string) error { c.Graph.SQLitePath = v; return nil },
	},
	"graph.postgres_dsn": {
		get: func(c *Config) string { return c.Graph.PostgresDSN },
		set: func(c *Config, v string) error { c.Graph.PostgresDSN = v; return nil },
	},
	"graph.neo4j_uri": {
		get: func(c *Config) string { return c.Graph.Neo4jURI },
		set: func(c *Config, v string) error { c.Graph.Neo4jURI = v; return nil },
	},
	"graph.neo4j_user": {
		get: func(c *Config) string { return c.Graph.Neo4jUser },
		set: func(c *Config, v string) error { c.Graph.Neo4jUser = v; return nil },
	},
	"graph.neo4j_password": {
		get: func(c *Config) string { return c.Graph.Neo4jPassword },
		set: func(c *Config, v string) error { c.Graph.Neo4jPassword = v; return nil },
	},
	"queue.provider": {
		get: func(c *Config) string { return c.Queue.Provider },
		set: func(c *Config, v string) error { c.Queue.Provider = v; return nil },
	},
	"queue.redis_addr": {
		get: func(c *Config) string { return c.Queue.RedisAddr },
		set: func(c *Config, v string) error { c.Queue.RedisAddr = v; return nil },
	},
	"queue.redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.Queue.RedisDB) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for queue.redis_db: %w", err)
			}
			c.Queue.RedisDB = n
			return nil
		},
	},
	"queue.workers": {
		get: func(c *Config) string {
			if c.Queue.Workers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Queue.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for queue.workers: %w", err)
			}
			c.Queue.Workers = uint(n)
			return nil
		},
	},
	"queue.capacity": {
		get: func(c *Config) string {
			if c.Queue.Capacity == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Queue.Capacity), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for queue.capacity: %w", err)
			}
			c.Queue.Capacity = uint(n)
			return nil
		},
	},
	"oracle.provider": {
		get: func(c *Config) string { return c.Oracle.Provider },
		set: func(c *Config, v string) error { c.Oracle.Provider = v; return nil },
	},
	"oracle.model": {
		get: func(c *Config) string { return c.Oracle.Model },
		set: func(c *Config, v string) error { c.Oracle.Model = v; return nil },
	},
	"oracle.base_url": {
		get: func(c *Config) string { return c.Oracle.BaseURL },
		set: func(c *Config, v string) error { c.Oracle.BaseURL = v; return nil },
	},
	"chat.system_prompt": {
		get: func(c *Config) string { return c.Chat.SystemPrompt },
		set: func(c *Config, v string) error { c.Chat.SystemPrompt = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
