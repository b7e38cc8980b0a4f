package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --listen
// on both "dossier serve" and "dossier serve api").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag structs that hold
// their name, shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "listen"
	FlagRecencyProvider = "recency-provider"
	FlagRedisAddr       = "redis-addr"
	FlagGraphProvider   = "graph-provider"
	FlagSQLite          = "sqlite"
	FlagPostgresDSN     = "postgres-dsn"
	FlagNeo4jURI        = "neo4j-uri"
	FlagQueueProvider   = "queue-provider"
	FlagWorkers         = "workers"
	FlagOracleProvider  = "oracle-provider"
	FlagOracleModel     = "oracle-model"
	FlagOracleTarget    = "oracle-target"
	FlagEventsProvider  = "events-provider"
	FlagKafkaBrokers    = "kafka-brokers"
	FlagKafkaTopic      = "kafka-topic"
)

// DefaultFlagSet returns the flag registry shared by the serve and work
// commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagAPIListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "api.listen",
			Description: "address for the HTTP API to listen on",
		},
		FlagRecencyProvider: {
			Name:        "recency-provider",
			ViperKey:    "recency.provider",
			Description: "recency buffer backend (memory, redis)",
		},
		FlagRedisAddr: {
			Name:        "redis-addr",
			ViperKey:    "recency.redis_addr",
			Description: "redis address for the recency buffer",
		},
		FlagGraphProvider: {
			Name:        "graph-provider",
			ViperKey:    "graph.provider",
			Description: "knowledge graph backend (memory, sqlite, postgres, neo4j)",
		},
		FlagSQLite: {
			Name:        "sqlite",
			ViperKey:    "graph.sqlite_path",
			Description: "path to the sqlite graph database",
		},
		FlagPostgresDSN: {
			Name:        "postgres-dsn",
			ViperKey:    "graph.postgres_dsn",
			Description: "postgres connection string for the graph",
		},
		FlagNeo4jURI: {
			Name:        "neo4j-uri",
			ViperKey:    "graph.neo4j_uri",
			Description: "neo4j bolt uri for the graph",
		},
		FlagQueueProvider: {
			Name:        "queue-provider",
			ViperKey:    "queue.provider",
			Description: "extraction queue backend (memory, redis)",
		},
		FlagWorkers: {
			Name:        "workers",
			Shorthand:   "w",
			ViperKey:    "queue.workers",
			Description: "number of extraction workers",
		},
		FlagOracleProvider: {
			Name:        "oracle-provider",
			ViperKey:    "oracle.provider",
			Description: "language model provider (openai, anthropic, ollama)",
		},
		FlagOracleModel: {
			Name:        "oracle-model",
			ViperKey:    "oracle.model",
			Description: "language model name",
		},
		FlagOracleTarget: {
			Name:        "oracle-target",
			ViperKey:    "oracle.base_url",
			Description: "base URL for the language model API",
		},
		FlagEventsProvider: {
			Name:        "events-provider",
			ViperKey:    "events.provider",
			Description: "lifecycle event publisher (nop, kafka)",
		},
		FlagKafkaBrokers: {
			Name:        "kafka-brokers",
			ViperKey:    "events.brokers",
			Description: "comma-separated kafka bootstrap addresses",
		},
		FlagKafkaTopic: {
			Name:        "kafka-topic",
			ViperKey:    "events.topic",
			Description: "kafka topic for lifecycle events",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
