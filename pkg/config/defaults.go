package config

const (
	defaultAPIListen = ":8080"

	defaultRecencyProvider = "memory"
	defaultRedisAddr       = "localhost:6379"

	defaultGraphProvider = "sqlite"

	defaultQueueProvider = "memory"
	defaultQueueWorkers  = 4
	defaultQueueCapacity = 256

	defaultOracleProvider = "ollama"
	defaultOracleTarget   = "http://localhost:11434"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "dossier.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Recency: RecencyConfig{
			Provider:  defaultRecencyProvider,
			RedisAddr: defaultRedisAddr,
		},
		Graph: GraphConfig{
			Provider: defaultGraphProvider,
		},
		Queue: QueueConfig{
			Provider:  defaultQueueProvider,
			RedisAddr: defaultRedisAddr,
			Workers:   defaultQueueWorkers,
			Capacity:  defaultQueueCapacity,
		},
		Oracle: OracleConfig{
			Provider: defaultOracleProvider,
			BaseURL:  defaultOracleTarget,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
