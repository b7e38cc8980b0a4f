// Package configcmder provides the config command for managing persistent
// dossier configuration stored in the .dossier/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent dossier configuration.

Configuration is stored as config.toml in the .dossier/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  recency.provider, recency.redis_addr, recency.redis_db,
  graph.provider, graph.sqlite_path, graph.postgres_dsn,
  graph.neo4j_uri, graph.neo4j_user, graph.neo4j_password,
  queue.provider, queue.redis_addr, queue.redis_db, queue.workers, queue.capacity,
  oracle.provider, oracle.model, oracle.base_url,
  chat.system_prompt,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  dossier config set <key> <value>    Set a configuration value
  dossier config get <key>            Get a configuration value
  dossier config list                 List all configuration values

Examples:
  dossier config set oracle.provider anthropic
  dossier config set queue.workers 8
  dossier config get graph.provider
  dossier config list`

const configShortDesc string = "Manage persistent dossier configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
