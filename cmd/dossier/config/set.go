package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quietgrove/dossier/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .dossier/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  api.listen,
  recency.provider, recency.redis_addr, recency.redis_db,
  graph.provider, graph.sqlite_path, graph.postgres_dsn,
  graph.neo4j_uri, graph.neo4j_user, graph.neo4j_password,
  queue.provider, queue.redis_addr, queue.redis_db, queue.workers, queue.capacity,
  oracle.provider, oracle.model, oracle.base_url,
  chat.system_prompt,
  events.provider, events.brokers, events.topic

Examples:
  dossier config set oracle.provider anthropic
  dossier config set graph.provider neo4j
  dossier config set queue.workers 8`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %q\n", key, value)
	return nil
}
