// Package initcmder provides the init command for initializing a local
// .dossier directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/quietgrove/dossier/pkg/config"
)

const (
	dirName    = ".dossier"
	configFile = "config.toml"

	fetchTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .dossier/ directory in the current working directory.

Creates a local .dossier/ directory that takes precedence over the default
~/.dossier/ directory for configuration, the sqlite graph database, and
other dossier state. A config.toml is written with default values.

Use --preset to start from a provider preset (openai, anthropic, ollama)
or from a remote config.toml URL:

  dossier init
  dossier init --preset anthropic
  dossier init --preset https://example.com/team-config.toml`

const initShortDesc string = "Initialize a local .dossier/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Provider preset name or config.toml URL")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := resolveConfig(preset)
	if err != nil {
		return err
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .dossier directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Initialized .dossier directory: %s\n", dir)
	return nil
}

// resolveConfig maps the --preset value to a Config: empty means defaults,
// an http(s) value is fetched as remote TOML, anything else is a named
// provider preset.
func resolveConfig(preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchRemoteConfig(preset)
	default:
		return config.PresetConfig(preset)
	}
}

func fetchRemoteConfig(url string) (*config.Config, error) {
	client := &http.Client{Timeout: fetchTimeout}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
