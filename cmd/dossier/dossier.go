// Package dossiercmder
package dossiercmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/quietgrove/dossier/cmd/dossier/config"
	initcmder "github.com/quietgrove/dossier/cmd/dossier/init"
	servecmder "github.com/quietgrove/dossier/cmd/dossier/serve"
	versioncmder "github.com/quietgrove/dossier/cmd/dossier/version"
	workcmder "github.com/quietgrove/dossier/cmd/dossier/work"
)

const dossierLongDesc string = `Dossier profiles conversational skills and personality traits from chat.

Run services using:
  dossier serve        Run the chat API and extraction workers together
  dossier serve api    Run just the chat API
  dossier work         Run just the extraction workers`

const dossierShortDesc string = "Dossier - Conversational Profiling"

func NewDossierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dossier",
		Short: dossierShortDesc,
		Long:  dossierLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(workcmder.NewWorkCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
