package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"intelstack/internal/application"
	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed main script and catalog summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := GetEngine()

		meta, err := commands.NewMainScriptVersionCommand(e.Storage).Execute(cmd.Context())
		switch {
		case errors.Is(err, application.ErrNotFound):
			fmt.Println("Main script: not installed, run update")
		case err != nil:
			return err
		default:
			fmt.Printf("Main script: %s %s\n", meta.Name, meta.Version)
		}
		fmt.Printf("Channel:     %s\n", e.Config.BuildChannel())

		folder := e.Settings.ExternalFolderPath()
		if folder == "" {
			folder = "not configured"
		}
		fmt.Printf("External:    %s\n", folder)

		plugins, err := commands.NewListPluginsCommand(e.Catalog, domain.Filter{}).Execute(cmd.Context())
		if err != nil {
			return err
		}
		var internal, enabled int
		for _, p := range plugins {
			if p.Internal {
				internal++
			}
			if p.Enabled {
				enabled++
			}
		}
		fmt.Printf("Plugins:     %d bundled, %d external, %d enabled\n", internal, len(plugins)-internal, enabled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
