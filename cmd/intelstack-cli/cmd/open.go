package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"intelstack/internal/adapters/browser"
	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

var openEdit bool

var openCmd = &cobra.Command{
	Use:   "open [plugin]",
	Short: "Open the intel map or a plugin",
	Long: `Open the intel map in the default browser. With a plugin, open its
download URL, or the installed script in your editor with --edit.

Examples:
  intelstack-cli open
  intelstack-cli open bookmarks
  intelstack-cli open portal-names@alice --edit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := GetEngine()
		if len(args) == 0 {
			return browser.NewOpener().OpenURL(domain.IntelMapURL)
		}

		p, err := commands.NewShowPluginCommand(e.Catalog, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		if openEdit {
			if p.Internal {
				return e.Editor.OpenFile(e.Storage.PluginPath(p.Filename))
			}
			_, release, err := e.Folder.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return e.Editor.OpenFile(e.Folder.PluginPath(p.Filename))
		}
		if p.DownloadURL == "" {
			return fmt.Errorf("%s has no download URL", p.DisplayName())
		}
		return browser.NewOpener().OpenURL(p.DownloadURL)
	},
}

func init() {
	openCmd.Flags().BoolVarP(&openEdit, "edit", "e", false, "open the installed script in your editor")
	rootCmd.AddCommand(openCmd)
}
