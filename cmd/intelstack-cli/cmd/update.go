package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the main script and plugins",
	Long: `Download newer versions of the main script, the bundled plugins and every
external plugin that declares a download or update URL.

Each script is probed through its .meta.js file first and only downloaded
when the version differs. External plugins removed from the folder are not
recreated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := GetEngine().Updater.RunUpdate(cmd.Context())
		if report != nil {
			if report.Skipped {
				fmt.Println("An update is already running")
				return err
			}
			fmt.Printf("Checked %d scripts: %d updated, %d up to date, %d missing, %d failed (%s)\n",
				report.Targets, report.Installed, report.UpToDate, report.Missing, report.Failed,
				report.Duration.Round(time.Millisecond))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
