package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the external plugin folder into the catalog",
	Long: `Scan the external folder and make the catalog match it: new plugin files
are added, changed ones refreshed and records of removed files deleted.

If the folder no longer exists it is forgotten and its plugins are removed
from the catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := GetEngine().SyncExternal().Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		if result.Stats.Duplicates > 0 {
			fmt.Printf("Ignored %d files with duplicate plugin ids\n", result.Stats.Duplicates)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
