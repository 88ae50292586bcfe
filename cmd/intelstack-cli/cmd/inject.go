package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var injectOut string

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Print the injection bundle as JSON",
	Long: `Print {"scripts": [...]} with the main script followed by every enabled
plugin, each wrapped with a GM_info object. The bundle is empty when script
injection is disabled or the main script has not been downloaded yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := GetEngine().BuildInjection().Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := os.Stdout
		if injectOut != "" && injectOut != "-" {
			f, err := os.Create(injectOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		return enc.Encode(bundle)
	},
}

func init() {
	injectCmd.Flags().StringVarP(&injectOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(injectCmd)
}
