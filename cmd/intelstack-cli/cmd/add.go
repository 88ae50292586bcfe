package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	addURL      string
	addFile     string
	addFilename string
	addReplace  bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an external plugin from a URL or a file",
	Long: `Add a plugin to the external folder and the catalog.

The plugin is either downloaded from a URL or read from a local file ("-"
reads standard input). The file name defaults to the last URL segment or to
the plugin name.

Examples:
  intelstack-cli add --url example.com/plugins/portal-level.user.js
  intelstack-cli add --file ./draft.user.js --name my-draft
  cat plugin.user.js | intelstack-cli add --file -`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		add := GetEngine().AddPlugin()
		add.URL = addURL
		add.Filename = addFilename
		add.Replace = addReplace

		if addFile != "" {
			code, err := readSource(addFile)
			if err != nil {
				return err
			}
			add.Code = code
		}

		result, err := add.Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func init() {
	addCmd.Flags().StringVar(&addURL, "url", "", "plugin URL")
	addCmd.Flags().StringVar(&addFile, "file", "", "plugin file, - for stdin")
	addCmd.Flags().StringVar(&addFilename, "name", "", "file name in the external folder, without .user.js")
	addCmd.Flags().BoolVar(&addReplace, "replace", false, "overwrite an existing file")
	addCmd.MarkFlagsMutuallyExclusive("url", "file")
	addCmd.MarkFlagsOneRequired("url", "file")

	rootCmd.AddCommand(addCmd)
}
