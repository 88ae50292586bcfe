package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"intelstack/internal/domain"
)

var (
	communityQuery     string
	communityHideAdded bool
)

var communityCmd = &cobra.Command{
	Use:   "community",
	Short: "Browse and install community plugins",
}

var communityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List community plugins",
	Long: `List plugins published in the community index with their status:
available, added, or outdated when a newer version is published.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := GetEngine().ListCommunity()
		list.Query = communityQuery
		list.HideAdded = communityHideAdded

		result, err := list.Execute(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range result.Plugins {
			line := fmt.Sprintf("%-9s %-24s %-40s %s", p.Status, p.Author+"/"+p.Filename, p.Metadata.Name, p.Metadata.Version)
			if len(p.AntiFeatures) > 0 {
				line += " [" + strings.Join(p.AntiFeatures, ", ") + "]"
			}
			fmt.Println(line)
		}
		fmt.Println(result.Message)
		return nil
	},
}

var communityAddCmd = &cobra.Command{
	Use:   "add <author>/<filename>",
	Short: "Install a community plugin into the external folder",
	Long: `Install a community plugin into the external folder. Installing an
added plugin again upgrades it.

Example:
  intelstack-cli community add McBen/portal-history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, filename, ok := strings.Cut(args[0], "/")
		if !ok {
			return fmt.Errorf("expected <author>/<filename>, got %s", args[0])
		}
		filename = strings.TrimSuffix(filename, domain.UserScriptSuffix)

		result, err := GetEngine().AddCommunityPlugin(author, filename).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	communityListCmd.Flags().StringVarP(&communityQuery, "query", "q", "", "filter by name or author")
	communityListCmd.Flags().BoolVar(&communityHideAdded, "hide-added", false, "hide plugins already added")

	communityCmd.AddCommand(communityListCmd)
	communityCmd.AddCommand(communityAddCmd)
	rootCmd.AddCommand(communityCmd)
}
