package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

var (
	listInternal bool
	listExternal bool
	listEnabled  bool
	listCategory string
	listQuery    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins in the catalog",
	Long: `List plugins in the catalog, sorted by name.

Examples:
  intelstack-cli list
  intelstack-cli list --external --enabled
  intelstack-cli list --category "Portal Info"
  intelstack-cli list --query draw`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := domain.Filter{Category: listCategory, Query: listQuery}
		switch {
		case listInternal && !listExternal:
			filter.Internal = domain.BoolPtr(true)
		case listExternal && !listInternal:
			filter.Internal = domain.BoolPtr(false)
		}
		if listEnabled {
			filter.Enabled = domain.BoolPtr(true)
		}

		plugins, err := commands.NewListPluginsCommand(GetEngine().Catalog, filter).Execute(cmd.Context())
		if err != nil {
			return err
		}

		for _, p := range plugins {
			fmt.Println(formatPlugin(p))
		}
		return nil
	},
}

func formatPlugin(p *domain.Plugin) string {
	state := " "
	if p.Enabled {
		state = "*"
	}
	kind := "int"
	if !p.Internal {
		kind = "ext"
	}
	version := p.Version
	if version == "" {
		version = "-"
	}
	return fmt.Sprintf("%s %s %-12s %-40s %s", state, kind, p.Category, p.DisplayName(), version)
}

var showCmd = &cobra.Command{
	Use:   "show <plugin>",
	Short: "Show a plugin by handle or id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := commands.NewShowPluginCommand(GetEngine().Catalog, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Name:        %s\n", p.Name)
		fmt.Printf("Id:          %s\n", p.Identifier)
		fmt.Printf("Handle:      %s\n", p.Handle)
		fmt.Printf("Category:    %s\n", p.Category)
		fmt.Printf("Author:      %s\n", p.Author)
		fmt.Printf("Version:     %s\n", p.Version)
		fmt.Printf("Enabled:     %t\n", p.Enabled)
		fmt.Printf("Internal:    %t\n", p.Internal)
		fmt.Printf("File:        %s\n", GetEngine().PluginPath(p.Internal, p.Filename))
		if p.DownloadURL != "" {
			fmt.Printf("Download:    %s\n", p.DownloadURL)
		}
		if p.UpdateURL != "" {
			fmt.Printf("Update:      %s\n", p.UpdateURL)
		}
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		return nil
	},
}

func newToggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <plugin>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.NewSetEnabledCommand(GetEngine().Catalog, args[0], enabled).Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
}

func init() {
	listCmd.Flags().BoolVar(&listInternal, "internal", false, "only bundled plugins")
	listCmd.Flags().BoolVar(&listExternal, "external", false, "only external plugins")
	listCmd.Flags().BoolVar(&listEnabled, "enabled", false, "only enabled plugins")
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by name or id")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(newToggleCmd("enable", "Enable a plugin for injection", true))
	rootCmd.AddCommand(newToggleCmd("disable", "Disable a plugin", false))
}
