package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"intelstack/internal/config"
	"intelstack/internal/domain"
)

var initDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or edit the config file interactively",
	Long: `Ask for the data directory, build channel and external plugin folder and
write them to the config file. Existing values are offered as defaults.

Use --defaults to write the current values without prompting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if !initDefaults {
			if err := promptConfig(cfg); err != nil {
				return err
			}
		}

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

func promptConfig(cfg *config.Config) error {
	channel := string(cfg.BuildChannel())
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Description("Catalog and downloaded scripts are stored here").
				Value(&cfg.DataDir),
			huh.NewSelect[string]().
				Title("Build channel").
				Options(
					huh.NewOption("Release", string(domain.ChannelRelease)),
					huh.NewOption("Beta", string(domain.ChannelBeta)),
				).
				Value(&channel),
			huh.NewInput().
				Title("External plugin folder").
				Description("Leave empty to manage bundled plugins only").
				Value(&cfg.ExternalFolder).
				Validate(validateFolder),
			huh.NewConfirm().
				Title("Inject scripts").
				Value(&cfg.ScriptsEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Channel = channel
	return nil
}

func validateFolder(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the current values without prompting")
	rootCmd.AddCommand(initCmd)
}
