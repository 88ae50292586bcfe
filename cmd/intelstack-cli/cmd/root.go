package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"intelstack/internal/bootstrap"
	"intelstack/internal/config"
)

var (
	configPath string
	verbose    bool
	engine     *bootstrap.Engine
)

var rootCmd = &cobra.Command{
	Use:   "intelstack-cli",
	Short: "CLI for keeping IITC userscripts up to date",
	Long: `intelstack-cli manages a local catalog of IITC userscripts: the main
script, the plugins bundled with it, and external plugins kept in a folder
of your choice.

It provides commands to update scripts, sync the external folder, list and
toggle plugins, browse community plugins, and build the injection bundle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands and first-time setup
		switch cmd.Name() {
		case "help", "completion", "init":
			return nil
		}
		e, err := bootstrap.New(bootstrap.Options{
			ConfigPath: configPath,
			Logger:     bootstrap.NewLogger(os.Stderr, verbose),
		})
		if err != nil {
			return err
		}
		engine = e
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if engine == nil {
			return nil
		}
		return engine.Close()
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// GetEngine returns the initialized engine
func GetEngine() *bootstrap.Engine {
	return engine
}
