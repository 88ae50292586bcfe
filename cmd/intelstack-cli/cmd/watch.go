package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"intelstack/internal/adapters/watcher"
)

var (
	watchMetricsAddr    string
	watchUpdateInterval time.Duration
	watchDebounce       time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the catalog in sync with the external folder",
	Long: `Sync the external folder whenever a plugin file is created, changed or
removed. Optionally run updates periodically and serve Prometheus metrics.

Examples:
  intelstack-cli watch
  intelstack-cli watch --update-interval 6h --metrics-addr :9464`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := GetEngine()
		folder := e.Settings.ExternalFolderPath()
		if folder == "" {
			return errors.New("no external folder configured, run init first")
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		resync := func(ctx context.Context) {
			if _, err := e.SyncExternal().Execute(ctx); err != nil {
				e.Logger.Error("sync failed", "error", err)
			}
		}
		resync(ctx)

		w := watcher.New(folder, watchDebounce, resync, e.Logger)
		g.Go(func() error {
			return w.Run(ctx)
		})

		if watchUpdateInterval > 0 {
			g.Go(func() error {
				ticker := time.NewTicker(watchUpdateInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if _, err := e.Updater.RunUpdate(ctx); err != nil {
							e.Logger.Error("scheduled update failed", "error", err)
						}
					}
				}
			})
		}

		if watchMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", e.Metrics.Handler())
			srv := &http.Server{Addr: watchMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			g.Go(func() error {
				e.Logger.Info("serving metrics", "addr", watchMetricsAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}

		e.Logger.Info("watching external folder", "path", folder)
		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().DurationVar(&watchUpdateInterval, "update-interval", 0, "run updates at this interval, 0 disables")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "wait this long after the last change before syncing")
	rootCmd.AddCommand(watchCmd)
}
