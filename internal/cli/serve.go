package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/dssim/internal/api"
	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/metrics"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

func newServeCommand(ctx context.Context, a *app) *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the driver control surface and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			loader, err := config.NewLoader(a.opts.scenario)
			if err != nil {
				return err
			}
			loader.SetLogger(a.log)

			d := simulation.New(a.reg, simulation.WithLogger(a.log))
			if err := d.LoadConfig(cfg, a.models); err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			metrics.New(reg).Instrument(d)

			handler := api.New(d, a.reg, a.models, loader, reg)

			// ── Hot-reload watcher ───────────────────────────────────────────
			if watch {
				loader.OnChange(func(newCfg *config.ScenarioConfig) {
					if err := a.override(newCfg); err != nil {
						a.log.Warn("hot-reload skipped: bad override", "err", err)
						return
					}
					if err := handler.Apply(newCfg); err != nil {
						a.log.Warn("hot-reload skipped", "err", err)
						return
					}
					a.log.Info("scenario hot-reloaded", "nodes", len(newCfg.Graph.Nodes))
				})
				stopWatch, err := loader.Watch()
				if err != nil {
					a.log.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
				} else {
					defer stopWatch()
				}
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 5 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				a.log.Info("server starting", "addr", addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			a.log.Info("shutting down")
			shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the scenario when the file changes")
	return cmd
}
