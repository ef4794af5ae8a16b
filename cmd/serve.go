package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/httpapi"
	"github.com/abhisek/recall/internal/jobs"
	"github.com/abhisek/recall/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		ctx := cmd.Context()
		cfg := rt.cfg

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		shutdownTracing, err := observability.Init(ctx, cfg.Tracing, version, rt.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
				rt.log.WithError(err).Warn("tracing shutdown")
			}
		}()

		if cfg.Jobs.Enabled {
			runner := jobs.New(rt.engine, cfg.Jobs.SnapshotInterval, rt.log)
			if err := runner.Start(ctx); err != nil {
				return err
			}
			defer runner.Stop()
		}

		router := httpapi.NewRouter(httpapi.RouterConfig{
			Engine:      rt.engine,
			Store:       rt.store,
			Logger:      rt.log,
			CORSOrigins: cfg.Server.CORSOrigins,
			ServiceName: cfg.Tracing.ServiceName,
		})
		return httpapi.NewServer(cfg.Server.Addr(), router, rt.log).Run(ctx)
	}),
}

func init() {
	serveCmd.Flags().Int("port", 0, "Listen port (overrides server.port)")
}
