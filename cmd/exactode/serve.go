package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/exactode/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP:

  POST /solve   solve {"m": "...", "n": "..."}
  POST /tool    execute a tool call
  GET  /schema  tool schema for agent registration
  GET  /health  liveness check
  GET  /metrics Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("starting server",
				zap.Int("port", a.cfg.Server.Port),
				zap.Duration("solve_timeout", a.cfg.Server.SolveTimeout))
			return server.New(a.cfg.Server, a.solver, a.logger).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "port to listen on (default from server.port)")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
