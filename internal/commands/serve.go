package commands

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/nimbus/internal/chat"
	"github.com/diogo/nimbus/internal/server"
)

func newServeCmd(deps *Dependencies, g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a chat session over HTTP",
		Long: `Serve a single chat session over HTTP.

Endpoints:
  POST /api/messages   {"text": "..."} submits a message and returns the transcript
  GET  /api/messages   returns the transcript and the pending flag
  GET  /api/messages/export?format=markdown|json   downloads the transcript
  GET  /api/stream     websocket pushing a snapshot after every change
  GET  /healthz        liveness check

A message posted while another is pending is rejected with 409 Conflict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = g.cfg.ServerAddr
			}
			model := g.modelName()
			logger := g.logger.With(zap.String("command", "serve"))

			gen, cleanup, err := deps.NewGenerator(ctx, g.cfg, model, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if !g.verbose && !g.cfg.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			session := chat.NewSession(gen, chat.WithLogger(logger))
			fmt.Fprintf(deps.Stderr, "%s %s\n", keyStyle.Render("Serving on"), "http://"+addr)
			return deps.Serve(ctx, addr, server.NewRouter(session, logger), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server_addr)")
	return cmd
}
