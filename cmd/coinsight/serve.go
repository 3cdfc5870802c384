package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coinsight/coinsight/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Long: `Serve exposes the analysis pipeline over HTTP:

  POST /api/analyze        analyze one query
  POST /api/analyze/batch  analyze several queries
  GET  /api/status         runtime status
  GET  /api/health         health check
  GET  /api/history        saved analyses`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("no-history", false, "run without the analysis history database")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	pipeline, err := buildPipeline(logger)
	if err != nil {
		return err
	}

	var history server.History
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if !noHistory {
		store, storeErr := openHistory(ctx)
		if storeErr != nil {
			logger.Warn("history unavailable, continuing without persistence", "error", storeErr)
		} else {
			defer func() {
				_ = store.Close()
			}()
			history = store
		}
	}

	return server.New(pipeline, history, logger).Run(ctx, viper.GetString("server.addr"))
}
