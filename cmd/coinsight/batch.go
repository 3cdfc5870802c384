package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/cli"
	"github.com/coinsight/coinsight/internal/model"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [queries]",
		Short: "Analyze several coin queries in one run",
		Long: `Batch analyzes a comma-separated list of queries. Queries run
independently; one failing does not stop the others.

Example:
  coinsight batch "2004 Silver Eagle MS69, 2005 Silver Eagle MS69"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().Int("max-results", 10, "maximum listings to retrieve per query (1-50)")
	cmd.Flags().Int("min-confidence", 60, "minimum confidence score to keep a listing (0-100)")
	cmd.Flags().Int("lookback-days", 90, "how many days of sales to consider")
	cmd.Flags().Bool("no-save", false, "skip saving results to the analysis history")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	var queries []string
	for _, q := range strings.Split(strings.Join(args, " "), ",") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("no valid queries given")
	}

	pipeline, err := buildPipeline(logger)
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	minConfidence, _ := cmd.Flags().GetInt("min-confidence")
	lookbackDays, _ := cmd.Flags().GetInt("lookback-days")
	noSave, _ := cmd.Flags().GetBool("no-save")

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]Analyzing %d queries...[reset]", len(queries))),
	)

	done := make(chan model.BatchResult, 1)
	go func() {
		done <- pipeline.BatchAnalysis(ctx, queries, maxResults, minConfidence, lookbackDays)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var batch model.BatchResult
waiting:
	for {
		select {
		case batch = <-done:
			break waiting
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	cli.RenderBatch(os.Stdout, batch)

	if !noSave {
		saveBatch(cmd, batch)
	}
	return nil
}

func saveBatch(cmd *cobra.Command, batch model.BatchResult) {
	ctx := cmd.Context()
	logger := slog.Default()

	store, err := openHistory(ctx)
	if err != nil {
		logger.Warn("history unavailable, results not saved", "error", err)
		return
	}
	defer func() {
		_ = store.Close()
	}()

	var saved int
	for _, outcome := range batch.Outcomes {
		if outcome.Result == nil {
			continue
		}
		if _, err := store.SaveAnalysis(ctx, *outcome.Result); err != nil {
			logger.Warn("failed to save analysis", "query", outcome.Query, "error", err)
			continue
		}
		saved++
	}
	if saved > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Saved %d analyses to history", saved)))
	}
}
