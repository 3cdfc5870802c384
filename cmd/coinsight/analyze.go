package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/cli"
	"github.com/coinsight/coinsight/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [query]",
		Short: "Analyze sold listings for one coin query",
		Long: `Analyze pulls sold marketplace listings for the query, scores each one
for relevance, and reports confidence-weighted price statistics.

Example:
  coinsight analyze "2004 Silver Eagle MS69"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().Int("max-results", 10, "maximum listings to retrieve (1-50)")
	cmd.Flags().Int("min-confidence", 60, "minimum confidence score to keep a listing (0-100)")
	cmd.Flags().Int("lookback-days", 90, "how many days of sales to consider")
	cmd.Flags().Bool("no-save", false, "skip saving the result to the analysis history")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	pipeline, err := buildPipeline(logger)
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	minConfidence, _ := cmd.Flags().GetInt("min-confidence")
	lookbackDays, _ := cmd.Flags().GetInt("lookback-days")
	noSave, _ := cmd.Flags().GetBool("no-save")

	req := model.SearchRequest{
		Query:         strings.Join(args, " "),
		MaxResults:    maxResults,
		MinConfidence: minConfidence,
		LookbackDays:  lookbackDays,
	}

	fmt.Println(cli.FormatInfo(fmt.Sprintf("Analyzing %q...", req.Query)))
	result, err := pipeline.CompleteAnalysis(ctx, req)
	if err != nil {
		return err
	}

	cli.RenderResult(os.Stdout, result)
	if result == nil || noSave {
		return nil
	}

	store, err := openHistory(ctx)
	if err != nil {
		logger.Warn("history unavailable, result not saved", "error", err)
		return nil
	}
	defer func() {
		_ = store.Close()
	}()

	id, err := store.SaveAnalysis(ctx, *result)
	if err != nil {
		logger.Warn("failed to save analysis", "error", err)
		return nil
	}
	fmt.Println(cli.SubtleStyle.Render("Saved as " + id))
	return nil
}
