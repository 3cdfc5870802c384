package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/coinsight/coinsight/internal/cli"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show saved analyses",
		Long: `History lists past analyses, newest first. Pass an analysis id to show
the full saved report.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum number of entries to list")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	if len(args) == 1 {
		entry, err := store.GetAnalysis(ctx, args[0])
		if err != nil {
			return err
		}
		cli.RenderResult(os.Stdout, &entry.Result)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.ListAnalyses(ctx, limit)
	if err != nil {
		return err
	}
	cli.RenderHistory(os.Stdout, summaries)
	return nil
}
