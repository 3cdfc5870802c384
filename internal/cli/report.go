package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/coinsight/coinsight/internal/model"
	"github.com/coinsight/coinsight/internal/storage"
)

const maxTitleWidth = 60

// RenderResult writes a human-readable report for one composite result.
func RenderResult(w io.Writer, result *model.CompositeResult) {
	if result == nil {
		fmt.Fprintln(w, FormatWarning("No listings found for this search query"))
		fmt.Fprintln(w, SubtleStyle.Render("Try broadening the search terms or a different year/grade."))
		return
	}

	analysis := result.Analysis
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s Analysis: %s", CoinIcon, analysis.Query)))

	fmt.Fprintln(w, BoldStyle.Render("Summary"))
	fmt.Fprintf(w, "  Listings analyzed:   %d\n", analysis.TotalAnalyzed)
	fmt.Fprintf(w, "  Above threshold:     %d\n", analysis.AboveThreshold)
	fmt.Fprintf(w, "  High confidence:     %d\n", analysis.HighConfidence)
	if analysis.AboveThreshold > 0 {
		fmt.Fprintf(w, "  Confidence range:    %d-%d (avg %.1f)\n",
			analysis.MinConfidence, analysis.MaxConfidence, analysis.AverageConfidence)
	}
	fmt.Fprintln(w)

	if len(analysis.Listings) > 0 {
		fmt.Fprintln(w, BoldStyle.Render("Top Listings"))
		for i, l := range analysis.Listings {
			if i >= 10 {
				fmt.Fprintln(w, SubtleStyle.Render(fmt.Sprintf("  ... and %d more", len(analysis.Listings)-i)))
				break
			}
			fmt.Fprintf(w, "  %3d  %-6s %s %s\n",
				l.Confidence.Score,
				string(l.Confidence.MatchQuality),
				renderPrice(&l),
				truncate(l.Title, maxTitleWidth),
			)
		}
		fmt.Fprintln(w)
	}

	if result.Pricing != nil {
		p := result.Pricing
		fmt.Fprintln(w, BoldStyle.Render(ChartIcon+" Weighted Pricing"))
		fmt.Fprintf(w, "  Weighted average:    $%s\n", p.WeightedAverage.StringFixed(2))
		fmt.Fprintf(w, "  Median:              $%s\n", p.Median.StringFixed(2))
		fmt.Fprintf(w, "  P25 / P75:           $%s / $%s\n", p.P25.StringFixed(2), p.P75.StringFixed(2))
		fmt.Fprintf(w, "  Range:               $%s - $%s ($%s)\n",
			p.Min.StringFixed(2), p.Max.StringFixed(2), p.Range.StringFixed(2))
		fmt.Fprintf(w, "  Priced listings:     %d\n", p.SampleSize)
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, FormatWarning("No pricing data: no surviving listing had a parseable price"))
		fmt.Fprintln(w)
	}

	recs := result.Recommendations
	fmt.Fprintln(w, BoldStyle.Render("Recommendations"))
	fmt.Fprintf(w, "  Data quality:        %s (%s)\n", renderRating(recs.DataQuality.Rating), recs.DataQuality.Reason)
	if recs.Volatility != nil {
		fmt.Fprintf(w, "  Price volatility:    %s (%s)\n", renderRating(recs.Volatility.Rating), recs.Volatility.Reason)
	}
	if recs.SuggestedPrice != nil {
		fmt.Fprintf(w, "  Suggested price:     %s\n", BoldStyle.Render("$"+recs.SuggestedPrice.StringFixed(2)))
	}
	fmt.Fprintln(w, BoldStyle.Render("Next Steps"))
	for i, step := range recs.NextSteps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}

// RenderBatch writes a per-query summary table for a batch run.
func RenderBatch(w io.Writer, batch model.BatchResult) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s Batch Analysis", CoinIcon)))
	fmt.Fprintf(w, "%s  %s  %s\n",
		FormatSuccess(fmt.Sprintf("%d succeeded", batch.SucceededQueries)),
		FormatError(fmt.Sprintf("%d failed", batch.FailedQueries)),
		SubtleStyle.Render(fmt.Sprintf("(%.1fs)", batch.ProcessingSeconds)),
	)
	fmt.Fprintln(w)

	for _, outcome := range batch.Outcomes {
		switch {
		case outcome.Result != nil && outcome.Result.Pricing != nil:
			fmt.Fprintf(w, "  %s %-40s $%s (%d listings)\n",
				SuccessStyle.Render(SuccessIcon),
				truncate(outcome.Query, 40),
				outcome.Result.Pricing.WeightedAverage.StringFixed(2),
				outcome.Result.Analysis.AboveThreshold,
			)
		case outcome.Result != nil:
			fmt.Fprintf(w, "  %s %-40s no pricing data\n",
				WarningStyle.Render(WarningIcon),
				truncate(outcome.Query, 40),
			)
		default:
			fmt.Fprintf(w, "  %s %-40s %s\n",
				ErrorStyle.Render(ErrorIcon),
				truncate(outcome.Query, 40),
				outcome.Err,
			)
		}
	}
}

// RenderHistory writes the saved-analysis list.
func RenderHistory(w io.Writer, summaries []storage.HistorySummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No saved analyses yet."))
		return
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s Analysis History", CoinIcon)))
	for _, s := range summaries {
		price := "-"
		if s.SuggestedPrice != "" {
			price = "$" + s.SuggestedPrice
		}
		fmt.Fprintf(w, "  %s  %-40s %8s  %2d listings  %s\n",
			s.CreatedAt.Format("2006-01-02 15:04"),
			truncate(s.Query, 40),
			price,
			s.AboveThreshold,
			SubtleStyle.Render(s.ID),
		)
	}
}

func renderPrice(l *model.Listing) string {
	if !l.HasPrice() {
		return SubtleStyle.Render(fmt.Sprintf("%9s", "N/A"))
	}
	return fmt.Sprintf("$%8s", l.Price.StringFixed(2))
}

func renderRating(rating string) string {
	switch rating {
	case "Excellent", "Low":
		return SuccessStyle.Render(rating)
	case "Good", "Moderate":
		return InfoStyle.Render(rating)
	case "Fair":
		return WarningStyle.Render(rating)
	default:
		return ErrorStyle.Render(rating)
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return strings.TrimSpace(string(runes[:width-3])) + "..."
}
