package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Series Report: %s\n\n", r.SeriesID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Streaks
	sb.WriteString("## Streaks\n\n")
	if len(r.RunSummary) > 0 {
		sb.WriteString(fmt.Sprintf("| Entity | Category | Longest | Runs | Runs of %d+ |\n", r.MinRunLength))
		sb.WriteString("|--------|----------|---------|------|------------|\n")
		for _, row := range r.RunSummary {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d |\n",
				row.EntityID, row.Category, row.Longest, row.Runs, row.RunsAtLeast))
		}
	} else {
		sb.WriteString("No runs detected.\n")
	}
	sb.WriteString("\n")

	// Peak-normalized series
	sb.WriteString("## Peak-Normalized Series\n\n")
	if len(r.TemporalPoints) > 0 {
		sb.WriteString("| Period | Value | Peak | % of Peak | Change % | Label |\n")
		sb.WriteString("|--------|-------|------|-----------|----------|-------|\n")
		for _, row := range r.TemporalPoints {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				row.Period, fmtValue(row.Value), fmtValue(row.Peak),
				fmtOptional(row.PctOfPeak), fmtOptional(row.PeriodOverPeriodPct), row.Label))
		}
	} else {
		sb.WriteString("No temporal points available.\n")
	}
	sb.WriteString("\n")

	// Head-to-head
	sb.WriteString("## Head-to-Head\n\n")
	if len(r.Matchups) > 0 {
		sb.WriteString("| First | Second | First Wins | Second Wins | Draws | Total | Verdict |\n")
		sb.WriteString("|-------|--------|------------|-------------|-------|-------|--------|\n")
		for _, row := range r.Matchups {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %s |\n",
				row.First, row.Second, row.FirstWins, row.SecondWins,
				row.Draws, row.Total, row.Dominance))
		}
	} else {
		sb.WriteString("No matchups available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// fmtValue prints a float without trailing decimal noise for whole numbers.
func fmtValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// fmtOptional prints a nullable percentage, "n/a" when undefined.
func fmtOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}
