package reporting

import (
	"fmt"
	"strings"
)

// RenderRunsCSV renders the streak summary as CSV string.
func RenderRunsCSV(rows []RunSummaryRow) string {
	var sb strings.Builder

	sb.WriteString("entity_id,category,longest,runs,runs_at_least\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d\n",
			row.EntityID, row.Category, row.Longest, row.Runs, row.RunsAtLeast))
	}

	return sb.String()
}

// RenderTemporalCSV renders the peak-normalized series as CSV string.
// Undefined percentages render as empty fields.
func RenderTemporalCSV(rows []TemporalRow) string {
	var sb strings.Builder

	sb.WriteString("period,value,peak,pct_of_peak,period_over_period_pct,label\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%s,%s,%s\n",
			row.Period, row.Value, row.Peak,
			csvOptional(row.PctOfPeak), csvOptional(row.PeriodOverPeriodPct), row.Label))
	}

	return sb.String()
}

// RenderMatchupsCSV renders head-to-head aggregates as CSV string.
func RenderMatchupsCSV(rows []MatchupRow) string {
	var sb strings.Builder

	sb.WriteString("first,second,first_wins,second_wins,draws,total,dominance\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%s\n",
			row.First, row.Second, row.FirstWins, row.SecondWins,
			row.Draws, row.Total, row.Dominance))
	}

	return sb.String()
}

func csvOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
