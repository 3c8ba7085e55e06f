package temporal

import (
	"errors"
	"fmt"
	"testing"

	"event-analytics-lab/internal/normalize"
)

func TestNormalize_PctOfPeak(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 10},
		{Period: "2023-02", Value: 20},
		{Period: "2023-03", Value: 5},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{50.0, 100.0, 25.0}
	for i, w := range want {
		if points[i].PctOfPeak == nil || *points[i].PctOfPeak != w {
			t.Errorf("point %d: expected pct_of_peak %.1f, got %v", i, w, points[i].PctOfPeak)
		}
	}
	// The peak period is always exactly 100.0.
	if *points[1].PctOfPeak != 100.0 {
		t.Errorf("peak period must be 100.0, got %v", *points[1].PctOfPeak)
	}
}

func TestNormalize_PeakToDate(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 10},
		{Period: "2023-02", Value: 20},
		{Period: "2023-03", Value: 5},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Precision: 1, PeakMode: PeakToDate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Running peak: 10, 20, 20.
	want := []float64{100.0, 100.0, 25.0}
	for i, w := range want {
		if points[i].PctOfPeak == nil || *points[i].PctOfPeak != w {
			t.Errorf("point %d: expected pct_of_peak %.1f, got %v", i, w, points[i].PctOfPeak)
		}
	}
}

func TestNormalize_PeriodOverPeriod(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 100},
		{Period: "2023-02", Value: 150},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Lag: 1, Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if points[0].PeriodOverPeriodPct != nil {
		t.Errorf("first point has no prior period, expected nil, got %v", *points[0].PeriodOverPeriodPct)
	}
	if points[1].PeriodOverPeriodPct == nil || *points[1].PeriodOverPeriodPct != 50.0 {
		t.Errorf("expected +50.0%%, got %v", points[1].PeriodOverPeriodPct)
	}
}

func TestNormalize_ZeroPriorValueIsNil(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 0},
		{Period: "2023-02", Value: 150},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Lag: 1, Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[1].PeriodOverPeriodPct != nil {
		t.Errorf("zero prior value must give nil, got %v", *points[1].PeriodOverPeriodPct)
	}
}

func TestNormalize_ZeroPeakIsNil(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 0},
		{Period: "2023-02", Value: 0},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range points {
		if p.PctOfPeak != nil {
			t.Errorf("point %d: zero peak must give nil pct_of_peak, got %v", i, *p.PctOfPeak)
		}
	}
}

func TestNormalize_LagIsPositionalNotCalendar(t *testing.T) {
	// 2023-02 is missing: with lag 1, 2023-03 compares against 2023-01.
	series := []Point{
		{Period: "2023-01", Value: 100},
		{Period: "2023-03", Value: 110},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Lag: 1, Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[1].PeriodOverPeriodPct == nil || *points[1].PeriodOverPeriodPct != 10.0 {
		t.Errorf("expected +10.0%% against the positionally prior value, got %v", points[1].PeriodOverPeriodPct)
	}
}

func TestNormalize_YearOverYearLag(t *testing.T) {
	series := make([]Point, 0, 13)
	for m := 1; m <= 12; m++ {
		series = append(series, Point{Period: period(2023, m), Value: 100})
	}
	series = append(series, Point{Period: period(2024, 1), Value: 80})

	points, err := Normalize(series, Config{SeriesID: "s", Lag: 12, Precision: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := points[len(points)-1]
	if last.PeriodOverPeriodPct == nil || *last.PeriodOverPeriodPct != -20.0 {
		t.Errorf("expected -20.0%% year over year, got %v", last.PeriodOverPeriodPct)
	}
	for _, p := range points[:12] {
		if p.PeriodOverPeriodPct != nil {
			t.Errorf("period %s has no value 12 back, expected nil", p.Period)
		}
	}
}

func TestNormalize_DuplicatePeriodFails(t *testing.T) {
	series := []Point{
		{Period: "2023-01", Value: 1},
		{Period: "2023-01", Value: 2},
	}

	_, err := Normalize(series, Config{SeriesID: "s"})
	var verr *normalize.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "period" {
		t.Errorf("expected period field, got %q", verr.Field)
	}
}

func TestNormalize_ClassifierLabels(t *testing.T) {
	classifier := NewClassifier([]Rule{
		{Label: "Growth", Until: "2015-01"},
		{Label: "Plateau", Until: "2023-01"},
		{Label: "Post-ChatGPT"},
	})
	series := []Point{
		{Period: "2010-06", Value: 1},
		{Period: "2018-06", Value: 2},
		{Period: "2024-06", Value: 3},
	}

	points, err := Normalize(series, Config{SeriesID: "s", Precision: 1, Classifier: classifier})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Growth", "Plateau", "Post-ChatGPT"}
	for i, w := range want {
		if points[i].Label != w {
			t.Errorf("point %d: expected label %q, got %q", i, w, points[i].Label)
		}
	}
}

func TestNormalize_EmptySeries(t *testing.T) {
	points, err := Normalize(nil, Config{SeriesID: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %d", len(points))
	}
}

func period(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
