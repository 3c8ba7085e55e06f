package streaks

import (
	"errors"
	"testing"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/normalize"
)

// seq builds a single-entity event sequence from a list of categories,
// one event per day in order.
func seq(entityID string, categories ...string) []*domain.Event {
	events := make([]*domain.Event, len(categories))
	for i, c := range categories {
		events[i] = &domain.Event{
			SeriesID:   "test",
			EntityID:   entityID,
			OccurredAt: int64(i+1) * 86_400_000,
			Seq:        i,
			Category:   c,
		}
	}
	return events
}

func TestDetect_WinLossExample(t *testing.T) {
	events := seq("hikaru", "win", "win", "loss", "win", "win", "win")

	runs, err := Detect(events, Config{Domain: []string{"win", "loss", "draw"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		category string
		length   int
	}{
		{"win", 2}, {"loss", 1}, {"win", 3},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, w := range want {
		if runs[i].Category != w.category || runs[i].Length != w.length {
			t.Errorf("run %d: expected (%s,%d), got (%s,%d)",
				i, w.category, w.length, runs[i].Category, runs[i].Length)
		}
	}

	if got := LongestRun(runs, "hikaru", "win"); got != 3 {
		t.Errorf("expected longest win streak 3, got %d", got)
	}
}

func TestDetect_RunLengthsSumToSequenceLength(t *testing.T) {
	events := seq("e", "a", "a", "b", "c", "c", "c", "a", "b", "b", "a")

	runs, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, r := range runs {
		if r.Length < 1 {
			t.Errorf("run length below 1: %+v", r)
		}
		total += r.Length
	}
	if total != len(events) {
		t.Errorf("run lengths sum to %d, sequence has %d events", total, len(events))
	}
}

func TestDetect_AdjacentRunsDiffer(t *testing.T) {
	events := seq("e", "x", "x", "y", "y", "x", "z", "z", "z", "y")

	runs, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(runs); i++ {
		if runs[i-1].Category == runs[i].Category {
			t.Errorf("adjacent runs %d and %d share category %q", i-1, i, runs[i].Category)
		}
	}
}

func TestDetect_RunBoundaries(t *testing.T) {
	events := seq("e", "gloomy", "gloomy", "clear", "gloomy")

	runs, err := Detect(events, Config{Domain: []string{"gloomy", "clear"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	// First gloomy spell covers days 1-2.
	if runs[0].StartMs != 86_400_000 || runs[0].EndMs != 2*86_400_000 {
		t.Errorf("expected boundaries (day1, day2), got (%d, %d)", runs[0].StartMs, runs[0].EndMs)
	}
	if got := LongestRun(runs, "e", "gloomy"); got != 2 {
		t.Errorf("expected longest gloomy streak 2, got %d", got)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	events := seq("e", "win", "loss", "loss", "win")

	first, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ between passes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Errorf("run %d differs between passes: %+v vs %+v", i, *first[i], *second[i])
		}
	}
}

func TestDetect_SingleEventYieldsRunOfOne(t *testing.T) {
	runs, err := Detect(seq("e", "win"), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].Length != 1 {
		t.Fatalf("expected one run of length 1, got %+v", runs)
	}
}

func TestDetect_EmptyInput(t *testing.T) {
	runs, err := Detect(nil, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestDetect_MultipleEntitiesIndependent(t *testing.T) {
	events := append(seq("a", "win", "win"), seq("b", "win", "loss")...)

	runs, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs across entities, got %d", len(runs))
	}
	if got := LongestRun(runs, "a", "win"); got != 2 {
		t.Errorf("entity a: expected longest win streak 2, got %d", got)
	}
	if got := LongestRun(runs, "b", "win"); got != 1 {
		t.Errorf("entity b: expected longest win streak 1, got %d", got)
	}
}

func TestDetect_CategoryOutsideDomainFails(t *testing.T) {
	events := seq("e", "win", "rainy")

	_, err := Detect(events, Config{Domain: []string{"win", "loss"}})
	var verr *normalize.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDetect_AllowListFilters(t *testing.T) {
	events := append(seq("tracked", "win", "win"), seq("other", "win")...)

	runs, err := Detect(events, Config{Allow: []string{"tracked"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range runs {
		if r.EntityID != "tracked" {
			t.Errorf("entity %q leaked past the allow-list", r.EntityID)
		}
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestCountRunsAtLeast(t *testing.T) {
	events := seq("e", "win", "win", "win", "loss", "win", "win", "win", "win", "loss", "win")

	runs, err := Detect(events, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := CountRunsAtLeast(runs, "win", 3)
	if counts["e"] != 2 {
		t.Errorf("expected 2 win streaks of 3+, got %d", counts["e"])
	}
}
