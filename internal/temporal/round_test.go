package temporal

import "testing"

func TestRound_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		x         float64
		precision int
		want      float64
	}{
		{2.25, 1, 2.3},
		{-2.25, 1, -2.3},
		{2.24, 1, 2.2},
		{0.005, 2, 0.01},
		{-0.005, 2, -0.01},
		{1.0, 1, 1.0},
		{99.95, 1, 100.0},
	}
	for _, c := range cases {
		if got := Round(c.x, c.precision); got != c.want {
			t.Errorf("Round(%v, %d): expected %v, got %v", c.x, c.precision, c.want, got)
		}
	}
}

func TestSafeDivide(t *testing.T) {
	if q := SafeDivide(10, 0); q != nil {
		t.Errorf("expected nil for zero denominator, got %v", *q)
	}
	if q := SafeDivide(10, 4); q == nil || *q != 2.5 {
		t.Errorf("expected 2.5, got %v", q)
	}
}

func TestSafePct(t *testing.T) {
	if p := SafePct(1, 3, 1); p == nil || *p != 33.3 {
		t.Errorf("expected 33.3, got %v", p)
	}
	if p := SafePct(1, 3, 2); p == nil || *p != 33.33 {
		t.Errorf("expected 33.33, got %v", p)
	}
	if p := SafePct(5, 0, 1); p != nil {
		t.Errorf("expected nil for zero denominator, got %v", *p)
	}
}
