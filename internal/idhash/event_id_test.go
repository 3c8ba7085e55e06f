package idhash

import "testing"

func TestComputeEventID_Deterministic(t *testing.T) {
	a := ComputeEventID("chess_blitz", "hikaru", 1700000000000, 3)
	b := ComputeEventID("chess_blitz", "hikaru", 1700000000000, 3)
	if a != b {
		t.Errorf("same inputs must hash identically: %s vs %s", a, b)
	}
	if a == "" {
		t.Error("expected non-empty id")
	}
}

func TestComputeEventID_DistinguishesFields(t *testing.T) {
	base := ComputeEventID("s", "e", 1000, 0)
	variants := []string{
		ComputeEventID("s2", "e", 1000, 0),
		ComputeEventID("s", "e2", 1000, 0),
		ComputeEventID("s", "e", 1001, 0),
		ComputeEventID("s", "e", 1000, 1),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}

func TestComputeRunID_Deterministic(t *testing.T) {
	a := ComputeRunID("weather", "berlin", "gloomy", 1700000000000)
	b := ComputeRunID("weather", "berlin", "gloomy", 1700000000000)
	if a != b {
		t.Errorf("same inputs must hash identically: %s vs %s", a, b)
	}
	if a == ComputeRunID("weather", "berlin", "clear", 1700000000000) {
		t.Error("different categories must not collide")
	}
}
