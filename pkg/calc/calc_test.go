package calc

import (
	"testing"
	"time"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name        string
		done, total int
		want        int
	}{
		{"total_zero", 10, 0, 0},
		{"zero_done", 0, 100, 0},
		{"half", 50, 100, 50},
		{"one_third", 1, 3, 33},
		{"two_thirds", 2, 3, 67},
		{"exact_100", 100, 100, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Progress(tc.done, tc.total); got != tc.want {
				t.Fatalf("Progress(%d, %d) = %d; want %d", tc.done, tc.total, got, tc.want)
			}
		})
	}
}

func TestETA(t *testing.T) {
	started := time.Now().Add(-10 * time.Second)

	// Half done in ten seconds means roughly ten more to go.
	got := ETA(50, 100, started)
	if got < 9*time.Second || got > 11*time.Second {
		t.Fatalf("ETA(50, 100) = %v; want about 10s", got)
	}

	if got := ETA(0, 100, started); got != 0 {
		t.Fatalf("ETA with nothing done = %v; want 0", got)
	}

	if got := ETA(10, 0, started); got != 0 {
		t.Fatalf("ETA with zero total = %v; want 0", got)
	}
}
