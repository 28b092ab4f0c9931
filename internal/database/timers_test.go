package database

import (
	"testing"
	"time"
)

// Transactional behavior of StartSession/StopSession is covered by
// integration tests against a real database; the rounding rule is pure and
// tested here.
func TestRoundMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{name: "exact minutes", d: 5 * time.Minute, want: 5},
		{name: "rounds down below half", d: 5*time.Minute + 29*time.Second, want: 5},
		{name: "rounds up at half", d: 5*time.Minute + 30*time.Second, want: 6},
		{name: "under thirty seconds is zero", d: 29 * time.Second, want: 0},
		{name: "thirty seconds rounds to one", d: 30 * time.Second, want: 1},
		{name: "zero", d: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := roundMinutes(tt.d); got != tt.want {
				t.Errorf("roundMinutes(%v) = %d, want %d", tt.d, got, tt.want)
			}
		})
	}
}
