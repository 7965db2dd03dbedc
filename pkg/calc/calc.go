package calc

import (
	"math"
	"time"
)

// Progress calculates the percentage for a given pair of numbers.
func Progress(done, total int) int {
	if total > 0 {
		return int(math.Round(float64(done) / float64(total) * 100))
	}
	return 0
}

// ETA calculates the estimated time of arrival.
func ETA(done, total int, started time.Time) time.Duration {
	if total > 0 && done > 0 {
		done := float64(done)
		total := float64(total)
		elapsed := time.Since(started)
		eta := time.Duration(float64(elapsed) * (total/done - 1))
		return eta
	}
	return 0
}
