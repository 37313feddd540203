package usecase

import (
	"sort"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/pkg/util"
)

// MergeSeries combines the exact-date point with the historic rows into one
// series sorted strictly ascending by day.
//
// Days are unique in the output: the exact-date point wins over a historic row
// on the same day, and among historic duplicates the first one received wins.
func MergeSeries(exact models.TimePoint, history models.Series) models.Series {
	merged := make(models.Series, 0, len(history)+1)
	exact.Timestamp = util.Day(exact.Timestamp)
	merged = append(merged, exact)
	for _, p := range history {
		p.Timestamp = util.Day(p.Timestamp)
		merged = append(merged, p)
	}

	// stable: same-day rows keep arrival order, exact point first
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	out := merged[:0]
	for _, p := range merged {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(p.Timestamp) {
			continue
		}
		out = append(out, p)
	}
	return out
}
