package service

import (
	"context"
	"time"

	"ChiliPulse/internal/domain/models"
)

// OutlierService is the remote inference service. Both calls return the
// labelled rows exactly as the service sent them (unsorted, possibly with
// duplicate days).
type OutlierService interface {
	// NowcastPrice labels a single observed price change for city on date.
	NowcastPrice(ctx context.Context, city string, date time.Time, priceChange float64) (models.Series, error)
	// PastOutliers returns the precomputed historic labels for city.
	PastOutliers(ctx context.Context, city string) (models.Series, error)
}
