package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ChiliPulse/internal/domain/models"
	domrepo "ChiliPulse/internal/domain/repository"
	domsvc "ChiliPulse/internal/domain/service"
	"ChiliPulse/pkg/config"
	applogger "ChiliPulse/pkg/logger"
	"ChiliPulse/pkg/util"
)

// Inference service endpoints.
const (
	EndpointNowcast      = "nowcasting_price"
	EndpointPastOutliers = "past_outlier_data"
)

// HTTPOutlierService talks to the deployed anomaly inference API.
type HTTPOutlierService struct {
	base *HTTPServiceBase
	l    *applogger.Logger
}

func NewHTTPOutlierService(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *HTTPOutlierService {
	if l == nil {
		l = applogger.Nop()
	}
	return &HTTPOutlierService{base: NewHTTPServiceBase(cfg, m), l: l}
}

// NowcastPrice calls GET /nowcasting_price/{city}/{date}/{priceChange}.
func (s *HTTPOutlierService) NowcastPrice(ctx context.Context, city string, date time.Time, priceChange float64) (models.Series, error) {
	pc := strconv.FormatFloat(priceChange, 'f', -1, 64)
	body, err := s.base.GetRaw(ctx, EndpointNowcast, city, util.FormatDate(date), pc)
	if err != nil {
		s.l.Warn("nowcast request failed",
			applogger.String("city", city),
			applogger.Date("date", date),
			applogger.Error(err),
		)
		return nil, err
	}
	series, err := DecodeFrame(body)
	if err != nil {
		s.l.Warn("nowcast response malformed", applogger.String("city", city), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", EndpointNowcast, err)
	}
	return series, nil
}

// PastOutliers calls GET /past_outlier_data/{city}.
func (s *HTTPOutlierService) PastOutliers(ctx context.Context, city string) (models.Series, error) {
	body, err := s.base.GetRaw(ctx, EndpointPastOutliers, city)
	if err != nil {
		s.l.Warn("history request failed", applogger.String("city", city), applogger.Error(err))
		return nil, err
	}
	series, err := DecodeFrame(body)
	if err != nil {
		s.l.Warn("history response malformed", applogger.String("city", city), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", EndpointPastOutliers, err)
	}
	s.l.Debug("history fetched", applogger.String("city", city), applogger.Int("rows", len(series)))
	return series, nil
}

// Ensure client implements domain interface
var _ domsvc.OutlierService = (*HTTPOutlierService)(nil)
