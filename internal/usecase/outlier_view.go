package usecase

import (
	"context"
	"fmt"
	"time"

	"ChiliPulse/internal/domain/models"
	domrepo "ChiliPulse/internal/domain/repository"
	domsvc "ChiliPulse/internal/domain/service"
	applogger "ChiliPulse/pkg/logger"
	"ChiliPulse/pkg/util"

	"golang.org/x/sync/errgroup"
)

// Evaluator turns a query into a rendered result.
type Evaluator interface {
	Evaluate(ctx context.Context, q models.Query) (*models.Result, error)
}

// OutlierView fetches the exact-date inference and the city's history, merges
// them and renders the annotated chart plus verdict. It holds no state between
// evaluations.
type OutlierView struct {
	svc     domsvc.OutlierService
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewOutlierView(svc domsvc.OutlierService, metrics domrepo.Metrics, l *applogger.Logger) *OutlierView {
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &OutlierView{svc: svc, metrics: metrics, l: l}
}

// ValidateQuery rejects queries that must never reach the inference service.
func ValidateQuery(q models.Query) error {
	if !models.IsKnownCity(q.City) {
		return fmt.Errorf("%w: %q", models.ErrUnknownCity, q.City)
	}
	if util.Day(q.Date).Before(models.MinDate) {
		return fmt.Errorf("%w: %s is before %s", models.ErrOutOfRangeDate, util.FormatDate(q.Date), util.FormatDate(models.MinDate))
	}
	return nil
}

// Evaluate runs one full evaluation. Both upstream calls are issued
// concurrently and must both succeed; nothing is rendered from a partial fetch.
func (v *OutlierView) Evaluate(ctx context.Context, q models.Query) (*models.Result, error) {
	q.Date = util.Day(q.Date)
	if err := ValidateQuery(q); err != nil {
		v.metrics.RecordFailure(models.FailureKind(err))
		return nil, err
	}

	start := time.Now()
	var exact, history models.Series
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := v.svc.NowcastPrice(gctx, q.City, q.Date, q.PriceChange)
		exact = s
		return err
	})
	g.Go(func() error {
		s, err := v.svc.PastOutliers(gctx, q.City)
		history = s
		return err
	})
	if err := g.Wait(); err != nil {
		v.fail(q, err)
		return nil, err
	}

	point, err := ExactDatePoint(exact, q.Date)
	if err != nil {
		v.fail(q, err)
		return nil, err
	}

	res := Render(q, point, history)
	for _, w := range res.Warnings {
		v.metrics.RecordWarning(w.Code)
	}
	v.metrics.RecordEvaluation(q.City, string(res.Verdict), len(res.Series))
	v.l.Info("outlier evaluated",
		applogger.String("city", q.City),
		applogger.Date("date", q.Date),
		applogger.Float64("price_change", q.PriceChange),
		applogger.String("verdict", string(res.Verdict)),
		applogger.Int("points", len(res.Series)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

func (v *OutlierView) fail(q models.Query, err error) {
	kind := models.FailureKind(err)
	v.metrics.RecordFailure(kind)
	v.l.Error("outlier evaluation failed",
		applogger.String("city", q.City),
		applogger.Date("date", q.Date),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
}

// ExactDatePoint picks the row for the queried day out of the nowcast answer.
func ExactDatePoint(exact models.Series, date time.Time) (models.TimePoint, error) {
	for _, p := range exact {
		if util.SameDay(p.Timestamp, date) {
			p.Timestamp = util.Day(p.Timestamp)
			return p, nil
		}
	}
	return models.TimePoint{}, fmt.Errorf("%w: %d row(s), none for %s", models.ErrDateNotCovered, len(exact), util.FormatDate(date))
}

// Render builds the result from already fetched data. It is pure: the same
// inputs always give the same result.
func Render(q models.Query, exact models.TimePoint, history models.Series) *models.Result {
	q.Date = util.Day(q.Date)
	series := MergeSeries(exact, history)
	verdict := models.VerdictFor(exact)

	res := &models.Result{
		Query:     q,
		ExactDate: exact,
		Series:    series,
		Chart:     BuildChart(q, series),
		Verdict:   verdict,
		Message:   VerdictMessage(q, verdict),
	}
	if len(history) == 0 {
		res.Warnings = append(res.Warnings, models.Warning{
			Code:    models.WarnEmptyHistory,
			Message: fmt.Sprintf("%s: no historic data for %s, showing the queried date only", models.ErrEmptyHistory, q.City),
		})
	}
	return res
}

// VerdictMessage is the line shown under the chart.
func VerdictMessage(q models.Query, verdict models.Verdict) string {
	return fmt.Sprintf("Price change of %s on %s in %s is at %s level.", q.PriceChangeText(), q.DateText(), q.City, verdict)
}
