package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ChiliPulse/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeOutlierService struct {
	mu         sync.Mutex
	exact      models.Series
	history    models.Series
	exactErr   error
	historyErr error
	calls      int
}

func (f *fakeOutlierService) NowcastPrice(_ context.Context, _ string, _ time.Time, _ float64) (models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.exact, f.exactErr
}

func (f *fakeOutlierService) PastOutliers(_ context.Context, _ string) (models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.history, f.historyErr
}

func (f *fakeOutlierService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func normalHistory(n int, before time.Time) models.Series {
	s := make(models.Series, 0, n)
	for i := n; i >= 1; i-- {
		s = append(s, models.TimePoint{Timestamp: before.AddDate(0, 0, -i), Value: float64(i), Label: models.LabelNormal})
	}
	return s
}

func TestEvaluateJakartaAnomaly(t *testing.T) {
	date := day(2024, time.January, 15)
	svc := &fakeOutlierService{
		exact:   models.Series{{Timestamp: date, Value: 500, Label: models.LabelOutlier}},
		history: normalHistory(30, date),
	}
	v := NewOutlierView(svc, nil, nil)

	res, err := v.Evaluate(context.Background(), models.Query{City: "jakarta", Date: date, PriceChange: 500})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Verdict != models.VerdictAnomaly {
		t.Fatalf("expected anomaly verdict, got %s", res.Verdict)
	}
	markers, ok := res.Chart.Trace("markers")
	if !ok {
		t.Fatalf("marker trace missing")
	}
	if len(markers.X) != 1 || markers.X[0] != "2024-01-15" || markers.Y[0] != 500 {
		t.Fatalf("unexpected markers %+v", markers)
	}
	want := "Price change of 500 on 2024-01-15 in jakarta is at anomaly level."
	if res.Message != want {
		t.Fatalf("message = %q, want %q", res.Message, want)
	}
	if len(res.Series) != 31 {
		t.Fatalf("expected 31 points, got %d", len(res.Series))
	}
	if res.HasWarning(models.WarnEmptyHistory) {
		t.Fatalf("unexpected empty history warning")
	}
}

func TestEvaluateEmptyHistory(t *testing.T) {
	date := day(2023, time.March, 2)
	svc := &fakeOutlierService{
		exact: models.Series{{Timestamp: date, Value: 12.5, Label: models.LabelNormal}},
	}
	v := NewOutlierView(svc, nil, nil)

	res, err := v.Evaluate(context.Background(), models.Query{City: "medan", Date: date, PriceChange: 12.5})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasWarning(models.WarnEmptyHistory) {
		t.Fatalf("expected %s warning, got %+v", models.WarnEmptyHistory, res.Warnings)
	}
	if len(res.Series) != 1 || !res.Series[0].Timestamp.Equal(date) {
		t.Fatalf("expected only the exact point, got %+v", res.Series)
	}
	line, _ := res.Chart.Trace("lines")
	if len(line.X) != 1 {
		t.Fatalf("expected a one point line, got %+v", line)
	}
	if res.Message != "Price change of 12.5 on 2023-03-02 in medan is at normal level." {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestEvaluateUpstreamFailure(t *testing.T) {
	date := day(2023, time.March, 2)
	svc := &fakeOutlierService{
		exactErr: fmt.Errorf("%w: status 500", models.ErrUpstreamUnavailable),
		history:  normalHistory(3, date),
	}
	v := NewOutlierView(svc, nil, nil)

	res, err := v.Evaluate(context.Background(), models.Query{City: "bandung", Date: date, PriceChange: 1})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if res != nil {
		t.Fatalf("no result expected on failure")
	}
}

func TestEvaluateValidatesBeforeFetching(t *testing.T) {
	cases := []struct {
		name string
		q    models.Query
		want error
	}{
		{"before min date", models.Query{City: "jakarta", Date: models.MinDate.AddDate(0, 0, -1)}, models.ErrOutOfRangeDate},
		{"unknown city", models.Query{City: "bogor", Date: day(2023, time.January, 1)}, models.ErrUnknownCity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeOutlierService{}
			_, err := NewOutlierView(svc, nil, nil).Evaluate(context.Background(), tc.q)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if svc.callCount() != 0 {
				t.Fatalf("upstream must not be called, got %d calls", svc.callCount())
			}
		})
	}
}

func TestEvaluateAcceptsMinDate(t *testing.T) {
	svc := &fakeOutlierService{
		exact: models.Series{{Timestamp: models.MinDate, Value: 3, Label: models.LabelNormal}},
	}
	res, err := NewOutlierView(svc, nil, nil).Evaluate(context.Background(), models.Query{City: "batam", Date: models.MinDate, PriceChange: 3})
	if err != nil {
		t.Fatalf("min date must be accepted: %v", err)
	}
	if res.Query.DateText() != "2020-11-19" {
		t.Fatalf("unexpected date %s", res.Query.DateText())
	}
}

func TestEvaluateRequiresExactDateRow(t *testing.T) {
	date := day(2023, time.May, 5)
	svc := &fakeOutlierService{
		exact: models.Series{{Timestamp: date.AddDate(0, 0, -1), Value: 1, Label: models.LabelNormal}},
	}
	_, err := NewOutlierView(svc, nil, nil).Evaluate(context.Background(), models.Query{City: "batam", Date: date})
	if !errors.Is(err, models.ErrDateNotCovered) {
		t.Fatalf("expected date not covered, got %v", err)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	date := day(2024, time.January, 15)
	q := models.Query{City: "jakarta", Date: date, PriceChange: 500}
	exact := models.TimePoint{Timestamp: date, Value: 500, Label: models.LabelOutlier}
	history := normalHistory(5, date)

	a := Render(q, exact, history)
	b := Render(q, exact, history)
	if a.Message != b.Message || len(a.Series) != len(b.Series) {
		t.Fatalf("render differs between runs")
	}
	for i := range a.Series {
		if a.Series[i] != b.Series[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a.Series[i], b.Series[i])
		}
	}
}
