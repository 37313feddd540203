package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/internal/service/ratelimit"
	"ChiliPulse/internal/usecase"
	"ChiliPulse/pkg/cache"

	"github.com/labstack/echo/v4"
)

type fakeUpstream struct {
	err error
}

func (f *fakeUpstream) NowcastPrice(_ context.Context, _ string, date time.Time, pc float64) (models.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	return models.Series{{Timestamp: date, Value: pc, Label: models.LabelOutlier}}, nil
}

func (f *fakeUpstream) PastOutliers(_ context.Context, _ string) (models.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return models.Series{
		{Timestamp: base, Value: 10, Label: models.LabelNormal},
		{Timestamp: base.AddDate(0, 0, 1), Value: 12, Label: models.LabelNormal},
	}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appErrorBody struct {
	Code  string `json:"code"`
	Field string `json:"field"`
}

func newTestServer(t *testing.T, up *fakeUpstream, rl *ratelimit.Limiter) *echo.Echo {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })

	view := usecase.NewOutlierView(up, nil, nil)
	dash := usecase.NewDashboard(view, store, nil, nil, nil, time.Minute)
	if rl == nil {
		rl = ratelimit.New(1000, 1000)
	}
	e := echo.New()
	NewOutlierEchoHandler(nil, dash, rl).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
	return env
}

func TestCities(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	rec := do(e, http.MethodGet, "/api/cities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got models.CitiesResponse
	decode(t, rec, &got)
	if len(got.Cities) != 10 || got.DefaultCity != "balikpapan" || got.MinDate != "2020-11-19" {
		t.Fatalf("unexpected cities response %+v", got)
	}
}

func TestIndexServesDashboard(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	rec := do(e, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/ws/outlier") {
		t.Fatalf("unexpected index response %d", rec.Code)
	}
}

func TestEvaluateNotTriggered(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	rec := do(e, http.MethodPost, "/api/outlier/evaluate", `{"city":"jakarta","date":"2024-01-15","price_change":500}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(SessionHeader) == "" {
		t.Fatalf("session header missing")
	}
}

func TestEvaluateAndReadPanel(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	rec := do(e, http.MethodPost, "/api/outlier/evaluate",
		`{"session_id":"s-1","plotted":true,"city":"jakarta","date":"2024-01-15","price_change":500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var panel models.Panel
	decode(t, rec, &panel)
	if panel.Result == nil {
		t.Fatalf("expected a rendered panel")
	}
	want := "Price change of 500 on 2024-01-15 in jakarta is at anomaly level."
	if panel.Result.Message != want {
		t.Fatalf("message = %q", panel.Result.Message)
	}

	rec = do(e, http.MethodGet, "/api/outlier/panel?session_id=s-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("panel status %d: %s", rec.Code, rec.Body.String())
	}
	var current models.Panel
	decode(t, rec, &current)
	if current.Generation != panel.Generation || current.Result == nil {
		t.Fatalf("unexpected current panel %+v", current)
	}
}

func TestEvaluateErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		up     *fakeUpstream
		body   string
		status int
		code   string
	}{
		{
			name:   "before min date",
			up:     &fakeUpstream{},
			body:   `{"plotted":true,"city":"jakarta","date":"2020-11-18"}`,
			status: http.StatusBadRequest,
			code:   "ERR_OUT_OF_RANGE_DATE",
		},
		{
			name:   "unknown city",
			up:     &fakeUpstream{},
			body:   `{"plotted":true,"city":"bogor","date":"2023-01-01"}`,
			status: http.StatusBadRequest,
			code:   "ERR_ONEOF",
		},
		{
			name:   "bad date",
			up:     &fakeUpstream{},
			body:   `{"plotted":true,"city":"jakarta","date":"15/01/2024"}`,
			status: http.StatusBadRequest,
			code:   "ERR_DATETIME",
		},
		{
			name:   "upstream down",
			up:     &fakeUpstream{err: fmt.Errorf("%w: status 500", models.ErrUpstreamUnavailable)},
			body:   `{"plotted":true,"city":"jakarta","date":"2024-01-15"}`,
			status: http.StatusBadGateway,
			code:   "ERR_UPSTREAM_UNAVAILABLE",
		},
		{
			name:   "malformed upstream",
			up:     &fakeUpstream{err: fmt.Errorf("%w: not a frame", models.ErrMalformedResponse)},
			body:   `{"plotted":true,"city":"jakarta","date":"2024-01-15"}`,
			status: http.StatusBadGateway,
			code:   "ERR_MALFORMED_RESPONSE",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestServer(t, tc.up, nil)
			rec := do(e, http.MethodPost, "/api/outlier/evaluate", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var errs []appErrorBody
			decode(t, rec, &errs)
			if len(errs) == 0 || errs[0].Code != tc.code {
				t.Fatalf("expected code %s, got %+v", tc.code, errs)
			}
		})
	}
}

func TestEvaluateDefaultsCity(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	rec := do(e, http.MethodPost, "/api/outlier/evaluate", `{"plotted":true,"date":"2024-01-15","price_change":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var panel models.Panel
	decode(t, rec, &panel)
	if panel.Query.City != models.DefaultCity {
		t.Fatalf("expected default city, got %q", panel.Query.City)
	}
}

func TestPanelMissing(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, nil)
	if rec := do(e, http.MethodGet, "/api/outlier/panel?session_id=nobody", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/outlier/panel", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session_id, got %d", rec.Code)
	}
}

func TestEvaluateRateLimited(t *testing.T) {
	e := newTestServer(t, &fakeUpstream{}, ratelimit.New(0.001, 1))
	body := `{"plotted":true,"city":"jakarta","date":"2024-01-15"}`
	if rec := do(e, http.MethodPost, "/api/outlier/evaluate", body); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/outlier/evaluate", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
