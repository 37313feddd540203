package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ChiliPulse/internal/domain/models"
	domrepo "ChiliPulse/internal/domain/repository"
	"ChiliPulse/pkg/cache"
	applogger "ChiliPulse/pkg/logger"
)

// ErrNoPanel is returned by Current when the session has not rendered anything yet.
var ErrNoPanel = errors.New("no panel for session")

const (
	generationPrefix = "outlier:gen"
	panelPrefix      = "outlier:panel"
)

type flight struct {
	gen    int64
	cancel context.CancelFunc
}

// Dashboard owns the per-session output panel. Every submission takes a new
// generation number; only the latest generation may write the panel, so a slow
// answer to an older submission can never overwrite a newer one.
type Dashboard struct {
	view    Evaluator
	store   cache.Service
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	l       *applogger.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]flight
}

func NewDashboard(view Evaluator, store cache.Service, events domrepo.EventPublisher, metrics domrepo.Metrics, l *applogger.Logger, ttl time.Duration) *Dashboard {
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Dashboard{
		view:     view,
		store:    store,
		events:   events,
		metrics:  metrics,
		l:        l,
		ttl:      ttl,
		now:      time.Now,
		inflight: make(map[string]flight),
	}
}

// Submit evaluates one submission and, unless a newer submission for the same
// session arrived meanwhile, stores the outcome as the session's panel.
//
// A failed evaluation still replaces the panel: the prior chart is cleared and
// the panel carries the error. The returned error is the evaluation error, or
// ErrStaleResult when the outcome was discarded.
func (d *Dashboard) Submit(ctx context.Context, sub models.Submission) (*models.Panel, error) {
	if !sub.Plotted {
		return nil, models.ErrNotTriggered
	}
	if sub.SessionID == "" {
		return nil, errors.New("submit: session id is required")
	}

	genKey := cache.GenerateKey(generationPrefix, sub.SessionID)
	gen, err := d.store.Increment(ctx, genKey)
	if err != nil {
		return nil, fmt.Errorf("submit: next generation: %w", err)
	}
	if _, err := d.store.Expire(ctx, genKey, d.ttl); err != nil {
		d.l.Warn("failed to refresh generation ttl", applogger.String("session_id", sub.SessionID), applogger.Error(err))
	}

	evalCtx, cancel := context.WithCancel(ctx)
	d.track(sub.SessionID, gen, cancel)
	defer d.untrack(sub.SessionID, gen)

	start := time.Now()
	res, evalErr := d.view.Evaluate(evalCtx, sub.Query)
	took := time.Since(start)

	panel := &models.Panel{
		SessionID:  sub.SessionID,
		Generation: gen,
		Query:      sub.Query,
		RenderedAt: d.now().UTC(),
	}
	if evalErr != nil {
		panel.Error = &models.PanelError{Kind: models.FailureKind(evalErr), Message: evalErr.Error()}
	} else {
		panel.Result = res
		panel.Query = res.Query
	}

	// request may be gone by now; the panel is still owed to the session
	storeCtx := context.WithoutCancel(ctx)
	if err := d.commit(storeCtx, panel); err != nil {
		if errors.Is(err, models.ErrStaleResult) {
			d.metrics.RecordStaleDiscard()
			d.l.Debug("discarding stale outlier result",
				applogger.String("session_id", sub.SessionID),
				applogger.Int64("generation", gen),
			)
		}
		return nil, err
	}

	d.publish(storeCtx, panel, took)
	return panel, evalErr
}

// Current returns the session's latest panel.
func (d *Dashboard) Current(ctx context.Context, sessionID string) (*models.Panel, error) {
	var panel models.Panel
	if err := d.store.Get(ctx, cache.GenerateKey(panelPrefix, sessionID), &panel); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoPanel
		}
		return nil, fmt.Errorf("load panel: %w", err)
	}
	return &panel, nil
}

// Latest reports the newest generation issued for a session, 0 if none.
func (d *Dashboard) Latest(ctx context.Context, sessionID string) (int64, error) {
	var gen int64
	if err := d.store.Get(ctx, cache.GenerateKey(generationPrefix, sessionID), &gen); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

// commit writes panel if its generation is still the latest one.
func (d *Dashboard) commit(ctx context.Context, panel *models.Panel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	latest, err := d.Latest(ctx, panel.SessionID)
	if err != nil {
		return fmt.Errorf("commit panel: %w", err)
	}
	if latest != panel.Generation {
		return fmt.Errorf("%w: generation %d superseded by %d", models.ErrStaleResult, panel.Generation, latest)
	}
	if err := d.store.Set(ctx, cache.GenerateKey(panelPrefix, panel.SessionID), panel, d.ttl); err != nil {
		return fmt.Errorf("commit panel: %w", err)
	}
	return nil
}

// track cancels the session's previous in-flight evaluation and records gen.
func (d *Dashboard) track(sessionID string, gen int64, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.inflight[sessionID]; ok {
		if prev.gen > gen {
			cancel()
			return
		}
		prev.cancel()
	}
	d.inflight[sessionID] = flight{gen: gen, cancel: cancel}
}

func (d *Dashboard) untrack(sessionID string, gen int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.inflight[sessionID]; ok && f.gen == gen {
		f.cancel()
		delete(d.inflight, sessionID)
	}
}

func (d *Dashboard) publish(ctx context.Context, panel *models.Panel, took time.Duration) {
	if d.events == nil {
		return
	}
	ev := models.EvaluationEvent{
		SessionID:   panel.SessionID,
		City:        panel.Query.City,
		Date:        panel.Query.DateText(),
		PriceChange: panel.Query.PriceChange,
		Outcome:     "rendered",
		DurationMS:  took.Milliseconds(),
		At:          panel.RenderedAt,
	}
	if panel.Result != nil {
		ev.Verdict = panel.Result.Verdict
		ev.Points = len(panel.Result.Series)
		for _, w := range panel.Result.Warnings {
			ev.Warnings = append(ev.Warnings, w.Code)
		}
	} else if panel.Error != nil {
		ev.Outcome = "failed"
		ev.FailureKind = panel.Error.Kind
	}
	if err := d.events.PublishEvaluation(ctx, ev); err != nil {
		d.l.Warn("failed to publish evaluation event",
			applogger.String("session_id", panel.SessionID),
			applogger.Error(err),
		)
	}
}
