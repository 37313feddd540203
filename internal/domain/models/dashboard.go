package models

import "time"

// Submission is one press of the Plot control. Plotted carries the trigger
// state explicitly: false means the operator has not plotted yet.
type Submission struct {
	SessionID string
	Plotted   bool
	Query     Query
}

// PanelError is what the panel shows in place of a chart after a failure.
type PanelError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Panel is the per-session output area. Either Result or Error is set.
type Panel struct {
	SessionID  string      `json:"session_id"`
	Generation int64       `json:"generation"`
	Query      Query       `json:"query"`
	Result     *Result     `json:"result,omitempty"`
	Error      *PanelError `json:"error,omitempty"`
	RenderedAt time.Time   `json:"rendered_at"`
}

// Rendered reports whether the panel currently shows a chart.
func (p *Panel) Rendered() bool { return p != nil && p.Result != nil }

// EvaluationEvent is published once per completed, non-stale submission.
type EvaluationEvent struct {
	SessionID   string    `json:"session_id"`
	City        string    `json:"city"`
	Date        string    `json:"date"`
	PriceChange float64   `json:"price_change"`
	Verdict     Verdict   `json:"verdict,omitempty"`
	Outcome     string    `json:"outcome"` // rendered | failed
	FailureKind string    `json:"failure_kind,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	Points      int       `json:"points"`
	DurationMS  int64     `json:"duration_ms"`
	At          time.Time `json:"at"`
}
