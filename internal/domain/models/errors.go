package models

import "errors"

// Evaluation failures. Callers wrap these with fmt.Errorf("...: %w") and
// classify with errors.Is or FailureKind.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrEmptyHistory        = errors.New("empty history")
	ErrOutOfRangeDate      = errors.New("date before minimum supported date")
	ErrUnknownCity         = errors.New("unknown city")
	ErrDateNotCovered      = errors.New("queried date not covered by inference result")
	ErrNotTriggered        = errors.New("plot has not been triggered")
	ErrStaleResult         = errors.New("result superseded by a newer submission")
)

var failureKinds = []struct {
	err  error
	kind string
}{
	{ErrUnknownCity, "unknown_city"},
	{ErrOutOfRangeDate, "out_of_range_date"},
	{ErrUpstreamUnavailable, "upstream_unavailable"},
	{ErrMalformedResponse, "malformed_response"},
	{ErrDateNotCovered, "date_not_covered"},
	{ErrEmptyHistory, "empty_history"},
	{ErrNotTriggered, "not_triggered"},
	{ErrStaleResult, "stale_result"},
}

// FailureKind maps an error to a stable snake_case kind for metrics and events.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return "internal"
}
