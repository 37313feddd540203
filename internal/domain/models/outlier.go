package models

import (
	"strconv"
	"time"
)

// Label is the upstream detector's classification of one observation.
type Label string

const (
	LabelOutlier Label = "outlier"
	LabelNormal  Label = "normal"
)

// Valid reports whether l is one of the labels the detector emits.
func (l Label) Valid() bool {
	return l == LabelOutlier || l == LabelNormal
}

// TimePoint is one labelled price-change observation for a city.
// Timestamp is a calendar day at UTC midnight.
type TimePoint struct {
	Timestamp time.Time `json:"ds"`
	Value     float64   `json:"ytrue"`
	Label     Label     `json:"outlier"`
}

// IsOutlier reports whether the point was flagged as anomalous.
func (p TimePoint) IsOutlier() bool { return p.Label == LabelOutlier }

// Series is a chronologically ordered run of points, unique by day once merged.
type Series []TimePoint

// Outliers returns the subset of points labelled as outliers, order preserved.
func (s Series) Outliers() Series {
	out := make(Series, 0)
	for _, p := range s {
		if p.IsOutlier() {
			out = append(out, p)
		}
	}
	return out
}

// Cities is the fixed set of cities the inference service has models for.
var Cities = []string{
	"balikpapan",
	"bandung",
	"batam",
	"jakarta",
	"makassar",
	"medan",
	"palembang",
	"pekanbaru",
	"surabaya",
	"yogyakarta",
}

// DefaultCity is preselected on the dashboard.
const DefaultCity = "balikpapan"

// MinDate is the earliest date the models cover.
var MinDate = time.Date(2020, time.November, 19, 0, 0, 0, 0, time.UTC)

// IsKnownCity reports whether city is in Cities.
func IsKnownCity(city string) bool {
	for _, c := range Cities {
		if c == city {
			return true
		}
	}
	return false
}

// Query is one operator submission: city, day of interest and observed price change.
type Query struct {
	City        string    `json:"city"`
	Date        time.Time `json:"date"`
	PriceChange float64   `json:"price_change"`
}

// PriceChangeText renders the price change in its shortest decimal form (500, 12.5).
func (q Query) PriceChangeText() string {
	return strconv.FormatFloat(q.PriceChange, 'f', -1, 64)
}

// DateText renders the query day as YYYY-MM-DD.
func (q Query) DateText() string {
	return q.Date.UTC().Format("2006-01-02")
}

// Verdict is the human readable classification of the queried day.
type Verdict string

const (
	VerdictAnomaly Verdict = "anomaly"
	VerdictNormal  Verdict = "normal"
)

// VerdictFor derives the verdict from the exact-date point's label.
func VerdictFor(p TimePoint) Verdict {
	if p.IsOutlier() {
		return VerdictAnomaly
	}
	return VerdictNormal
}

// Warning describes a degraded render: the chart is still produced.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarnEmptyHistory is attached when the city has no historic rows.
const WarnEmptyHistory = "EMPTY_HISTORY"

// Result is the rendered outcome of one evaluation.
type Result struct {
	Query     Query     `json:"query"`
	ExactDate TimePoint `json:"exact_date"`
	Series    Series    `json:"series"`
	Chart     ChartSpec `json:"chart"`
	Verdict   Verdict   `json:"verdict"`
	Message   string    `json:"message"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// HasWarning reports whether a warning with code is attached.
func (r *Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
