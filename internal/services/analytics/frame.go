package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/pkg/util"
)

// Column names of the labelled frame produced by the inference service.
const (
	colDS      = "ds"
	colYTrue   = "ytrue"
	colOutlier = "outlier"
)

type rawRow struct {
	ds, ytrue, outlier json.RawMessage
}

// DecodeFrame parses a labelled frame as the inference service emits it.
//
// The service returns pandas' DataFrame.to_json output, usually wrapped once
// more as a JSON string. Both the "columns" orient
// ({"ds":{"0":..},"ytrue":{..},"outlier":{..}}) and the "records" orient
// ([{"ds":..,"ytrue":..,"outlier":..}]) are accepted. ds may be epoch
// milliseconds or an ISO date/datetime string. Every failure wraps
// models.ErrMalformedResponse. Row order is preserved (index order for the
// columns orient).
func DecodeFrame(body []byte) (models.Series, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, malformed("empty body")
	}

	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, malformed("decode wrapped frame: %v", err)
		}
		body = bytes.TrimSpace([]byte(inner))
		if len(body) == 0 {
			return nil, malformed("empty wrapped frame")
		}
	}

	var (
		rows []rawRow
		err  error
	)
	switch body[0] {
	case '{':
		rows, err = columnsRows(body)
	case '[':
		rows, err = recordRows(body)
	default:
		return nil, malformed("unexpected frame start %q", body[0])
	}
	if err != nil {
		return nil, err
	}

	series := make(models.Series, 0, len(rows))
	for i, r := range rows {
		p, err := parseRow(r)
		if err != nil {
			return nil, malformed("row %d: %v", i, err)
		}
		series = append(series, p)
	}
	return series, nil
}

func columnsRows(body []byte) ([]rawRow, error) {
	var cols map[string]map[string]json.RawMessage
	if err := json.Unmarshal(body, &cols); err != nil {
		return nil, malformed("decode columns frame: %v", err)
	}
	ds, ok1 := cols[colDS]
	yt, ok2 := cols[colYTrue]
	ol, ok3 := cols[colOutlier]
	if !ok1 || !ok2 || !ok3 {
		return nil, malformed("frame must have %s, %s and %s columns", colDS, colYTrue, colOutlier)
	}
	if len(ds) != len(yt) || len(ds) != len(ol) {
		return nil, malformed("ragged columns: %d/%d/%d rows", len(ds), len(yt), len(ol))
	}

	idx := make([]string, 0, len(ds))
	for k := range ds {
		idx = append(idx, k)
	}
	sortIndex(idx)

	rows := make([]rawRow, 0, len(idx))
	for _, k := range idx {
		y, okY := yt[k]
		o, okO := ol[k]
		if !okY || !okO {
			return nil, malformed("index %q missing from a column", k)
		}
		rows = append(rows, rawRow{ds: ds[k], ytrue: y, outlier: o})
	}
	return rows, nil
}

// sortIndex orders pandas index keys numerically when they are integers.
func sortIndex(idx []string) {
	sort.Slice(idx, func(i, j int) bool {
		a, errA := strconv.ParseInt(idx[i], 10, 64)
		b, errB := strconv.ParseInt(idx[j], 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return idx[i] < idx[j]
	})
}

func recordRows(body []byte) ([]rawRow, error) {
	var recs []map[string]json.RawMessage
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, malformed("decode records frame: %v", err)
	}
	rows := make([]rawRow, 0, len(recs))
	for i, r := range recs {
		ds, ok1 := r[colDS]
		yt, ok2 := r[colYTrue]
		ol, ok3 := r[colOutlier]
		if !ok1 || !ok2 || !ok3 {
			return nil, malformed("record %d must have %s, %s and %s", i, colDS, colYTrue, colOutlier)
		}
		rows = append(rows, rawRow{ds: ds, ytrue: yt, outlier: ol})
	}
	return rows, nil
}

func parseRow(r rawRow) (models.TimePoint, error) {
	var p models.TimePoint

	ts, err := parseDS(r.ds)
	if err != nil {
		return p, err
	}
	p.Timestamp = ts

	var y *float64
	if err := json.Unmarshal(r.ytrue, &y); err != nil || y == nil {
		return p, fmt.Errorf("%s must be a number, got %s", colYTrue, string(r.ytrue))
	}
	p.Value = *y

	var label string
	if err := json.Unmarshal(r.outlier, &label); err != nil {
		return p, fmt.Errorf("%s must be a string, got %s", colOutlier, string(r.outlier))
	}
	p.Label = models.Label(strings.ToLower(strings.TrimSpace(label)))
	if !p.Label.Valid() {
		return p, fmt.Errorf("unknown %s label %q", colOutlier, label)
	}
	return p, nil
}

func parseDS(raw json.RawMessage) (ts time.Time, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ts, fmt.Errorf("%s is missing", colDS)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ts, fmt.Errorf("%s: %v", colDS, err)
		}
		t, ok := util.ParseTime(strings.TrimSpace(s))
		if !ok {
			return ts, fmt.Errorf("%s: unrecognised date %q", colDS, s)
		}
		return util.Day(t), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ts, fmt.Errorf("%s must be a date string or epoch millis, got %s", colDS, string(raw))
	}
	ms, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return ts, fmt.Errorf("%s: %v", colDS, ferr)
		}
		ms = int64(f)
	}
	return util.Day(util.FromEpochMillis(ms)), nil
}

func malformed(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedResponse, fmt.Sprintf(format, a...))
}
