package analytics

import (
	"errors"
	"testing"
	"time"

	"ChiliPulse/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDecodeFrameWrappedColumnsEpochMillis(t *testing.T) {
	// pandas to_json() output, returned by the API as a JSON string
	body := []byte(`"{\"ds\":{\"0\":1705276800000},\"ytrue\":{\"0\":500.0},\"outlier\":{\"0\":\"outlier\"}}"`)

	got, err := DecodeFrame(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	p := got[0]
	if !p.Timestamp.Equal(day(2024, 1, 15)) || p.Value != 500 || p.Label != models.LabelOutlier {
		t.Fatalf("unexpected point %+v", p)
	}
}

func TestDecodeFrameColumnsOrdersByNumericIndex(t *testing.T) {
	body := []byte(`{
		"ds": {"10": "2024-01-12", "2": "2024-01-10", "1": "2024-01-11"},
		"ytrue": {"10": 3, "2": 2, "1": 1},
		"outlier": {"10": "normal", "2": "normal", "1": "outlier"}
	}`)

	got, err := DecodeFrame(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, p := range got {
		if p.Value != want[i] {
			t.Fatalf("row %d: expected value %v, got %v", i, want[i], p.Value)
		}
	}
	if got[0].Label != models.LabelOutlier {
		t.Fatalf("expected first row to be the outlier, got %+v", got[0])
	}
}

func TestDecodeFrameRecordsISODatetime(t *testing.T) {
	body := []byte(`[
		{"ds": "2024-01-14T00:00:00.000", "ytrue": -12.5, "outlier": "normal"},
		{"ds": "2024-01-15T00:00:00Z", "ytrue": 40, "outlier": "Outlier"}
	]`)

	got, err := DecodeFrame(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(day(2024, 1, 14)) || got[0].Value != -12.5 {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if got[1].Label != models.LabelOutlier {
		t.Fatalf("expected label normalised to outlier, got %q", got[1].Label)
	}
}

func TestDecodeFrameEmptyFrames(t *testing.T) {
	for _, body := range []string{`[]`, `"[]"`, `{"ds":{},"ytrue":{},"outlier":{}}`} {
		got, err := DecodeFrame([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if len(got) != 0 {
			t.Fatalf("%s: expected no rows, got %d", body, len(got))
		}
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"not json":       `<html>oops</html>`,
		"bad wrapper":    `"{not json"`,
		"scalar":         `42`,
		"missing column": `{"ds":{"0":"2024-01-15"},"ytrue":{"0":1}}`,
		"ragged":         `{"ds":{"0":"2024-01-15","1":"2024-01-16"},"ytrue":{"0":1},"outlier":{"0":"normal"}}`,
		"null ytrue":     `[{"ds":"2024-01-15","ytrue":null,"outlier":"normal"}]`,
		"string ytrue":   `[{"ds":"2024-01-15","ytrue":"500","outlier":"normal"}]`,
		"bad label":      `[{"ds":"2024-01-15","ytrue":1,"outlier":"weird"}]`,
		"bad date":       `[{"ds":"15/01/2024","ytrue":1,"outlier":"normal"}]`,
		"null date":      `[{"ds":null,"ytrue":1,"outlier":"normal"}]`,
		"record missing": `[{"ds":"2024-01-15","ytrue":1}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(body))
			if !errors.Is(err, models.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}
