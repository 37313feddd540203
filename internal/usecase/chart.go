package usecase

import (
	"fmt"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/pkg/util"
)

const (
	ChartWidth  = 1000
	ChartHeight = 500

	markerName     = "anomaly"
	indicatorColor = "green"
	indicatorWidth = 3
	indicatorDash  = "dash"
)

// BuildChart renders series as a line trace named after the city, overlays the
// outlier points as markers and marks the queried day with a dashed vertical line.
func BuildChart(q models.Query, series models.Series) models.ChartSpec {
	line := models.Trace{
		Type: "scatter",
		Mode: "lines",
		Name: q.City,
		X:    make([]string, 0, len(series)),
		Y:    make([]float64, 0, len(series)),
	}
	markers := models.Trace{
		Type: "scatter",
		Mode: "markers",
		Name: markerName,
		X:    make([]string, 0),
		Y:    make([]float64, 0),
	}
	for _, p := range series {
		line.X = append(line.X, util.FormatDate(p.Timestamp))
		line.Y = append(line.Y, p.Value)
	}
	for _, p := range series.Outliers() {
		markers.X = append(markers.X, util.FormatDate(p.Timestamp))
		markers.Y = append(markers.Y, p.Value)
	}

	at := q.DateText()
	return models.ChartSpec{
		Data: []models.Trace{line, markers},
		Layout: models.Layout{
			Title:  models.Title{Text: fmt.Sprintf("Red chili price anomaly detection in %s", q.City)},
			Width:  ChartWidth,
			Height: ChartHeight,
			Margin: models.Margin{L: 0, R: 0, B: 0, T: 40},
			XAxis: models.Axis{
				Type:        "date",
				RangeSlider: models.RangeSlider{Visible: true},
			},
			Shapes: []models.Shape{{
				Type: "line",
				XRef: "x",
				YRef: "paper",
				X0:   at,
				X1:   at,
				Y0:   0,
				Y1:   1,
				Line: models.ShapeLine{Color: indicatorColor, Width: indicatorWidth, Dash: indicatorDash},
			}},
		},
	}
}
