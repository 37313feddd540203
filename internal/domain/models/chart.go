package models

// ChartSpec is a Plotly figure: the browser hands it to Plotly.newPlot as is.
type ChartSpec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one scatter trace. X holds YYYY-MM-DD days.
type Trace struct {
	Type string    `json:"type"`
	Mode string    `json:"mode"`
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

type Layout struct {
	Title  Title   `json:"title"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Margin Margin  `json:"margin"`
	XAxis  Axis    `json:"xaxis"`
	Shapes []Shape `json:"shapes"`
}

type Title struct {
	Text string `json:"text"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

type Axis struct {
	Type        string      `json:"type"`
	RangeSlider RangeSlider `json:"rangeslider"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

// Shape is a layout shape; only vertical date markers are produced.
type Shape struct {
	Type string    `json:"type"`
	XRef string    `json:"xref"`
	YRef string    `json:"yref"`
	X0   string    `json:"x0"`
	X1   string    `json:"x1"`
	Y0   float64   `json:"y0"`
	Y1   float64   `json:"y1"`
	Line ShapeLine `json:"line"`
}

type ShapeLine struct {
	Color string `json:"color"`
	Width int    `json:"width"`
	Dash  string `json:"dash"`
}

// Trace returns the first trace with the given mode, if any.
func (c ChartSpec) Trace(mode string) (Trace, bool) {
	for _, t := range c.Data {
		if t.Mode == mode {
			return t, true
		}
	}
	return Trace{}, false
}
