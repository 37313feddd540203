package models

// Requests for the outlier HTTP/WebSocket endpoints.

type EvaluateRequest struct {
	SessionID   string  `query:"session_id" json:"session_id" validate:"omitempty,max=64"`
	Plotted     bool    `query:"plotted" json:"plotted"`
	City        string  `query:"city" json:"city" default:"balikpapan" validate:"required,oneof=balikpapan bandung batam jakarta makassar medan palembang pekanbaru surabaya yogyakarta"`
	Date        string  `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	PriceChange float64 `query:"price_change" json:"price_change"`
}

type PanelRequest struct {
	SessionID string `query:"session_id" json:"session_id" validate:"required,max=64"`
}

// CitiesResponse lists the selectable cities and the earliest selectable date.
type CitiesResponse struct {
	Cities      []string `json:"cities"`
	DefaultCity string   `json:"default_city"`
	MinDate     string   `json:"min_date"`
}
