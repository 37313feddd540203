package api

import (
	_ "embed"
	"errors"
	"net/http"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/internal/service/ratelimit"
	"ChiliPulse/internal/usecase"
	xhttp "ChiliPulse/pkg/http"
	xlogger "ChiliPulse/pkg/logger"
	"ChiliPulse/pkg/util"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

//go:embed web/index.html
var indexHTML []byte

// SessionHeader carries the session id on every evaluation response, so a
// client that sent none learns the one assigned to it.
const SessionHeader = "X-Session-Id"

// OutlierEchoHandler serves the dashboard page, its JSON API and the live
// WebSocket channel.
type OutlierEchoHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	rl       *ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewOutlierEchoHandler(logger *xlogger.Logger, dash *usecase.Dashboard, rl *ratelimit.Limiter) *OutlierEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &OutlierEchoHandler{
		logger: logger,
		dash:   dash,
		rl:     rl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *OutlierEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/ws/outlier", h.Stream)

	g := e.Group("/api")
	g.GET("/cities", h.Cities)
	g.POST("/outlier/evaluate", h.Evaluate, h.rateLimit)
	g.GET("/outlier/panel", h.Panel)
}

func (h *OutlierEchoHandler) Index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (h *OutlierEchoHandler) Cities(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.CitiesResponse{
		Cities:      models.Cities,
		DefaultCity: models.DefaultCity,
		MinDate:     util.FormatDate(models.MinDate),
	})
}

// Evaluate runs one submission. 204 means the plot was not triggered yet.
func (h *OutlierEchoHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sub, err := toSubmission(req)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(SessionHeader, sub.SessionID)

	panel, err := h.dash.Submit(c.Request().Context(), sub)
	switch {
	case errors.Is(err, models.ErrNotTriggered):
		return xhttp.NoContentResponse(c)
	case err != nil:
		return xhttp.AppErrorResponse(c, toAppError(err).WithParam("session_id", sub.SessionID))
	}
	return xhttp.SuccessResponse(c, panel)
}

func (h *OutlierEchoHandler) Panel(c echo.Context) error {
	req := &models.PanelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	panel, err := h.dash.Current(c.Request().Context(), req.SessionID)
	if err != nil {
		if !errors.Is(err, usecase.ErrNoPanel) {
			h.logger.Error("load panel failed", xlogger.String("session_id", req.SessionID), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, panel)
}

func (h *OutlierEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			h.logger.Warn("evaluation rate limited", xlogger.String("remote", c.RealIP()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many evaluations, slow down"))
		}
		return next(c)
	}
}

// toSubmission converts a validated request. A missing session id starts a new session.
func toSubmission(req *models.EvaluateRequest) (models.Submission, error) {
	date, err := util.ParseDate(req.Date)
	if err != nil {
		return models.Submission{}, xhttp.BadRequestError(err.Error()).WithError(err)
	}
	sid := req.SessionID
	if sid == "" {
		sid = uuid.NewString()
	}
	return models.Submission{
		SessionID: sid,
		Plotted:   req.Plotted,
		Query: models.Query{
			City:        req.City,
			Date:        date,
			PriceChange: req.PriceChange,
		},
	}, nil
}
