package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ChiliPulse/internal/domain/models"
	xhttp "ChiliPulse/pkg/http"
	xlogger "ChiliPulse/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxFrameBytes   = 4096
	maxSessionIDLen = 64
)

// Frame types pushed to the client.
const (
	FrameSession = "session"
	FramePanel   = "panel"
	FrameInvalid = "invalid"
	FrameError   = "error"
)

// StreamFrame is one server-to-client WebSocket message.
type StreamFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Panel     *models.Panel   `json:"panel,omitempty"`
	Errors    interface{}     `json:"errors,omitempty"`
	Error     *xhttp.AppError `json:"error,omitempty"`
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(f StreamFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(f)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Stream upgrades to a WebSocket bound to one session. Every text frame is a
// submission; the server answers with panel frames for results that are still
// current. Superseded results are dropped silently.
func (h *OutlierEchoHandler) Stream(c echo.Context) error {
	sid := c.QueryParam("session_id")
	if sid == "" {
		sid = uuid.NewString()
	}
	if len(sid) > maxSessionIDLen {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_MAX", "session_id", "session_id must be at most 64 characters", http.StatusBadRequest))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := ws.send(StreamFrame{Type: FrameSession, SessionID: sid}); err != nil {
		return nil
	}
	h.logger.Debug("websocket session opened", xlogger.String("session_id", sid))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.keepAlive(ctx, ws)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", xlogger.String("session_id", sid), xlogger.Error(err))
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			_ = ws.send(StreamFrame{Type: FrameError, Error: xhttp.TooManyRequestsError("too many evaluations, slow down")})
			continue
		}

		req := &models.EvaluateRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			_ = ws.send(StreamFrame{Type: FrameInvalid, Errors: []xhttp.ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}})
			continue
		}
		if verr := xhttp.DefaultAndValidate(ctx, req); verr != nil {
			_ = ws.send(StreamFrame{Type: FrameInvalid, Errors: verr})
			continue
		}
		req.SessionID = sid
		sub, err := toSubmission(req)
		if err != nil {
			_ = ws.send(StreamFrame{Type: FrameError, Error: toAppError(err)})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.submit(ctx, ws, sub)
		}()
	}

	cancel()
	wg.Wait()
	h.logger.Debug("websocket session closed", xlogger.String("session_id", sid))
	return nil
}

func (h *OutlierEchoHandler) submit(ctx context.Context, ws *wsConn, sub models.Submission) {
	panel, err := h.dash.Submit(ctx, sub)
	switch {
	case errors.Is(err, models.ErrNotTriggered), errors.Is(err, models.ErrStaleResult):
		return
	case panel != nil:
		// failed evaluations still carry a panel holding the error
		_ = ws.send(StreamFrame{Type: FramePanel, SessionID: sub.SessionID, Panel: panel})
	case err != nil:
		_ = ws.send(StreamFrame{Type: FrameError, SessionID: sub.SessionID, Error: toAppError(err)})
	}
}

func (h *OutlierEchoHandler) keepAlive(ctx context.Context, ws *wsConn) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := ws.ping(); err != nil {
				return
			}
		}
	}
}
