package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/outlier" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) StreamFrame {
	t.Helper()
	var f StreamFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestStreamPushesPanels(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, &fakeUpstream{}, nil))
	defer srv.Close()

	conn := dialStream(t, srv, "?session_id=ws-1")
	hello := readFrame(t, conn)
	if hello.Type != FrameSession || hello.SessionID != "ws-1" {
		t.Fatalf("unexpected greeting %+v", hello)
	}

	// not plotted yet: nothing comes back for this one
	if err := conn.WriteJSON(map[string]interface{}{"city": "jakarta", "date": "2024-01-15"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]interface{}{"plotted": true, "city": "jakarta", "date": "2024-01-15", "price_change": 500}); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := readFrame(t, conn)
	if f.Type != FramePanel || f.Panel == nil || f.Panel.Result == nil {
		t.Fatalf("expected a rendered panel, got %+v", f)
	}
	if f.Panel.Result.Message != "Price change of 500 on 2024-01-15 in jakarta is at anomaly level." {
		t.Fatalf("unexpected message %q", f.Panel.Result.Message)
	}
}

func TestStreamRejectsInvalidFrames(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, &fakeUpstream{}, nil))
	defer srv.Close()

	conn := dialStream(t, srv, "")
	if hello := readFrame(t, conn); hello.SessionID == "" {
		t.Fatalf("server should assign a session id")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != FrameInvalid {
		t.Fatalf("expected invalid frame, got %+v", f)
	}

	if err := conn.WriteJSON(map[string]interface{}{"plotted": true, "city": "jakarta", "date": "nope"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != FrameInvalid {
		t.Fatalf("expected invalid frame, got %+v", f)
	}
}
