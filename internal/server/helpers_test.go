package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"photoclash/internal/config"
	"photoclash/internal/game"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

type testApp struct {
	srv *Server
	svc *game.Service
	hub *Hub
	ts  *httptest.Server
}

func newTestApp(t *testing.T, configure func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.RateLimitPerSecond = 1000
	cfg.RateLimitBurst = 1000
	if configure != nil {
		configure(&cfg)
	}
	hub := NewHub(cfg.EventBuffer)
	svc := game.NewService(game.NewMemoryStore(), hub, game.Options{
		MaxPlayers:   cfg.MaxPlayersPerRoom,
		TickInterval: time.Second,
	})
	t.Cleanup(svc.Close)
	srv := New(svc, hub, hub, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return &testApp{srv: srv, svc: svc, hub: hub, ts: ts}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func decodeInto(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode, "unexpected status for %s %s", resp.Request.Method, resp.Request.URL.Path)
}

func createRoom(t *testing.T, ts *httptest.Server, host string, rounds, seconds int) game.Room {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/photoclash/rooms", map[string]any{
		"hostUserId":      host,
		"roundsTotal":     rounds,
		"secondsPerRound": seconds,
	})
	expectStatus(t, resp, http.StatusCreated)
	var room game.Room
	decodeInto(t, resp, &room)
	return room
}

func joinRoom(t *testing.T, ts *httptest.Server, code, user string) game.Player {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/photoclash/rooms/join", map[string]any{
		"roomCode": code,
		"userId":   user,
	})
	expectStatus(t, resp, http.StatusOK)
	var player game.Player
	decodeInto(t, resp, &player)
	return player
}

func dialRoom(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	if playerID != "" {
		wsURL += "?playerId=" + playerID
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsEvent struct {
	Type     string          `json:"type"`
	RoomCode string          `json:"roomCode"`
	Payload  json.RawMessage `json:"payload"`
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType game.EventType, timeout time.Duration) wsEvent {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)
		var event wsEvent
		require.NoError(t, json.Unmarshal(data, &event))
		if event.Type == string(eventType) {
			return event
		}
	}
}
