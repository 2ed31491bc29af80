package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"photoclash/internal/game"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketSnapshotThenEvents(t *testing.T) {
	app := newTestApp(t, nil)
	room := createRoom(t, app.ts, "ana", 1, 60)

	conn := dialRoom(t, app.ts, strings.ToLower(room.Code), "")
	snapshot := readUntil(t, conn, game.EventRoomUpdated, 5*time.Second)
	var snapRoom game.Room
	require.NoError(t, json.Unmarshal(snapshot.Payload, &snapRoom))
	assert.Equal(t, room.ID, snapRoom.ID)
	require.Eventually(t, func() bool { return app.hub.Clients(room.Code) == 1 }, time.Second, 10*time.Millisecond)

	ben := joinRoom(t, app.ts, room.Code, "ben")
	joined := readUntil(t, conn, game.EventPlayerJoined, 5*time.Second)
	var payload game.PlayerPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &payload))
	assert.Equal(t, ben.ID, payload.PlayerID)
	assert.Equal(t, room.Code, joined.RoomCode)

	expectStatus(t, doRequest(t, app.ts, http.MethodPost, "/api/photoclash/rooms/start", map[string]any{"roomId": room.ID}), http.StatusOK)
	readUntil(t, conn, game.EventGameStarted, 5*time.Second)
	started := readUntil(t, conn, game.EventRoundStarted, 5*time.Second)
	var roundPayload game.RoundPayload
	require.NoError(t, json.Unmarshal(started.Payload, &roundPayload))
	assert.Equal(t, 1, roundPayload.RoundNumber)
	tick := readUntil(t, conn, game.EventTimerTick, 5*time.Second)
	var tickPayload game.TickPayload
	require.NoError(t, json.Unmarshal(tick.Payload, &tickPayload))
	assert.InDelta(t, 60, tickPayload.RemainingSeconds, 2)
}

func TestWebsocketPlayerLeft(t *testing.T) {
	app := newTestApp(t, nil)
	room := createRoom(t, app.ts, "ana", 1, 60)
	ben := joinRoom(t, app.ts, room.Code, "ben")

	watcher := dialRoom(t, app.ts, room.Code, "")
	readUntil(t, watcher, game.EventRoomUpdated, 5*time.Second)
	player := dialRoom(t, app.ts, room.Code, ben.ID)
	readUntil(t, player, game.EventRoomUpdated, 5*time.Second)
	require.Eventually(t, func() bool { return app.hub.Clients(room.Code) == 2 }, time.Second, 10*time.Millisecond)

	_ = player.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = player.Close()

	left := readUntil(t, watcher, game.EventPlayerLeft, 5*time.Second)
	var payload game.PlayerPayload
	require.NoError(t, json.Unmarshal(left.Payload, &payload))
	assert.Equal(t, ben.ID, payload.PlayerID)
	assert.Eventually(t, func() bool { return app.hub.Clients(room.Code) == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebsocketUnknownRoom(t *testing.T) {
	app := newTestApp(t, nil)
	wsURL := "ws" + strings.TrimPrefix(app.ts.URL, "http") + "/ws/rooms/ZZZZZZ"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(1)
	client := &wsClient{send: make(chan []byte, 1), roomCode: "ABCDEF"}
	hub.add(client)

	hub.Publish("ABCDEF", game.Event{Type: game.EventTimerTick})
	assert.Equal(t, 1, hub.Clients("ABCDEF"))
	hub.Publish("ABCDEF", game.Event{Type: game.EventTimerTick})
	assert.Equal(t, 0, hub.Clients("ABCDEF"))

	<-client.send
	_, open := <-client.send
	assert.False(t, open)
	assert.False(t, hub.remove(client))
}

func TestWebsocketRejectsForeignPlayer(t *testing.T) {
	app := newTestApp(t, nil)
	room := createRoom(t, app.ts, "ana", 1, 60)
	other := createRoom(t, app.ts, "ben", 1, 60)

	wsURL := "ws" + strings.TrimPrefix(app.ts.URL, "http") + "/ws/rooms/" + room.Code + "?playerId=" + other.Players[0].ID
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}
