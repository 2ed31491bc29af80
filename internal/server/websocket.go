package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"photoclash/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Hub fans room events out to the websocket clients watching each room.
// It implements game.Publisher; a client whose buffer is full is disconnected.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*wsClient]struct{}
	buffer int
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	roomID   string
	roomCode string
	playerID string
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		rooms:  make(map[string]map[*wsClient]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Publish(roomCode string, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("encode ws event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[roomCode] {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("room_code", roomCode).Str("player_id", client.playerID).Msg("ws client too slow, disconnecting")
			h.removeLocked(client)
		}
	}
}

// Clients reports how many connections are watching roomCode.
func (h *Hub) Clients(roomCode string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomCode])
}

func (h *Hub) add(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[client.roomCode]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.rooms[client.roomCode] = group
	}
	group[client] = struct{}{}
}

// remove reports whether the client was still registered.
func (h *Hub) remove(client *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(client)
}

func (h *Hub) removeLocked(client *wsClient) bool {
	group := h.rooms[client.roomCode]
	if _, ok := group[client]; !ok {
		return false
	}
	delete(group, client)
	close(client.send)
	if len(group) == 0 {
		delete(h.rooms, client.roomCode)
	}
	return true
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
				return true
			}
			return slices.Contains(s.cfg.AllowedOrigins, origin)
		},
	}
}

type wsRoomURI struct {
	Code string `uri:"code" binding:"required"`
}

// handleWebsocket streams a room's events. The first message is a room_updated
// snapshot so a reconnecting client can resync.
func (s *Server) handleWebsocket(c *gin.Context) {
	var uri wsRoomURI
	if !bindURI(c, &uri) {
		return
	}
	room, err := s.svc.GetRoomByCode(c.Request.Context(), uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	playerID := c.Query("playerId")
	if playerID != "" {
		if _, err := s.svc.GetPlayer(c.Request.Context(), room.ID, playerID); err != nil {
			respondError(c, err)
			return
		}
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("room_code", room.Code).Msg("ws upgrade failed")
		return
	}
	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, s.hub.buffer),
		roomID:   room.ID,
		roomCode: room.Code,
		playerID: playerID,
	}
	snapshot, err := json.Marshal(game.Event{
		Type:      game.EventRoomUpdated,
		RoomID:    room.ID,
		RoomCode:  room.Code,
		Timestamp: time.Now().UTC(),
		Payload:   room,
	})
	if err == nil {
		client.send <- snapshot
	}
	s.hub.add(client)
	log.Info().Str("room_code", room.Code).Str("player_id", playerID).Str("remote", c.Request.RemoteAddr).Msg("ws connected")

	go s.writeWS(client)
	go s.readWS(client)
}

func (s *Server) readWS(client *wsClient) {
	defer func() {
		if s.hub.remove(client) {
			client.conn.Close()
		}
		if client.playerID != "" {
			s.events.Publish(client.roomCode, game.Event{
				Type:      game.EventPlayerLeft,
				RoomID:    client.roomID,
				RoomCode:  client.roomCode,
				Timestamp: time.Now().UTC(),
				Payload:   game.PlayerPayload{PlayerID: client.playerID},
			})
		}
	}()
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("room_code", client.roomCode).Str("player_id", client.playerID).Msg("ws disconnected")
			return
		}
	}
}

func (s *Server) writeWS(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
