package server

import (
	"context"
	"net/http"

	"photoclash/internal/config"
	"photoclash/internal/game"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	svc     *game.Service
	hub     *Hub
	events  game.Publisher
	history EventHistory
	cfg     config.Config
	limiter *rateLimiter
}

// EventHistory replays the events recorded for a room, oldest first.
type EventHistory interface {
	RoomEvents(ctx context.Context, roomCode string) ([]game.Event, error)
}

// New wires the HTTP surface. events receives server-originated events such as
// player_left and should include hub.
func New(svc *game.Service, hub *Hub, events game.Publisher, cfg config.Config) *Server {
	if hub == nil {
		hub = NewHub(cfg.EventBuffer)
	}
	if events == nil {
		events = hub
	}
	registerValidators()
	return &Server{
		svc:     svc,
		hub:     hub,
		events:  events,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
}

// SetHistory enables the room event history route.
func (s *Server) SetHistory(history EventHistory) {
	s.history = history
}

func (s *Server) Handler() http.Handler {
	if s.cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(recovery(), requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.handleHealth)
	r.GET("/ws/rooms/:code", s.handleWebsocket)

	api := r.Group("/api/photoclash")
	api.GET("/rooms/:roomId", s.handleGetRoom)
	api.GET("/rooms/code/:code", s.handleGetRoomByCode)
	api.GET("/rooms/code/:code/events", s.handleRoomEvents)
	api.GET("/rooms/:roomId/current-round", s.handleCurrentRound)
	api.GET("/rooms/:roomId/rounds", s.handleListRounds)
	api.GET("/rooms/:roomId/leaderboard", s.handleLeaderboard)
	api.GET("/rooms/:roomId/result", s.handleMatchResult)
	api.GET("/rounds/:roundId/photos", s.handleRoundPhotos)
	api.GET("/rounds/:roundId/votes", s.handleRoundVotes)

	mutating := api.Group("", s.enforceRateLimit)
	mutating.POST("/rooms", s.handleCreateRoom)
	mutating.POST("/rooms/join", s.handleJoinRoom)
	mutating.POST("/rooms/start", s.handleStartGame)
	mutating.POST("/rooms/:roomId/start-voting", s.handleStartVoting)
	mutating.POST("/rooms/:roomId/next-round", s.handleNextRound)
	mutating.POST("/rooms/:roomId/finish", s.handleFinishGame)
	mutating.POST("/rooms/:roomId/timer/pause", s.handlePauseTimer)
	mutating.POST("/rooms/:roomId/timer/resume", s.handleResumeTimer)
	mutating.POST("/photos", s.handleUploadPhoto)
	mutating.POST("/votes", s.handleVote)
	mutating.POST("/rounds/:roundId/calculate-scores", s.handleCalculateScores)
	mutating.POST("/rounds/:roundId/finish", s.handleFinishRound)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "not found")
	})
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
