package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	HostUserID      string `json:"hostUserId" binding:"required,userid"`
	RoundsTotal     int    `json:"roundsTotal" binding:"required"`
	SecondsPerRound int    `json:"secondsPerRound" binding:"required"`
	NsfwAllowed     bool   `json:"nsfwAllowed"`
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode" binding:"omitempty,roomcode"`
	UserID   string `json:"userId" binding:"required,userid"`
}

type startGameRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	Language string `json:"language" binding:"omitempty,language"`
}

type uploadPhotoRequest struct {
	RoundID  string `json:"roundId" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
	PhotoURL string `json:"photoUrl" binding:"required,photourl"`
}

type voteRequest struct {
	RoundID       string `json:"roundId" binding:"required"`
	VoterPlayerID string `json:"voterPlayerId" binding:"required"`
	VotedPlayerID string `json:"votedPlayerId" binding:"required"`
}

type roomURI struct {
	RoomID string `uri:"roomId" binding:"required"`
}

type roomCodeURI struct {
	Code string `uri:"code" binding:"required"`
}

type roundURI struct {
	RoundID string `uri:"roundId" binding:"required"`
}

var (
	createRoomMessages = bindMessages{
		"HostUserID":      {"required": "host user id is required", "userid": "host user id is invalid"},
		"RoundsTotal":     {"required": "rounds total is required"},
		"SecondsPerRound": {"required": "seconds per round is required"},
	}
	joinRoomMessages = bindMessages{
		"RoomCode": {"roomcode": "room code is invalid"},
		"UserID":   {"required": "user id is required", "userid": "user id is invalid"},
	}
	startGameMessages = bindMessages{
		"RoomID":   {"required": "room id is required"},
		"Language": {"language": "language is invalid"},
	}
	uploadPhotoMessages = bindMessages{
		"RoundID":  {"required": "round id is required"},
		"PlayerID": {"required": "player id is required"},
		"PhotoURL": {"required": "photo url is required", "photourl": "photo url must be an absolute http or https url"},
	}
	voteMessages = bindMessages{
		"RoundID":       {"required": "round id is required"},
		"VoterPlayerID": {"required": "voter player id is required"},
		"VotedPlayerID": {"required": "voted player id is required"},
	}
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req, createRoomMessages, "invalid room settings") {
		return
	}
	room, err := s.svc.CreateRoom(c.Request.Context(), req.HostUserID, req.RoundsTotal, req.SecondsPerRound, req.NsfwAllowed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bindJSON(c, &req, joinRoomMessages, "invalid join request") {
		return
	}
	ctx := c.Request.Context()
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		if strings.TrimSpace(req.RoomCode) == "" {
			writeError(c, http.StatusBadRequest, "validation", "room id or room code is required")
			return
		}
		room, err := s.svc.GetRoomByCode(ctx, req.RoomCode)
		if err != nil {
			respondError(c, err)
			return
		}
		roomID = room.ID
	}
	player, err := s.svc.JoinRoom(ctx, roomID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (s *Server) handleGetRoom(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	room, err := s.svc.GetRoom(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleGetRoomByCode(c *gin.Context) {
	var uri roomCodeURI
	if !bindURI(c, &uri) {
		return
	}
	room, err := s.svc.GetRoomByCode(c.Request.Context(), uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleRoomEvents(c *gin.Context) {
	var uri roomCodeURI
	if !bindURI(c, &uri) {
		return
	}
	if s.history == nil {
		writeError(c, http.StatusNotFound, "not_found", "event history is not enabled")
		return
	}
	ctx := c.Request.Context()
	room, err := s.svc.GetRoomByCode(ctx, uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	events, err := s.history.RoomEvents(ctx, room.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) handleStartGame(c *gin.Context) {
	var req startGameRequest
	if !bindJSON(c, &req, startGameMessages, "invalid start request") {
		return
	}
	room, err := s.svc.StartGame(c.Request.Context(), req.RoomID, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleCurrentRound(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.svc.GetCurrentRound(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) handleListRounds(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	rounds, err := s.svc.ListRounds(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	board, err := s.svc.Leaderboard(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (s *Server) handleMatchResult(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	result, err := s.svc.GetMatchResult(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStartVoting(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	room, err := s.svc.StartVotingPhase(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleNextRound(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	round, ok, err := s.svc.StartNextRound(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasNextRound": ok, "round": round})
}

func (s *Server) handleFinishGame(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	result, err := s.svc.FinishGame(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePauseTimer(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	paused, err := s.svc.PauseTimer(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

func (s *Server) handleResumeTimer(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	resumed, err := s.svc.ResumeTimer(c.Request.Context(), uri.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumed": resumed})
}

func (s *Server) handleUploadPhoto(c *gin.Context) {
	var req uploadPhotoRequest
	if !bindJSON(c, &req, uploadPhotoMessages, "invalid photo upload") {
		return
	}
	photo, err := s.svc.UploadPhoto(c.Request.Context(), req.RoundID, req.PlayerID, req.PhotoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (s *Server) handleRoundPhotos(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	photos, err := s.svc.GetRoundPhotos(c.Request.Context(), uri.RoundID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "invalid vote") {
		return
	}
	vote, err := s.svc.Vote(c.Request.Context(), req.RoundID, req.VoterPlayerID, req.VotedPlayerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}

func (s *Server) handleRoundVotes(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	votes, err := s.svc.GetRoundVotes(c.Request.Context(), uri.RoundID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (s *Server) handleCalculateScores(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	scores, err := s.svc.CalculateRoundScores(c.Request.Context(), uri.RoundID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roundId": uri.RoundID, "scores": scores})
}

func (s *Server) handleFinishRound(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.svc.FinishRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}
