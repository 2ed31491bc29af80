package game

import "time"

type EventType string

const (
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerLeft     EventType = "player_left"
	EventRoomUpdated    EventType = "room_updated"
	EventGameStarted    EventType = "game_started"
	EventRoundStarted   EventType = "round_started"
	EventTimerTick      EventType = "timer_tick"
	EventTimerExpired   EventType = "timer_expired"
	EventPhotoUploaded  EventType = "photo_uploaded"
	EventVotingStarted  EventType = "voting_started"
	EventVoteRegistered EventType = "vote_registered"
	EventRoundScored    EventType = "round_scored"
	EventRoundFinished  EventType = "round_finished"
	EventMatchFinished  EventType = "match_finished"
	EventError          EventType = "error"
)

// Event is what the core tells a room's subscribers. Payload is JSON-serialisable.
type Event struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	RoomCode  string    `json:"roomCode"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type TickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type PlayerPayload struct {
	PlayerID string `json:"playerId"`
	UserID   string `json:"userId,omitempty"`
}

type RoundPayload struct {
	RoundID         string `json:"roundId"`
	RoundNumber     int    `json:"roundNumber"`
	PromptPhrase    string `json:"promptPhrase,omitempty"`
	SecondsPerRound int    `json:"secondsPerRound,omitempty"`
}

type VotingPayload struct {
	RoundID string       `json:"roundId,omitempty"`
	Photos  []RoundPhoto `json:"photos"`
}

type VotePayload struct {
	RoundID string `json:"roundId"`
	VoterID string `json:"voterId"`
}

type ScoresPayload struct {
	RoundID     string         `json:"roundId"`
	RoundNumber int            `json:"roundNumber"`
	Scores      map[string]int `json:"scores"`
	Leaderboard []Player       `json:"leaderboard,omitempty"`
}

type MatchPayload struct {
	MatchResult *MatchResult `json:"matchResult"`
	Leaderboard []Player     `json:"leaderboard"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Publisher delivers room events to subscribers. Publish must not block the caller.
type Publisher interface {
	Publish(roomCode string, event Event)
}

// Publishers fans an event out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(roomCode string, event Event) {
	for _, p := range ps {
		if p != nil {
			p.Publish(roomCode, event)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(string, Event) {}
