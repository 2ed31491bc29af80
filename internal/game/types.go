package game

import "time"

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusVoting   Status = "voting"
	StatusFinished Status = "finished"
)

const (
	MinRounds          = 1
	MaxRounds          = 20
	MinSecondsPerRound = 1
	MaxSecondsPerRound = 300
	MinPlayersToStart  = 2
	DefaultMaxPlayers  = 8
	DefaultCodeLength  = 6
)

type Room struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Status          Status    `json:"status"`
	RoundsTotal     int       `json:"roundsTotal"`
	SecondsPerRound int       `json:"secondsPerRound"`
	NsfwAllowed     bool      `json:"nsfwAllowed"`
	CreatedAt       time.Time `json:"createdAt"`
	Players         []Player  `json:"players"`
	Rounds          []Round   `json:"rounds"`
}

type Player struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	Seat     int       `json:"seat"`
	JoinedAt time.Time `json:"joinedAt"`
	Score    int       `json:"score"`
}

type Round struct {
	ID           string     `json:"id"`
	RoomID       string     `json:"roomId"`
	Number       int        `json:"roundNumber"`
	PromptPhrase string     `json:"promptPhrase"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	ScoredAt     *time.Time `json:"scoredAt,omitempty"`
}

func (r *Round) Started() bool {
	return r.StartedAt != nil
}

func (r *Round) Finished() bool {
	return r.FinishedAt != nil
}

// Active reports whether the round accepts submissions.
func (r *Round) Active() bool {
	return r.Started() && !r.Finished()
}

type RoundPhoto struct {
	ID         string    `json:"id"`
	RoundID    string    `json:"roundId"`
	PlayerID   string    `json:"playerId"`
	PhotoURL   string    `json:"photoUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Vote struct {
	ID            string    `json:"id"`
	RoundID       string    `json:"roundId"`
	VoterPlayerID string    `json:"voterPlayerId"`
	VotedPlayerID string    `json:"votedPlayerId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VoteCount is one row of the votes-by-target grouping for a round.
type VoteCount struct {
	PlayerID string
	Votes    int
}

type MatchResult struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"roomId"`
	WinnerPlayerID string    `json:"winnerPlayerId"`
	TotalRounds    int       `json:"totalRounds"`
	RoundsPlayed   int       `json:"roundsPlayed"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (room *Room) FindPlayer(playerID string) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func (room *Room) FindPlayerByUser(userID string) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].UserID == userID {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func (room *Room) RoundByNumber(number int) (*Round, bool) {
	for i := range room.Rounds {
		if room.Rounds[i].Number == number {
			return &room.Rounds[i], true
		}
	}
	return nil, false
}

// CurrentRound returns the lowest-numbered started round that has not finished.
func (room *Room) CurrentRound() (*Round, bool) {
	var current *Round
	for i := range room.Rounds {
		round := &room.Rounds[i]
		if !round.Active() {
			continue
		}
		if current == nil || round.Number < current.Number {
			current = round
		}
	}
	return current, current != nil
}

func (room *Room) FinishedRounds() int {
	count := 0
	for _, round := range room.Rounds {
		if round.Finished() {
			count++
		}
	}
	return count
}

func (room *Room) seatOrder() map[string]int {
	order := make(map[string]int, len(room.Players))
	for _, player := range room.Players {
		order[player.ID] = player.Seat
	}
	return order
}
