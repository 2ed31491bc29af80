package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID              string    `gorm:"primaryKey;size:36"`
	Code            string    `gorm:"size:12;uniqueIndex;not null"`
	Status          string    `gorm:"size:16;not null;index"`
	RoundsTotal     int       `gorm:"not null"`
	SecondsPerRound int       `gorm:"not null"`
	NsfwAllowed     bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	Players         []Player     `gorm:"constraint:OnDelete:CASCADE"`
	Rounds          []Round      `gorm:"constraint:OnDelete:CASCADE"`
	Result          *MatchResult `gorm:"constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomID    string    `gorm:"size:36;not null;uniqueIndex:idx_players_room_user;uniqueIndex:idx_players_room_seat"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_user"`
	Seat      int       `gorm:"not null;uniqueIndex:idx_players_room_seat"`
	Score     int       `gorm:"not null;default:0"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Photos        []RoundPhoto `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE"`
	VotesCast     []Vote       `gorm:"foreignKey:VoterPlayerID;constraint:OnDelete:CASCADE"`
	VotesReceived []Vote       `gorm:"foreignKey:VotedPlayerID;constraint:OnDelete:CASCADE"`
}

type Round struct {
	ID           string `gorm:"primaryKey;size:36"`
	RoomID       string `gorm:"size:36;not null;uniqueIndex:idx_rounds_room_number"`
	Number       int    `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	PromptPhrase string `gorm:"size:280;not null"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	ScoredAt     *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	Photos []RoundPhoto `gorm:"constraint:OnDelete:CASCADE"`
	Votes  []Vote       `gorm:"constraint:OnDelete:CASCADE"`
}

type RoundPhoto struct {
	ID         string    `gorm:"primaryKey;size:36"`
	RoundID    string    `gorm:"size:36;not null;uniqueIndex:idx_round_photos_round_player"`
	PlayerID   string    `gorm:"size:36;not null;uniqueIndex:idx_round_photos_round_player"`
	PhotoURL   string    `gorm:"size:2048;not null"`
	UploadedAt time.Time `gorm:"not null"`
}

type Vote struct {
	ID            string    `gorm:"primaryKey;size:36"`
	RoundID       string    `gorm:"size:36;not null;uniqueIndex:idx_votes_round_voter"`
	VoterPlayerID string    `gorm:"size:36;not null;uniqueIndex:idx_votes_round_voter"`
	VotedPlayerID string    `gorm:"size:36;not null;index;check:chk_votes_not_self,voter_player_id <> voted_player_id"`
	CreatedAt     time.Time `gorm:"not null"`
}

type MatchResult struct {
	ID             string    `gorm:"primaryKey;size:36"`
	RoomID         string    `gorm:"size:36;not null;uniqueIndex"`
	WinnerPlayerID string    `gorm:"size:36;not null"`
	TotalRounds    int       `gorm:"not null"`
	RoundsPlayed   int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

// Event is the append-only audit log of room events.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:36;index"`
	RoomCode  string         `gorm:"size:12;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type Phrase struct {
	ID        uint      `gorm:"primaryKey"`
	Language  string    `gorm:"size:8;not null;uniqueIndex:idx_phrases_language_text"`
	Text      string    `gorm:"size:280;not null;uniqueIndex:idx_phrases_language_text"`
	Mature    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
