package game

import (
	"context"
	"time"
)

// Repository is the persistence collaborator. Every call is atomic: a failed call leaves
// nothing behind and concurrent readers never see half of a write. Lookups of missing
// records return ErrRecordNotFound; unique-constraint hits return ErrDuplicate.
type Repository interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	// CreateRoom inserts the room together with its host player.
	CreateRoom(ctx context.Context, room *Room, host *Player) error
	// GetRoom loads players in seat order and rounds in number order.
	GetRoom(ctx context.Context, roomID string) (*Room, error)
	GetRoomByCode(ctx context.Context, code string) (*Room, error)
	ListRoomsByStatus(ctx context.Context, status Status) ([]Room, error)
	UpdateRoomStatus(ctx context.Context, roomID string, status Status) error

	CreatePlayer(ctx context.Context, player *Player) error
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	GetPlayerByRoomAndUser(ctx context.Context, roomID, userID string) (*Player, error)
	CountPlayers(ctx context.Context, roomID string) (int, error)

	// StartRoom inserts every round and moves the room to playing.
	StartRoom(ctx context.Context, roomID string, rounds []Round) error
	GetRound(ctx context.Context, roundID string) (*Round, error)
	ListRounds(ctx context.Context, roomID string) ([]Round, error)
	GetCurrentRound(ctx context.Context, roomID string) (*Round, error)
	// StartRound stamps the round as started and moves the room back to playing.
	StartRound(ctx context.Context, roomID, roundID string, at time.Time) error
	FinishRound(ctx context.Context, roundID string, at time.Time) error

	CreatePhoto(ctx context.Context, photo *RoundPhoto) error
	GetPhotoByRoundAndPlayer(ctx context.Context, roundID, playerID string) (*RoundPhoto, error)
	ListPhotos(ctx context.Context, roundID string) ([]RoundPhoto, error)

	CreateVote(ctx context.Context, vote *Vote) error
	GetVoteByRoundAndVoter(ctx context.Context, roundID, voterID string) (*Vote, error)
	ListVotes(ctx context.Context, roundID string) ([]Vote, error)
	CountVotesByTarget(ctx context.Context, roundID string) ([]VoteCount, error)
	// ApplyRoundScores adds awards to player scores and stamps the round as scored.
	// It returns ErrDuplicate when the round was already scored.
	ApplyRoundScores(ctx context.Context, roundID string, awards map[string]int, at time.Time) error

	// FinishRoom stores the match result and moves the room to finished.
	FinishRoom(ctx context.Context, result *MatchResult) error
	GetMatchResult(ctx context.Context, roomID string) (*MatchResult, error)
}
