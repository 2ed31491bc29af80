package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photoclash/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository stores PhotoClash state in Postgres. Multi-row writes run in a
// transaction; unique indexes back the per-round submission and vote rules.
type Repository struct {
	db *gorm.DB
}

var _ game.Repository = (*Repository)(nil)

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Room{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateRoom(ctx context.Context, room *game.Room, host *game.Player) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := fromRoom(room)
		if err := tx.Omit("Players", "Rounds", "Result").Create(&record).Error; err != nil {
			return err
		}
		if host == nil {
			return nil
		}
		player := fromPlayer(host)
		return tx.Create(&player).Error
	})
	return translate(err)
}

func (r *Repository) GetRoom(ctx context.Context, roomID string) (*game.Room, error) {
	var record Room
	if err := r.withChildren(ctx).First(&record, "id = ?", roomID).Error; err != nil {
		return nil, translate(err)
	}
	room := toRoom(record)
	return &room, nil
}

func (r *Repository) GetRoomByCode(ctx context.Context, code string) (*game.Room, error) {
	var record Room
	if err := r.withChildren(ctx).First(&record, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	room := toRoom(record)
	return &room, nil
}

func (r *Repository) ListRoomsByStatus(ctx context.Context, status game.Status) ([]game.Room, error) {
	var records []Room
	if err := r.withChildren(ctx).Where("status = ?", string(status)).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	rooms := make([]game.Room, 0, len(records))
	for _, record := range records {
		rooms = append(rooms, toRoom(record))
	}
	return rooms, nil
}

func (r *Repository) UpdateRoomStatus(ctx context.Context, roomID string, status game.Status) error {
	result := r.db.WithContext(ctx).Model(&Room{}).Where("id = ?", roomID).Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreatePlayer(ctx context.Context, player *game.Player) error {
	record := fromPlayer(player)
	return translate(r.db.WithContext(ctx).Create(&record).Error)
}

func (r *Repository) GetPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	var record Player
	if err := r.db.WithContext(ctx).First(&record, "id = ?", playerID).Error; err != nil {
		return nil, translate(err)
	}
	player := toPlayer(record)
	return &player, nil
}

func (r *Repository) GetPlayerByRoomAndUser(ctx context.Context, roomID, userID string) (*game.Player, error) {
	var record Player
	if err := r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	player := toPlayer(record)
	return &player, nil
}

func (r *Repository) CountPlayers(ctx context.Context, roomID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Player{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) StartRoom(ctx context.Context, roomID string, rounds []game.Round) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rounds) > 0 {
			records := make([]Round, 0, len(rounds))
			for _, round := range rounds {
				record := fromRound(round)
				record.RoomID = roomID
				records = append(records, record)
			}
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		return setRoomStatus(tx, roomID, game.StatusPlaying)
	})
	return translate(err)
}

func (r *Repository) GetRound(ctx context.Context, roundID string) (*game.Round, error) {
	var record Round
	if err := r.db.WithContext(ctx).First(&record, "id = ?", roundID).Error; err != nil {
		return nil, translate(err)
	}
	round := toRound(record)
	return &round, nil
}

func (r *Repository) ListRounds(ctx context.Context, roomID string) ([]game.Round, error) {
	var records []Round
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("number ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	rounds := make([]game.Round, 0, len(records))
	for _, record := range records {
		rounds = append(rounds, toRound(record))
	}
	return rounds, nil
}

func (r *Repository) GetCurrentRound(ctx context.Context, roomID string) (*game.Round, error) {
	var record Round
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND started_at IS NOT NULL AND finished_at IS NULL", roomID).
		Order("number ASC").
		First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	round := toRound(record)
	return &round, nil
}

func (r *Repository) StartRound(ctx context.Context, roomID, roundID string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Round{}).Where("id = ? AND room_id = ?", roundID, roomID).Update("started_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return game.ErrRecordNotFound
		}
		return setRoomStatus(tx, roomID, game.StatusPlaying)
	})
	return translate(err)
}

func (r *Repository) FinishRound(ctx context.Context, roundID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Round{}).Where("id = ?", roundID).Update("finished_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreatePhoto(ctx context.Context, photo *game.RoundPhoto) error {
	record := RoundPhoto{
		ID:         photo.ID,
		RoundID:    photo.RoundID,
		PlayerID:   photo.PlayerID,
		PhotoURL:   photo.PhotoURL,
		UploadedAt: photo.UploadedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&record).Error)
}

func (r *Repository) GetPhotoByRoundAndPlayer(ctx context.Context, roundID, playerID string) (*game.RoundPhoto, error) {
	var record RoundPhoto
	if err := r.db.WithContext(ctx).Where("round_id = ? AND player_id = ?", roundID, playerID).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	photo := toPhoto(record)
	return &photo, nil
}

func (r *Repository) ListPhotos(ctx context.Context, roundID string) ([]game.RoundPhoto, error) {
	var records []RoundPhoto
	if err := r.db.WithContext(ctx).Where("round_id = ?", roundID).Order("uploaded_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	photos := make([]game.RoundPhoto, 0, len(records))
	for _, record := range records {
		photos = append(photos, toPhoto(record))
	}
	return photos, nil
}

func (r *Repository) CreateVote(ctx context.Context, vote *game.Vote) error {
	record := Vote{
		ID:            vote.ID,
		RoundID:       vote.RoundID,
		VoterPlayerID: vote.VoterPlayerID,
		VotedPlayerID: vote.VotedPlayerID,
		CreatedAt:     vote.CreatedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&record).Error)
}

func (r *Repository) GetVoteByRoundAndVoter(ctx context.Context, roundID, voterID string) (*game.Vote, error) {
	var record Vote
	if err := r.db.WithContext(ctx).Where("round_id = ? AND voter_player_id = ?", roundID, voterID).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	vote := toVote(record)
	return &vote, nil
}

func (r *Repository) ListVotes(ctx context.Context, roundID string) ([]game.Vote, error) {
	var records []Vote
	if err := r.db.WithContext(ctx).Where("round_id = ?", roundID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	votes := make([]game.Vote, 0, len(records))
	for _, record := range records {
		votes = append(votes, toVote(record))
	}
	return votes, nil
}

type voteCountRow struct {
	PlayerID string
	Votes    int
}

func (r *Repository) CountVotesByTarget(ctx context.Context, roundID string) ([]game.VoteCount, error) {
	var rows []voteCountRow
	err := r.db.WithContext(ctx).Model(&Vote{}).
		Select("voted_player_id AS player_id, COUNT(*) AS votes").
		Where("round_id = ?", roundID).
		Group("voted_player_id").
		Order("MIN(created_at) ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make([]game.VoteCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, game.VoteCount{PlayerID: row.PlayerID, Votes: row.Votes})
	}
	return counts, nil
}

func (r *Repository) ApplyRoundScores(ctx context.Context, roundID string, awards map[string]int, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Round{}).Where("id = ? AND scored_at IS NULL", roundID).Update("scored_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Round{}).Where("id = ?", roundID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return game.ErrRecordNotFound
			}
			return game.ErrDuplicate
		}
		for playerID, points := range awards {
			result := tx.Model(&Player{}).Where("id = ?", playerID).Update("score", gorm.Expr("score + ?", points))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return game.ErrRecordNotFound
			}
		}
		return nil
	})
	return translate(err)
}

func (r *Repository) FinishRoom(ctx context.Context, result *game.MatchResult) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := MatchResult{
			ID:             result.ID,
			RoomID:         result.RoomID,
			WinnerPlayerID: result.WinnerPlayerID,
			TotalRounds:    result.TotalRounds,
			RoundsPlayed:   result.RoundsPlayed,
			CreatedAt:      result.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return setRoomStatus(tx, result.RoomID, game.StatusFinished)
	})
	return translate(err)
}

func (r *Repository) GetMatchResult(ctx context.Context, roomID string) (*game.MatchResult, error) {
	var record MatchResult
	if err := r.db.WithContext(ctx).First(&record, "room_id = ?", roomID).Error; err != nil {
		return nil, translate(err)
	}
	return &game.MatchResult{
		ID:             record.ID,
		RoomID:         record.RoomID,
		WinnerPlayerID: record.WinnerPlayerID,
		TotalRounds:    record.TotalRounds,
		RoundsPlayed:   record.RoundsPlayed,
		CreatedAt:      record.CreatedAt,
	}, nil
}

func (r *Repository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("seat ASC") }).
		Preload("Rounds", func(tx *gorm.DB) *gorm.DB { return tx.Order("number ASC") })
}

func setRoomStatus(tx *gorm.DB, roomID string, status game.Status) error {
	result := tx.Model(&Room{}).Where("id = ?", roomID).Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return game.ErrRecordNotFound
	}
	return nil
}

// translate maps driver errors onto the repository sentinels the game package understands.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrRecordNotFound), errors.Is(err, game.ErrDuplicate):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return game.ErrRecordNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", game.ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func fromRoom(room *game.Room) Room {
	return Room{
		ID:              room.ID,
		Code:            room.Code,
		Status:          string(room.Status),
		RoundsTotal:     room.RoundsTotal,
		SecondsPerRound: room.SecondsPerRound,
		NsfwAllowed:     room.NsfwAllowed,
		CreatedAt:       room.CreatedAt,
	}
}

func toRoom(record Room) game.Room {
	room := game.Room{
		ID:              record.ID,
		Code:            record.Code,
		Status:          game.Status(record.Status),
		RoundsTotal:     record.RoundsTotal,
		SecondsPerRound: record.SecondsPerRound,
		NsfwAllowed:     record.NsfwAllowed,
		CreatedAt:       record.CreatedAt,
		Players:         make([]game.Player, 0, len(record.Players)),
		Rounds:          make([]game.Round, 0, len(record.Rounds)),
	}
	for _, player := range record.Players {
		room.Players = append(room.Players, toPlayer(player))
	}
	for _, round := range record.Rounds {
		room.Rounds = append(room.Rounds, toRound(round))
	}
	return room
}

func fromPlayer(player *game.Player) Player {
	return Player{
		ID:       player.ID,
		RoomID:   player.RoomID,
		UserID:   player.UserID,
		Seat:     player.Seat,
		Score:    player.Score,
		JoinedAt: player.JoinedAt,
	}
}

func toPlayer(record Player) game.Player {
	return game.Player{
		ID:       record.ID,
		RoomID:   record.RoomID,
		UserID:   record.UserID,
		Seat:     record.Seat,
		JoinedAt: record.JoinedAt,
		Score:    record.Score,
	}
}

func fromRound(round game.Round) Round {
	return Round{
		ID:           round.ID,
		RoomID:       round.RoomID,
		Number:       round.Number,
		PromptPhrase: round.PromptPhrase,
		StartedAt:    round.StartedAt,
		FinishedAt:   round.FinishedAt,
		ScoredAt:     round.ScoredAt,
	}
}

func toRound(record Round) game.Round {
	return game.Round{
		ID:           record.ID,
		RoomID:       record.RoomID,
		Number:       record.Number,
		PromptPhrase: record.PromptPhrase,
		StartedAt:    record.StartedAt,
		FinishedAt:   record.FinishedAt,
		ScoredAt:     record.ScoredAt,
	}
}

func toPhoto(record RoundPhoto) game.RoundPhoto {
	return game.RoundPhoto{
		ID:         record.ID,
		RoundID:    record.RoundID,
		PlayerID:   record.PlayerID,
		PhotoURL:   record.PhotoURL,
		UploadedAt: record.UploadedAt,
	}
}

func toVote(record Vote) game.Vote {
	return game.Vote{
		ID:            record.ID,
		RoundID:       record.RoundID,
		VoterPlayerID: record.VoterPlayerID,
		VotedPlayerID: record.VotedPlayerID,
		CreatedAt:     record.CreatedAt,
	}
}
