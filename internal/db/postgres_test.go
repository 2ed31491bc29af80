package db

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"photoclash/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// testDB is nil when Postgres could not be started; database tests skip then.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("photoclash"),
		postgres.WithUsername("photoclash"),
		postgres.WithPassword("photoclash"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable, skipping database tests: %v\n", err)
		os.Exit(m.Run())
	}

	code := func() int {
		defer container.Terminate(ctx)
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
			return 1
		}
		conn, err := Open(dsn, Options{MaxOpenConns: 5, MaxIdleConns: 5})
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			return 1
		}
		if err := Migrate(conn); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}
		testDB = conn
		return m.Run()
	}()
	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	return testDB
}

func TestRepositoryConstraints(t *testing.T) {
	conn := requireDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	room := &game.Room{ID: "7b0c6a3e-0000-4000-8000-000000000001", Code: "CONSTR", Status: game.StatusWaiting, RoundsTotal: 1, SecondsPerRound: 30, CreatedAt: now}
	host := &game.Player{ID: "7b0c6a3e-0000-4000-8000-000000000011", RoomID: room.ID, UserID: "host", Seat: 1, JoinedAt: now}
	require.NoError(t, repo.CreateRoom(ctx, room, host))

	t.Run("duplicate code", func(t *testing.T) {
		other := &game.Room{ID: "7b0c6a3e-0000-4000-8000-000000000002", Code: "CONSTR", Status: game.StatusWaiting, RoundsTotal: 1, SecondsPerRound: 30, CreatedAt: now}
		assert.ErrorIs(t, repo.CreateRoom(ctx, other, nil), game.ErrDuplicate)
		exists, err := repo.CodeExists(ctx, "CONSTR")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate user", func(t *testing.T) {
		dup := &game.Player{ID: "7b0c6a3e-0000-4000-8000-000000000012", RoomID: room.ID, UserID: "host", Seat: 2, JoinedAt: now}
		assert.ErrorIs(t, repo.CreatePlayer(ctx, dup), game.ErrDuplicate)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := repo.GetRoom(ctx, "7b0c6a3e-0000-4000-8000-0000000000ff")
		assert.ErrorIs(t, err, game.ErrRecordNotFound)
		_, err = repo.GetRound(ctx, "nope")
		assert.ErrorIs(t, err, game.ErrRecordNotFound)
		assert.ErrorIs(t, repo.UpdateRoomStatus(ctx, "nope", game.StatusVoting), game.ErrRecordNotFound)
	})

	t.Run("scores apply once", func(t *testing.T) {
		started := now
		round := game.Round{ID: "7b0c6a3e-0000-4000-8000-000000000021", Number: 1, PromptPhrase: "Something red", StartedAt: &started}
		require.NoError(t, repo.StartRoom(ctx, room.ID, []game.Round{round}))
		require.NoError(t, repo.ApplyRoundScores(ctx, round.ID, map[string]int{host.ID: 3}, now))
		assert.ErrorIs(t, repo.ApplyRoundScores(ctx, round.ID, map[string]int{host.ID: 3}, now), game.ErrDuplicate)

		player, err := repo.GetPlayer(ctx, host.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, player.Score)
	})
}

func TestServiceAgainstPostgres(t *testing.T) {
	conn := requireDB(t)
	events := NewEventLog(conn, 64)
	svc := game.NewService(NewRepository(conn), events, game.Options{TickInterval: time.Hour})
	t.Cleanup(svc.Close)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "ana", 1, 30, false)
	require.NoError(t, err)
	ben, err := svc.JoinRoomByCode(ctx, room.Code, "ben")
	require.NoError(t, err)
	again, err := svc.JoinRoom(ctx, room.ID, "ben")
	require.NoError(t, err)
	assert.Equal(t, ben.ID, again.ID)
	ana := room.Players[0]

	room, err = svc.StartGame(ctx, room.ID, "es")
	require.NoError(t, err)
	round := room.Rounds[0]

	_, err = svc.UploadPhoto(ctx, round.ID, ana.ID, "https://img.example/ana.jpg")
	require.NoError(t, err)
	_, err = svc.UploadPhoto(ctx, round.ID, ana.ID, "https://img.example/ana2.jpg")
	assert.ErrorIs(t, err, game.ErrDuplicatePhoto)

	_, err = svc.StartVotingPhase(ctx, room.ID)
	require.NoError(t, err)
	_, err = svc.Vote(ctx, round.ID, ben.ID, ana.ID)
	require.NoError(t, err)
	_, err = svc.Vote(ctx, round.ID, ben.ID, ana.ID)
	assert.ErrorIs(t, err, game.ErrAlreadyVoted)

	awards, err := svc.CalculateRoundScores(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ana.ID: 3}, awards)
	_, err = svc.FinishRound(ctx, round.ID)
	require.NoError(t, err)

	_, ok, err := svc.StartNextRound(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	result, err := svc.FinishGame(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, result.WinnerPlayerID)
	assert.Equal(t, 1, result.RoundsPlayed)

	stored, err := svc.GetMatchResult(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, events.Run(runCtx))
	logged, err := ListEvents(ctx, conn, room.Code)
	require.NoError(t, err)
	types := make([]string, 0, len(logged))
	for _, event := range logged {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, string(game.EventGameStarted))
	assert.Contains(t, types, string(game.EventMatchFinished))
	assert.NotContains(t, types, string(game.EventTimerTick))

	replayed, err := events.RoomEvents(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, replayed, len(logged))
	assert.Equal(t, game.EventType(logged[0].Type), replayed[0].Type)
	assert.Equal(t, room.Code, replayed[0].RoomCode)
}

func TestPhrasePools(t *testing.T) {
	conn := requireDB(t)
	ctx := context.Background()

	inserted, err := InsertPhrases(ctx, conn, []PhraseRecord{
		{Language: "pt", Text: "Algo azul"},
		{Language: "pt", Text: "Um sapato"},
		{Language: "pt", Text: "Algo picante", Mature: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = InsertPhrases(ctx, conn, []PhraseRecord{{Language: "pt", Text: "Algo azul"}})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	phrases := game.NewPhraseGenerator("es")
	_, err = LoadPhrasePools(ctx, conn, phrases)
	require.NoError(t, err)
	assert.Equal(t, 2, phrases.PoolSize("pt", false))
	assert.Equal(t, 3, phrases.PoolSize("pt", true))
}

func TestRoomDeleteCascades(t *testing.T) {
	conn := requireDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	room := &game.Room{ID: "7b0c6a3e-0000-4000-8000-000000000101", Code: "CASCAD", Status: game.StatusWaiting, RoundsTotal: 1, SecondsPerRound: 30, CreatedAt: now}
	ana := &game.Player{ID: "7b0c6a3e-0000-4000-8000-000000000111", RoomID: room.ID, UserID: "ana", Seat: 1, JoinedAt: now}
	ben := &game.Player{ID: "7b0c6a3e-0000-4000-8000-000000000112", RoomID: room.ID, UserID: "ben", Seat: 2, JoinedAt: now}
	require.NoError(t, repo.CreateRoom(ctx, room, ana))
	require.NoError(t, repo.CreatePlayer(ctx, ben))
	round := game.Round{ID: "7b0c6a3e-0000-4000-8000-000000000121", Number: 1, PromptPhrase: "Something blue", StartedAt: &now}
	require.NoError(t, repo.StartRoom(ctx, room.ID, []game.Round{round}))
	require.NoError(t, repo.CreatePhoto(ctx, &game.RoundPhoto{ID: "7b0c6a3e-0000-4000-8000-000000000131", RoundID: round.ID, PlayerID: ana.ID, PhotoURL: "https://img.example/a.jpg", UploadedAt: now}))
	require.NoError(t, repo.CreateVote(ctx, &game.Vote{ID: "7b0c6a3e-0000-4000-8000-000000000141", RoundID: round.ID, VoterPlayerID: ben.ID, VotedPlayerID: ana.ID, CreatedAt: now}))

	selfVote := &game.Vote{ID: "7b0c6a3e-0000-4000-8000-000000000142", RoundID: round.ID, VoterPlayerID: ana.ID, VotedPlayerID: ana.ID, CreatedAt: now}
	assert.Error(t, repo.CreateVote(ctx, selfVote))

	orphan := &game.RoundPhoto{ID: "7b0c6a3e-0000-4000-8000-000000000132", RoundID: round.ID, PlayerID: "7b0c6a3e-0000-4000-8000-0000000001ff", PhotoURL: "https://img.example/x.jpg", UploadedAt: now}
	assert.Error(t, repo.CreatePhoto(ctx, orphan))

	require.NoError(t, conn.WithContext(ctx).Delete(&Room{ID: room.ID}).Error)

	for _, model := range []any{&Player{}, &Round{}, &RoundPhoto{}, &Vote{}} {
		var count int64
		require.NoError(t, conn.WithContext(ctx).Model(model).
			Where("id IN ?", []string{ana.ID, ben.ID, round.ID, "7b0c6a3e-0000-4000-8000-000000000131", "7b0c6a3e-0000-4000-8000-000000000141"}).
			Count(&count).Error)
		assert.Zero(t, count, "%T rows left after room delete", model)
	}
}
