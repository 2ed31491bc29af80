package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	var gen CodeGenerator
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		code, err := gen.Generate(DefaultCodeLength)
		require.NoError(t, err)
		assert.True(t, ValidCode(code, DefaultCodeLength), "invalid code %q", code)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)

	_, err := gen.Generate(0)
	assert.Error(t, err)
}

func TestNormalizeAndValidCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeCode("  abc234 "))
	assert.True(t, ValidCode("ABC234", 6))
	assert.False(t, ValidCode("ABC23", 6))
	assert.False(t, ValidCode("ABC230", 6))
	assert.False(t, ValidCode("abc234", 6))
}

func TestUniquePhrases(t *testing.T) {
	gen := NewPhraseGenerator("es")

	phrases := gen.UniquePhrases(5, "es", false)
	require.Len(t, phrases, 5)
	assertDistinct(t, phrases)

	en := gen.UniquePhrases(3, "en", false)
	require.Len(t, en, 3)
	for _, phrase := range en {
		assert.Contains(t, builtinPhrases["en"], phrase)
	}

	fallback := gen.UniquePhrases(3, "fr", false)
	for _, phrase := range fallback {
		assert.Contains(t, builtinPhrases["es"], phrase)
	}

	all := gen.UniquePhrases(1000, "es", false)
	assert.Len(t, all, gen.PoolSize("es", false))
	assertDistinct(t, all)

	withMature := gen.UniquePhrases(1000, "es", true)
	assert.Len(t, withMature, gen.PoolSize("es", true))
	assert.Greater(t, len(withMature), len(all))
	assertDistinct(t, withMature)

	assert.Empty(t, gen.UniquePhrases(0, "es", false))
}

func TestUniquePhrasesExcludesMatureByDefault(t *testing.T) {
	gen := NewPhraseGenerator("en")
	for _, phrase := range gen.UniquePhrases(1000, "en", false) {
		assert.NotContains(t, builtinMaturePhrases["en"], phrase)
	}
}

func TestAddPhrases(t *testing.T) {
	gen := NewPhraseGenerator("es")
	added := gen.AddPhrases("PT", []string{"Um gato", " ", "Um gato", "Uma ponte"}, false)
	assert.Equal(t, 2, added)
	assert.True(t, gen.Supports("pt"))
	assert.Equal(t, 2, gen.PoolSize("pt", false))

	added = gen.AddPhrases("pt", []string{"Um gato", "Algo picante"}, true)
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, gen.PoolSize("pt", false))
	assert.Equal(t, 3, gen.PoolSize("pt", true))

	assert.Zero(t, gen.AddPhrases("", []string{"x"}, false))
}

func TestTally(t *testing.T) {
	seats := map[string]int{"a": 1, "b": 2, "c": 3}

	tests := []struct {
		name   string
		counts []VoteCount
		want   map[string]int
	}{
		{
			name:   "clear order",
			counts: []VoteCount{{"c", 1}, {"a", 4}, {"b", 2}},
			want:   map[string]int{"a": 3, "b": 1},
		},
		{
			name:   "tie for first goes to lower seat",
			counts: []VoteCount{{"b", 5}, {"a", 5}, {"c", 1}},
			want:   map[string]int{"a": 3, "b": 1},
		},
		{
			name:   "second place needs a vote",
			counts: []VoteCount{{"a", 3}, {"b", 0}},
			want:   map[string]int{"a": 3},
		},
		{
			name:   "single target",
			counts: []VoteCount{{"b", 2}},
			want:   map[string]int{"b": 3},
		},
		{
			name:   "no votes",
			counts: nil,
			want:   map[string]int{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tally(tc.counts, seats))
		})
	}
}

func TestTallyDoesNotMutateInput(t *testing.T) {
	counts := []VoteCount{{"b", 1}, {"a", 2}}
	Tally(counts, map[string]int{"a": 1, "b": 2})
	assert.Equal(t, []VoteCount{{"b", 1}, {"a", 2}}, counts)
}

func TestLeaderboard(t *testing.T) {
	players := []Player{
		{ID: "a", Seat: 1, Score: 1},
		{ID: "b", Seat: 2, Score: 4},
		{ID: "c", Seat: 3, Score: 4},
	}
	board := Leaderboard(players)
	require.Len(t, board, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{board[0].ID, board[1].ID, board[2].ID})
	assert.Equal(t, "a", players[0].ID)
}

func TestPickWinner(t *testing.T) {
	winner, ok := pickWinner([]Player{
		{ID: "a", Seat: 1, Score: 3},
		{ID: "b", Seat: 2, Score: 7},
		{ID: "c", Seat: 3, Score: 7},
	})
	require.True(t, ok)
	assert.Equal(t, "b", winner.ID)

	winner, ok = pickWinner([]Player{{ID: "x", Seat: 2}, {ID: "y", Seat: 1}})
	require.True(t, ok)
	assert.Equal(t, "y", winner.ID)

	_, ok = pickWinner(nil)
	assert.False(t, ok)
}

func TestTransitions(t *testing.T) {
	assert.True(t, canTransition(StatusWaiting, StatusPlaying))
	assert.True(t, canTransition(StatusPlaying, StatusVoting))
	assert.True(t, canTransition(StatusVoting, StatusPlaying))
	assert.True(t, canTransition(StatusVoting, StatusFinished))
	assert.False(t, canTransition(StatusWaiting, StatusVoting))
	assert.False(t, canTransition(StatusFinished, StatusPlaying))
	assert.False(t, canTransition(StatusFinished, StatusWaiting))
}

func TestCheckVoteClosesScoredRounds(t *testing.T) {
	started := time.Now()
	room := &Room{Status: StatusVoting}
	round := &Round{StartedAt: &started}
	assert.NoError(t, checkVote(room, round))

	scored := started.Add(time.Second)
	round.ScoredAt = &scored
	assert.ErrorIs(t, checkVote(room, round), ErrAlreadyScored)

	round.FinishedAt = &scored
	assert.ErrorIs(t, checkVote(room, round), ErrRoundFinished)

	room.Status = StatusPlaying
	assert.ErrorIs(t, checkVote(room, &Round{StartedAt: &started}), ErrVotingClosed)
}

func TestValidateSettings(t *testing.T) {
	assert.NoError(t, validateSettings(1, 1))
	assert.NoError(t, validateSettings(20, 300))
	for _, tc := range [][2]int{{0, 60}, {21, 60}, {3, 0}, {3, 301}} {
		err := validateSettings(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrValidation, "rounds=%d seconds=%d", tc[0], tc[1])
	}
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrRoomFull, ErrConflict)
	assert.NotErrorIs(t, ErrRoomFull, ErrNotFound)
	assert.ErrorIs(t, ErrSelfVote, ErrValidation)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", ErrRoomNotFound), ErrNotFound)

	assert.Equal(t, KindConflict, KindOf(ErrAlreadyVoted))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "conflict", KindConflict.String())

	err := internal(errors.New("connection refused"))
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, "room is full", PublicMessage(ErrRoomFull))

	assert.Same(t, ErrRoomNotFound, lookupErr(ErrRecordNotFound, ErrRoomNotFound))
	assert.ErrorIs(t, lookupErr(errors.New("db down"), ErrRoomNotFound), ErrInternal)
}

func TestRoomLocksReleaseEntries(t *testing.T) {
	locks := newRoomLocks()
	unlock := locks.lock("r1")
	assert.Equal(t, 1, locks.size())
	unlock()
	assert.Equal(t, 0, locks.size())
}

func assertDistinct(t *testing.T, values []string) {
	t.Helper()
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		_, dup := seen[v]
		assert.False(t, dup, "duplicate value %q", v)
		seen[v] = struct{}{}
	}
}
