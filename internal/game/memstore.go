package game

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Repository kept in process memory. It backs tests and
// deployments without DATABASE_URL.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	codes   map[string]string
	players map[string]*Player
	rounds  map[string]*Round
	photos  map[string][]RoundPhoto
	votes   map[string][]Vote
	results map[string]*MatchResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*Room),
		codes:   make(map[string]string),
		players: make(map[string]*Player),
		rounds:  make(map[string]*Round),
		photos:  make(map[string][]RoundPhoto),
		votes:   make(map[string][]Vote),
		results: make(map[string]*MatchResult),
	}
}

func (s *MemoryStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.codes[code]
	return ok, nil
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *Room, host *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.codes[room.Code]; ok {
		return ErrDuplicate
	}
	stored := *room
	stored.Players = nil
	stored.Rounds = nil
	s.rooms[room.ID] = &stored
	s.codes[room.Code] = room.ID
	if host != nil {
		player := *host
		s.players[player.ID] = &player
	}
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRoom(roomID)
}

func (s *MemoryStore) GetRoomByCode(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.codes[code]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return s.loadRoom(roomID)
}

func (s *MemoryStore) ListRoomsByStatus(_ context.Context, status Status) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Room, 0)
	for id, room := range s.rooms {
		if room.Status != status {
			continue
		}
		loaded, err := s.loadRoom(id)
		if err != nil {
			return nil, err
		}
		list = append(list, *loaded)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MemoryStore) UpdateRoomStatus(_ context.Context, roomID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRecordNotFound
	}
	room.Status = status
	return nil
}

func (s *MemoryStore) CreatePlayer(_ context.Context, player *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[player.RoomID]; !ok {
		return ErrRecordNotFound
	}
	for _, existing := range s.players {
		if existing.RoomID != player.RoomID {
			continue
		}
		if existing.UserID == player.UserID || existing.Seat == player.Seat {
			return ErrDuplicate
		}
	}
	stored := *player
	s.players[player.ID] = &stored
	return nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, playerID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *player
	return &copied, nil
}

func (s *MemoryStore) GetPlayerByRoomAndUser(_ context.Context, roomID, userID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, player := range s.players {
		if player.RoomID == roomID && player.UserID == userID {
			copied := *player
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) CountPlayers(_ context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, player := range s.players {
		if player.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) StartRoom(_ context.Context, roomID string, rounds []Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRecordNotFound
	}
	numbers := make(map[int]struct{})
	for _, existing := range s.rounds {
		if existing.RoomID == roomID {
			numbers[existing.Number] = struct{}{}
		}
	}
	for _, round := range rounds {
		if _, taken := numbers[round.Number]; taken {
			return ErrDuplicate
		}
		if _, taken := s.rounds[round.ID]; taken {
			return ErrDuplicate
		}
		numbers[round.Number] = struct{}{}
	}
	for _, round := range rounds {
		stored := copyRound(round)
		stored.RoomID = roomID
		s.rounds[round.ID] = &stored
	}
	room.Status = StatusPlaying
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, roundID string) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := copyRound(*round)
	return &copied, nil
}

func (s *MemoryStore) ListRounds(_ context.Context, roomID string) ([]Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomRounds(roomID), nil
}

func (s *MemoryStore) GetCurrentRound(_ context.Context, roomID string) (*Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, round := range s.roomRounds(roomID) {
		if round.Active() {
			return &round, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) StartRound(_ context.Context, roomID, roundID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRecordNotFound
	}
	round, ok := s.rounds[roundID]
	if !ok || round.RoomID != roomID {
		return ErrRecordNotFound
	}
	started := at
	round.StartedAt = &started
	room.Status = StatusPlaying
	return nil
}

func (s *MemoryStore) FinishRound(_ context.Context, roundID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return ErrRecordNotFound
	}
	finished := at
	round.FinishedAt = &finished
	return nil
}

func (s *MemoryStore) CreatePhoto(_ context.Context, photo *RoundPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[photo.RoundID]; !ok {
		return ErrRecordNotFound
	}
	for _, existing := range s.photos[photo.RoundID] {
		if existing.PlayerID == photo.PlayerID {
			return ErrDuplicate
		}
	}
	s.photos[photo.RoundID] = append(s.photos[photo.RoundID], *photo)
	return nil
}

func (s *MemoryStore) GetPhotoByRoundAndPlayer(_ context.Context, roundID, playerID string) (*RoundPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, photo := range s.photos[roundID] {
		if photo.PlayerID == playerID {
			return &photo, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) ListPhotos(_ context.Context, roundID string) ([]RoundPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoundPhoto, len(s.photos[roundID]))
	copy(list, s.photos[roundID])
	return list, nil
}

func (s *MemoryStore) CreateVote(_ context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[vote.RoundID]; !ok {
		return ErrRecordNotFound
	}
	for _, existing := range s.votes[vote.RoundID] {
		if existing.VoterPlayerID == vote.VoterPlayerID {
			return ErrDuplicate
		}
	}
	s.votes[vote.RoundID] = append(s.votes[vote.RoundID], *vote)
	return nil
}

func (s *MemoryStore) GetVoteByRoundAndVoter(_ context.Context, roundID, voterID string) (*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vote := range s.votes[roundID] {
		if vote.VoterPlayerID == voterID {
			return &vote, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) ListVotes(_ context.Context, roundID string) ([]Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Vote, len(s.votes[roundID]))
	copy(list, s.votes[roundID])
	return list, nil
}

func (s *MemoryStore) CountVotesByTarget(_ context.Context, roundID string) ([]VoteCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := make(map[string]int)
	counts := make([]VoteCount, 0)
	for _, vote := range s.votes[roundID] {
		i, ok := index[vote.VotedPlayerID]
		if !ok {
			i = len(counts)
			index[vote.VotedPlayerID] = i
			counts = append(counts, VoteCount{PlayerID: vote.VotedPlayerID})
		}
		counts[i].Votes++
	}
	return counts, nil
}

func (s *MemoryStore) ApplyRoundScores(_ context.Context, roundID string, awards map[string]int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return ErrRecordNotFound
	}
	if round.ScoredAt != nil {
		return ErrDuplicate
	}
	for playerID := range awards {
		if _, ok := s.players[playerID]; !ok {
			return ErrRecordNotFound
		}
	}
	for playerID, points := range awards {
		s.players[playerID].Score += points
	}
	scored := at
	round.ScoredAt = &scored
	return nil
}

func (s *MemoryStore) FinishRoom(_ context.Context, result *MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[result.RoomID]
	if !ok {
		return ErrRecordNotFound
	}
	if _, exists := s.results[result.RoomID]; exists {
		return ErrDuplicate
	}
	stored := *result
	s.results[result.RoomID] = &stored
	room.Status = StatusFinished
	return nil
}

func (s *MemoryStore) GetMatchResult(_ context.Context, roomID string) (*MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[roomID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *result
	return &copied, nil
}

func (s *MemoryStore) loadRoom(roomID string) (*Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	loaded := *room
	loaded.Players = make([]Player, 0)
	for _, player := range s.players {
		if player.RoomID == roomID {
			loaded.Players = append(loaded.Players, *player)
		}
	}
	sort.Slice(loaded.Players, func(i, j int) bool {
		return loaded.Players[i].Seat < loaded.Players[j].Seat
	})
	loaded.Rounds = s.roomRounds(roomID)
	return &loaded, nil
}

func (s *MemoryStore) roomRounds(roomID string) []Round {
	rounds := make([]Round, 0)
	for _, round := range s.rounds {
		if round.RoomID == roomID {
			rounds = append(rounds, copyRound(*round))
		}
	}
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].Number < rounds[j].Number
	})
	return rounds
}

func copyRound(round Round) Round {
	round.StartedAt = copyTime(round.StartedAt)
	round.FinishedAt = copyTime(round.FinishedAt)
	round.ScoredAt = copyTime(round.ScoredAt)
	return round
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
