package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxCodeAttempts = 32
	maxUserIDLength = 64
	maxPhotoURLSize = 2048
)

type Options struct {
	MaxPlayers      int
	CodeLength      int
	DefaultLanguage string
	TickInterval    time.Duration
	Phrases         *PhraseGenerator
	Now             func() time.Time
	NewID           func() string
}

// Service runs PhotoClash matches. Every mutating operation on a room runs under
// that room's lock, re-reads the room, checks the state machine, writes through the
// repository in a single call and then publishes events. Rooms never share a lock.
type Service struct {
	repo       Repository
	pub        Publisher
	codes      CodeGenerator
	phrases    *PhraseGenerator
	timer      *RoundTimer
	locks      *roomLocks
	maxPlayers int
	codeLength int
	language   string
	now        func() time.Time
	newID      func() string
}

func NewService(repo Repository, pub Publisher, opts Options) *Service {
	if pub == nil {
		pub = Discard{}
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultCodeLength
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = DefaultLanguage
	}
	if opts.Phrases == nil {
		opts.Phrases = NewPhraseGenerator(opts.DefaultLanguage)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		repo:       repo,
		pub:        pub,
		phrases:    opts.Phrases,
		timer:      NewRoundTimer(pub, opts.TickInterval),
		locks:      newRoomLocks(),
		maxPlayers: opts.MaxPlayers,
		codeLength: opts.CodeLength,
		language:   opts.DefaultLanguage,
		now:        opts.Now,
		newID:      opts.NewID,
	}
}

// Timer exposes the round timer, mostly for inspection.
func (s *Service) Timer() *RoundTimer {
	return s.timer
}

// Close stops every running countdown.
func (s *Service) Close() {
	s.timer.StopAll()
}

// CreateRoom validates the settings, allocates an unused code and seats the host.
func (s *Service) CreateRoom(ctx context.Context, hostUserID string, roundsTotal, secondsPerRound int, nsfwAllowed bool) (*Room, error) {
	hostUserID, err := validateUserID(hostUserID)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(roundsTotal, secondsPerRound); err != nil {
		return nil, err
	}

	now := s.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate(s.codeLength)
		if err != nil {
			return nil, internal(err)
		}
		taken, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return nil, internal(err)
		}
		if taken {
			continue
		}
		room := &Room{
			ID:              s.newID(),
			Code:            code,
			Status:          StatusWaiting,
			RoundsTotal:     roundsTotal,
			SecondsPerRound: secondsPerRound,
			NsfwAllowed:     nsfwAllowed,
			CreatedAt:       now,
		}
		host := &Player{
			ID:       s.newID(),
			RoomID:   room.ID,
			UserID:   hostUserID,
			Seat:     1,
			JoinedAt: now,
		}
		if err := s.repo.CreateRoom(ctx, room, host); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return nil, internal(err)
		}
		created, err := s.repo.GetRoom(ctx, room.ID)
		if err != nil {
			return nil, internal(err)
		}
		log.Info().Str("room_id", created.ID).Str("room_code", created.Code).
			Int("rounds", roundsTotal).Int("seconds", secondsPerRound).Msg("room created")
		s.publish(created, EventPlayerJoined, PlayerPayload{PlayerID: host.ID, UserID: host.UserID})
		s.publish(created, EventRoomUpdated, created)
		return created, nil
	}
	return nil, internal(fmt.Errorf("no free room code after %d attempts", maxCodeAttempts))
}

// JoinRoom seats userID in a waiting room. Joining twice returns the existing player.
func (s *Service) JoinRoom(ctx context.Context, roomID, userID string) (*Player, error) {
	userID, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	var (
		player *Player
		joined bool
		room   *Room
	)
	err = s.withRoom(ctx, roomID, func(r *Room) error {
		room = r
		existing, err := checkJoin(r, userID, s.maxPlayers)
		if err != nil || existing != nil {
			player = existing
			return err
		}
		// Capacity is checked against the store too, not only the loaded roster.
		seated, err := s.repo.CountPlayers(ctx, r.ID)
		if err != nil {
			return internal(err)
		}
		if seated >= s.maxPlayers {
			return ErrRoomFull
		}
		candidate := &Player{
			ID:       s.newID(),
			RoomID:   r.ID,
			UserID:   userID,
			Seat:     nextSeat(r),
			JoinedAt: s.now(),
		}
		if err := s.repo.CreatePlayer(ctx, candidate); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return internal(err)
			}
			existing, getErr := s.repo.GetPlayerByRoomAndUser(ctx, r.ID, userID)
			if getErr != nil {
				return conflict("seat was taken concurrently, retry")
			}
			player = existing
			return nil
		}
		player = candidate
		joined = true
		r.Players = append(r.Players, *candidate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if joined {
		log.Info().Str("room_id", room.ID).Str("player_id", player.ID).Int("seat", player.Seat).Msg("player joined")
		s.publish(room, EventPlayerJoined, PlayerPayload{PlayerID: player.ID, UserID: player.UserID})
		s.publish(room, EventRoomUpdated, room)
	}
	return player, nil
}

// JoinRoomByCode resolves a typed room code and joins it.
func (s *Service) JoinRoomByCode(ctx context.Context, code, userID string) (*Player, error) {
	room, err := s.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.JoinRoom(ctx, room.ID, userID)
}

// StartGame creates every round with a distinct prompt, starts round 1 and the countdown.
func (s *Service) StartGame(ctx context.Context, roomID, language string) (*Room, error) {
	var room *Room
	err := s.withRoom(ctx, roomID, func(r *Room) error {
		if err := checkStart(r); err != nil {
			return err
		}
		if strings.TrimSpace(language) == "" {
			language = s.language
		}
		if !s.phrases.Supports(language) {
			log.Debug().Str("room_id", r.ID).Str("language", language).Str("fallback", s.language).Msg("no prompts for language, using default pool")
		}
		phrases := s.phrases.UniquePhrases(r.RoundsTotal, language, r.NsfwAllowed)
		if len(phrases) < r.RoundsTotal {
			return validationf("only %d prompts available for %d rounds", len(phrases), r.RoundsTotal)
		}
		rounds := planRounds(r, phrases, s.now(), s.newID)
		if err := s.repo.StartRoom(ctx, r.ID, rounds); err != nil {
			return internal(err)
		}
		r.Status = StatusPlaying
		r.Rounds = rounds
		s.startCountdown(r, &r.Rounds[0], r.SecondsPerRound)
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	first := room.Rounds[0]
	log.Info().Str("room_id", room.ID).Int("rounds", len(room.Rounds)).Msg("game started")
	s.publish(room, EventGameStarted, room)
	s.publish(room, EventRoundStarted, RoundPayload{
		RoundID:         first.ID,
		RoundNumber:     first.Number,
		PromptPhrase:    first.PromptPhrase,
		SecondsPerRound: room.SecondsPerRound,
	})
	return room, nil
}

// UploadPhoto stores a player's one submission for a running round.
func (s *Service) UploadPhoto(ctx context.Context, roundID, playerID, photoURL string) (*RoundPhoto, error) {
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return nil, validation("photo url is required")
	}
	if len(photoURL) > maxPhotoURLSize {
		return nil, validationf("photo url must be %d characters or fewer", maxPhotoURLSize)
	}
	var (
		photo *RoundPhoto
		room  *Room
	)
	err := s.withRound(ctx, roundID, func(r *Room, round *Round) error {
		room = r
		if err := checkSubmission(r, round); err != nil {
			return err
		}
		if _, ok := r.FindPlayer(playerID); !ok {
			return ErrPlayerNotFound
		}
		if _, err := s.repo.GetPhotoByRoundAndPlayer(ctx, round.ID, playerID); err == nil {
			return ErrDuplicatePhoto
		} else if !errors.Is(err, ErrRecordNotFound) {
			return internal(err)
		}
		candidate := &RoundPhoto{
			ID:         s.newID(),
			RoundID:    round.ID,
			PlayerID:   playerID,
			PhotoURL:   photoURL,
			UploadedAt: s.now(),
		}
		if err := s.repo.CreatePhoto(ctx, candidate); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrDuplicatePhoto
			}
			return internal(err)
		}
		photo = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(room, EventPhotoUploaded, PlayerPayload{PlayerID: playerID})
	return photo, nil
}

// StartVotingPhase closes submissions for the current round. Missing photos do not block it.
func (s *Service) StartVotingPhase(ctx context.Context, roomID string) (*Room, error) {
	return s.startVoting(ctx, roomID, "")
}

// startVoting moves a playing room to voting. A non-empty expectedRoundID makes the call
// a no-op conflict unless that round is still the current one, which keeps a stale
// timer from closing a later round.
func (s *Service) startVoting(ctx context.Context, roomID, expectedRoundID string) (*Room, error) {
	var (
		room   *Room
		photos []RoundPhoto
		round  Round
	)
	err := s.withRoom(ctx, roomID, func(r *Room) error {
		if err := checkStartVoting(r); err != nil {
			return err
		}
		current, ok := r.CurrentRound()
		if expectedRoundID != "" && (!ok || current.ID != expectedRoundID) {
			return ErrNotPlaying
		}
		if err := s.repo.UpdateRoomStatus(ctx, r.ID, StatusVoting); err != nil {
			return lookupErr(err, ErrRoomNotFound)
		}
		s.timer.Stop(r.Code)
		r.Status = StatusVoting
		room = r
		if ok {
			round = *current
			list, err := s.repo.ListPhotos(ctx, current.ID)
			if err != nil {
				return internal(err)
			}
			photos = list
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room_id", room.ID).Str("round_id", round.ID).Int("photos", len(photos)).Msg("voting started")
	s.publish(room, EventVotingStarted, VotingPayload{RoundID: round.ID, Photos: photos})
	return room, nil
}

// Vote records voterPlayerID's single vote for the round.
func (s *Service) Vote(ctx context.Context, roundID, voterPlayerID, votedPlayerID string) (*Vote, error) {
	if voterPlayerID == votedPlayerID {
		return nil, ErrSelfVote
	}
	if voterPlayerID == "" || votedPlayerID == "" {
		return nil, validation("voter and voted player are required")
	}
	var (
		vote *Vote
		room *Room
	)
	err := s.withRound(ctx, roundID, func(r *Room, round *Round) error {
		room = r
		if err := checkVote(r, round); err != nil {
			return err
		}
		if _, ok := r.FindPlayer(voterPlayerID); !ok {
			return ErrPlayerNotFound
		}
		if _, ok := r.FindPlayer(votedPlayerID); !ok {
			return ErrPlayerNotFound
		}
		if _, err := s.repo.GetVoteByRoundAndVoter(ctx, round.ID, voterPlayerID); err == nil {
			return ErrAlreadyVoted
		} else if !errors.Is(err, ErrRecordNotFound) {
			return internal(err)
		}
		candidate := &Vote{
			ID:            s.newID(),
			RoundID:       round.ID,
			VoterPlayerID: voterPlayerID,
			VotedPlayerID: votedPlayerID,
			CreatedAt:     s.now(),
		}
		if err := s.repo.CreateVote(ctx, candidate); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrAlreadyVoted
			}
			return internal(err)
		}
		vote = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(room, EventVoteRegistered, VotePayload{RoundID: roundID, VoterID: voterPlayerID})
	return vote, nil
}

// CalculateRoundScores tallies the round's votes and adds the awards to player scores.
// A round is scored once; later calls fail with ErrAlreadyScored.
func (s *Service) CalculateRoundScores(ctx context.Context, roundID string) (map[string]int, error) {
	var (
		awards map[string]int
		room   *Room
		number int
	)
	err := s.withRound(ctx, roundID, func(r *Room, round *Round) error {
		room = r
		number = round.Number
		if round.ScoredAt != nil {
			return ErrAlreadyScored
		}
		if !round.Started() {
			return ErrRoundNotStarted
		}
		counts, err := s.repo.CountVotesByTarget(ctx, round.ID)
		if err != nil {
			return internal(err)
		}
		awards = Tally(counts, r.seatOrder())
		if err := s.repo.ApplyRoundScores(ctx, round.ID, awards, s.now()); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrAlreadyScored
			}
			return internal(err)
		}
		for i := range r.Players {
			r.Players[i].Score += awards[r.Players[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room_id", room.ID).Str("round_id", roundID).Interface("awards", awards).Msg("round scored")
	s.publish(room, EventRoundScored, ScoresPayload{
		RoundID:     roundID,
		RoundNumber: number,
		Scores:      awards,
		Leaderboard: Leaderboard(room.Players),
	})
	return awards, nil
}

// FinishRound stamps the round finished. It never touches scores.
func (s *Service) FinishRound(ctx context.Context, roundID string) (*Round, error) {
	var (
		finished Round
		room     *Room
		scores   map[string]int
	)
	err := s.withRound(ctx, roundID, func(r *Room, round *Round) error {
		room = r
		if !round.Started() {
			return ErrRoundNotStarted
		}
		if round.Finished() {
			return ErrRoundFinished
		}
		at := s.now()
		if err := s.repo.FinishRound(ctx, round.ID, at); err != nil {
			return lookupErr(err, ErrRoundNotFound)
		}
		s.timer.Stop(r.Code)
		round.FinishedAt = &at
		finished = *round
		scores = map[string]int{}
		if round.ScoredAt != nil {
			counts, err := s.repo.CountVotesByTarget(ctx, round.ID)
			if err != nil {
				return internal(err)
			}
			scores = Tally(counts, r.seatOrder())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room_id", room.ID).Str("round_id", finished.ID).Int("round", finished.Number).Msg("round finished")
	s.publish(room, EventRoundFinished, ScoresPayload{
		RoundID:     finished.ID,
		RoundNumber: finished.Number,
		Scores:      scores,
		Leaderboard: Leaderboard(room.Players),
	})
	return &finished, nil
}

// StartNextRound starts round finishedCount+1. ok is false, with a nil error, once every
// round has finished.
func (s *Service) StartNextRound(ctx context.Context, roomID string) (round *Round, ok bool, err error) {
	var room *Room
	err = s.withRoom(ctx, roomID, func(r *Room) error {
		next, more, err := nextRound(r)
		if err != nil || !more {
			return err
		}
		at := s.now()
		if err := s.repo.StartRound(ctx, r.ID, next.ID, at); err != nil {
			return lookupErr(err, ErrRoundNotFound)
		}
		next.StartedAt = &at
		r.Status = StatusPlaying
		s.startCountdown(r, next, r.SecondsPerRound)
		started := *next
		round = &started
		ok = true
		room = r
		return nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	log.Info().Str("room_id", room.ID).Str("round_id", round.ID).Int("round", round.Number).Msg("round started")
	s.publish(room, EventRoundStarted, RoundPayload{
		RoundID:         round.ID,
		RoundNumber:     round.Number,
		PromptPhrase:    round.PromptPhrase,
		SecondsPerRound: room.SecondsPerRound,
	})
	s.publish(room, EventRoomUpdated, room)
	return round, true, nil
}

// FinishGame declares the winner and closes the room for good.
func (s *Service) FinishGame(ctx context.Context, roomID string) (*MatchResult, error) {
	var (
		result *MatchResult
		room   *Room
	)
	err := s.withRoom(ctx, roomID, func(r *Room) error {
		if err := checkFinish(r); err != nil {
			return err
		}
		winner, _ := pickWinner(r.Players)
		candidate := &MatchResult{
			ID:             s.newID(),
			RoomID:         r.ID,
			WinnerPlayerID: winner.ID,
			TotalRounds:    r.RoundsTotal,
			RoundsPlayed:   r.FinishedRounds(),
			CreatedAt:      s.now(),
		}
		if err := s.repo.FinishRoom(ctx, candidate); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrRoomFinished
			}
			return internal(err)
		}
		s.timer.Stop(r.Code)
		r.Status = StatusFinished
		result = candidate
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room_id", room.ID).Str("winner_id", result.WinnerPlayerID).Msg("match finished")
	s.publish(room, EventMatchFinished, MatchPayload{
		MatchResult: result,
		Leaderboard: Leaderboard(room.Players),
	})
	return result, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, lookupErr(err, ErrRoomNotFound)
	}
	return room, nil
}

func (s *Service) GetRoomByCode(ctx context.Context, code string) (*Room, error) {
	code = NormalizeCode(code)
	if !ValidCode(code, s.codeLength) {
		return nil, ErrRoomNotFound
	}
	room, err := s.repo.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, ErrRoomNotFound)
	}
	return room, nil
}

// GetPlayer returns a seated player; roomID, when set, must be the player's room.
func (s *Service) GetPlayer(ctx context.Context, roomID, playerID string) (*Player, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, ErrPlayerNotFound
	}
	player, err := s.repo.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, lookupErr(err, ErrPlayerNotFound)
	}
	if roomID != "" && player.RoomID != roomID {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

func (s *Service) GetCurrentRound(ctx context.Context, roomID string) (*Round, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	round, err := s.repo.GetCurrentRound(ctx, roomID)
	if err != nil {
		return nil, lookupErr(err, ErrNoActiveRound)
	}
	return round, nil
}

func (s *Service) ListRounds(ctx context.Context, roomID string) ([]Round, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rounds, err := s.repo.ListRounds(ctx, roomID)
	if err != nil {
		return nil, internal(err)
	}
	return rounds, nil
}

func (s *Service) GetRoundPhotos(ctx context.Context, roundID string) ([]RoundPhoto, error) {
	if _, err := s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	photos, err := s.repo.ListPhotos(ctx, roundID)
	if err != nil {
		return nil, internal(err)
	}
	return photos, nil
}

func (s *Service) GetRoundVotes(ctx context.Context, roundID string) ([]Vote, error) {
	if _, err := s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	votes, err := s.repo.ListVotes(ctx, roundID)
	if err != nil {
		return nil, internal(err)
	}
	return votes, nil
}

func (s *Service) Leaderboard(ctx context.Context, roomID string) ([]Player, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return Leaderboard(room.Players), nil
}

func (s *Service) GetMatchResult(ctx context.Context, roomID string) (*MatchResult, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	result, err := s.repo.GetMatchResult(ctx, roomID)
	if err != nil {
		return nil, lookupErr(err, ErrResultNotFound)
	}
	return result, nil
}

// PauseTimer freezes the room's countdown; it reports false when none was running.
func (s *Service) PauseTimer(ctx context.Context, roomID string) (bool, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	unlock := s.locks.lock(room.ID)
	defer unlock()
	paused := s.timer.Pause(room.Code)
	if paused {
		log.Info().Str("room_id", room.ID).Msg("timer paused")
	}
	return paused, nil
}

// ResumeTimer continues a paused countdown from its remaining seconds.
func (s *Service) ResumeTimer(ctx context.Context, roomID string) (bool, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	unlock := s.locks.lock(room.ID)
	defer unlock()
	if room.Status != StatusPlaying {
		return false, ErrNotPlaying
	}
	resumed := s.timer.Resume(room.Code)
	if resumed {
		log.Info().Str("room_id", room.ID).Msg("timer resumed")
	}
	return resumed, nil
}

// RestoreTimers restarts countdowns for rooms that were mid-round when the process
// stopped. Rounds whose time already ran out move to voting straight away.
func (s *Service) RestoreTimers(ctx context.Context) (int, error) {
	rooms, err := s.repo.ListRoomsByStatus(ctx, StatusPlaying)
	if err != nil {
		return 0, internal(err)
	}
	restored := 0
	for i := range rooms {
		room := &rooms[i]
		round, ok := room.CurrentRound()
		if !ok {
			continue
		}
		elapsed := s.now().Sub(*round.StartedAt)
		remaining := room.SecondsPerRound - int(math.Ceil(elapsed.Seconds()))
		unlock := s.locks.lock(room.ID)
		if remaining <= 0 {
			roomID, roundID := room.ID, round.ID
			go s.expireRound(roomID, roundID)
		} else {
			s.startCountdown(room, round, remaining)
		}
		unlock()
		restored++
		log.Info().Str("room_id", room.ID).Int("remaining", remaining).Msg("round timer restored")
	}
	return restored, nil
}

func (s *Service) startCountdown(room *Room, round *Round, seconds int) {
	roomID, roundID := room.ID, round.ID
	s.timer.Start(room.Code, seconds, func() {
		s.expireRound(roomID, roundID)
	})
}

// expireRound is the timer's single-shot dispatch; it is never retried.
func (s *Service) expireRound(roomID, roundID string) {
	_, err := s.startVoting(context.Background(), roomID, roundID)
	if err == nil {
		return
	}
	switch KindOf(err) {
	case KindConflict, KindNotFound:
		log.Debug().Str("room_id", roomID).Str("round_id", roundID).Err(err).Msg("timer expiry ignored")
	default:
		log.Error().Str("room_id", roomID).Str("round_id", roundID).Err(err).Msg("timer expiry failed")
		if room, getErr := s.repo.GetRoom(context.Background(), roomID); getErr == nil {
			s.publish(room, EventError, ErrorPayload{Message: PublicMessage(err)})
		}
	}
}

func (s *Service) withRoom(ctx context.Context, roomID string, fn func(room *Room) error) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrRoomNotFound
	}
	unlock := s.locks.lock(roomID)
	defer unlock()
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return lookupErr(err, ErrRoomNotFound)
	}
	return fn(room)
}

// withRound locks the round's room and hands fn the round as re-read under the lock.
func (s *Service) withRound(ctx context.Context, roundID string, fn func(room *Room, round *Round) error) error {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return err
	}
	return s.withRoom(ctx, round.RoomID, func(room *Room) error {
		for i := range room.Rounds {
			if room.Rounds[i].ID == roundID {
				return fn(room, &room.Rounds[i])
			}
		}
		return ErrRoundNotFound
	})
}

func (s *Service) getRound(ctx context.Context, roundID string) (*Round, error) {
	if strings.TrimSpace(roundID) == "" {
		return nil, ErrRoundNotFound
	}
	round, err := s.repo.GetRound(ctx, roundID)
	if err != nil {
		return nil, lookupErr(err, ErrRoundNotFound)
	}
	return round, nil
}

func (s *Service) publish(room *Room, eventType EventType, payload any) {
	s.pub.Publish(room.Code, Event{
		Type:      eventType,
		RoomID:    room.ID,
		RoomCode:  room.Code,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func validateUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", validation("user id is required")
	}
	if len(userID) > maxUserIDLength {
		return "", validationf("user id must be %d characters or fewer", maxUserIDLength)
	}
	return userID, nil
}
