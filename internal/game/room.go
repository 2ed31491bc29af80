package game

import "time"

// transitions lists the statuses each status may move to. Finished is terminal.
var transitions = map[Status][]Status{
	StatusWaiting: {StatusPlaying},
	StatusPlaying: {StatusVoting, StatusFinished},
	StatusVoting:  {StatusPlaying, StatusFinished},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateSettings(roundsTotal, secondsPerRound int) error {
	if roundsTotal < MinRounds || roundsTotal > MaxRounds {
		return validationf("rounds total must be between %d and %d", MinRounds, MaxRounds)
	}
	if secondsPerRound < MinSecondsPerRound || secondsPerRound > MaxSecondsPerRound {
		return validationf("seconds per round must be between %d and %d", MinSecondsPerRound, MaxSecondsPerRound)
	}
	return nil
}

// checkJoin decides whether userID may take a new seat. It returns the existing
// membership when the user already joined.
func checkJoin(room *Room, userID string, maxPlayers int) (*Player, error) {
	if room.Status != StatusWaiting {
		return nil, ErrRoomNotWaiting
	}
	if existing, ok := room.FindPlayerByUser(userID); ok {
		return existing, nil
	}
	if len(room.Players) >= maxPlayers {
		return nil, ErrRoomFull
	}
	return nil, nil
}

func nextSeat(room *Room) int {
	seat := 0
	for _, player := range room.Players {
		if player.Seat > seat {
			seat = player.Seat
		}
	}
	return seat + 1
}

func checkStart(room *Room) error {
	if room.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(room.Players) < MinPlayersToStart {
		return ErrNotEnoughPlayers
	}
	return nil
}

// planRounds builds every round up front; round 1 starts at at.
func planRounds(room *Room, phrases []string, at time.Time, newID func() string) []Round {
	rounds := make([]Round, 0, len(phrases))
	for i, phrase := range phrases {
		round := Round{
			ID:           newID(),
			RoomID:       room.ID,
			Number:       i + 1,
			PromptPhrase: phrase,
		}
		if i == 0 {
			started := at
			round.StartedAt = &started
		}
		rounds = append(rounds, round)
	}
	return rounds
}

func checkSubmission(room *Room, round *Round) error {
	if round.Finished() {
		return ErrRoundFinished
	}
	if !round.Started() {
		return ErrRoundNotStarted
	}
	if room.Status != StatusPlaying {
		return ErrNotPlaying
	}
	return nil
}

// checkVote closes a round's ballot once it is finished or scored, so the applied
// awards always cover every stored vote.
func checkVote(room *Room, round *Round) error {
	if round.Finished() {
		return ErrRoundFinished
	}
	if round.ScoredAt != nil {
		return ErrAlreadyScored
	}
	if !round.Started() {
		return ErrRoundNotStarted
	}
	if room.Status != StatusVoting {
		return ErrVotingClosed
	}
	return nil
}

func checkStartVoting(room *Room) error {
	if !canTransition(room.Status, StatusVoting) {
		return ErrNotPlaying
	}
	return nil
}

// nextRound returns the round to start next, or ok=false once every round finished.
// Rounds must finish in number order for the finished count to name the next round.
func nextRound(room *Room) (*Round, bool, error) {
	if room.Status == StatusWaiting {
		return nil, false, ErrGameNotStarted
	}
	if room.Status == StatusFinished {
		return nil, false, ErrRoomFinished
	}
	if _, active := room.CurrentRound(); active {
		return nil, false, ErrRoundInProgress
	}
	finished := room.FinishedRounds()
	if finished >= room.RoundsTotal {
		return nil, false, nil
	}
	round, ok := room.RoundByNumber(finished + 1)
	if !ok {
		return nil, false, ErrRoundNotFound
	}
	if round.Started() {
		return nil, false, ErrRoundInProgress
	}
	return round, true, nil
}

func checkFinish(room *Room) error {
	if room.Status == StatusFinished {
		return ErrRoomFinished
	}
	if !canTransition(room.Status, StatusFinished) {
		return ErrNotPlaying
	}
	if len(room.Players) == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// pickWinner returns the highest scorer; equal scores go to the earliest seat.
func pickWinner(players []Player) (Player, bool) {
	if len(players) == 0 {
		return Player{}, false
	}
	winner := players[0]
	for _, player := range players[1:] {
		if player.Score > winner.Score || (player.Score == winner.Score && player.Seat < winner.Seat) {
			winner = player
		}
	}
	return winner, true
}
