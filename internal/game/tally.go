package game

import "sort"

const (
	FirstPlacePoints  = 3
	SecondPlacePoints = 1
)

// Tally converts a round's vote counts into awarded points. Targets are ranked by votes,
// highest first; equal counts keep join order (lower seat first). First place earns 3 points,
// second place earns 1 point only when it received at least one vote.
// Tally is pure; Service.CalculateRoundScores applies the result to player scores.
func Tally(counts []VoteCount, seats map[string]int) map[string]int {
	awards := make(map[string]int)
	if len(counts) == 0 {
		return awards
	}
	ranked := make([]VoteCount, len(counts))
	copy(ranked, counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return seatOf(seats, ranked[i].PlayerID) < seatOf(seats, ranked[j].PlayerID)
	})
	if ranked[0].Votes > 0 {
		awards[ranked[0].PlayerID] = FirstPlacePoints
	}
	if len(ranked) > 1 && ranked[1].Votes > 0 {
		awards[ranked[1].PlayerID] = SecondPlacePoints
	}
	return awards
}

// Leaderboard orders players by score, highest first, ties by seat.
func Leaderboard(players []Player) []Player {
	board := make([]Player, len(players))
	copy(board, players)
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Seat < board[j].Seat
	})
	return board
}

// seatOf puts unknown players after every seated one.
func seatOf(seats map[string]int, playerID string) int {
	if seat, ok := seats[playerID]; ok {
		return seat
	}
	return int(^uint(0) >> 1)
}
