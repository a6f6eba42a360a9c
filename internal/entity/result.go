package entity

import "time"

type Outcome string

const (
	OutcomeBingo      Outcome = "bingo"
	OutcomeDisconnect Outcome = "disconnect"
	OutcomeRejection  Outcome = "rejection"
)

// GameResult is a finished game as kept in the results history.
type GameResult struct {
	RoomID     string    `json:"room_id"`
	WinnerSID  string    `json:"winner_sid"`
	WinnerName string    `json:"winner_name"`
	Outcome    Outcome   `json:"outcome"`
	Players    []string  `json:"players"`
	FinishedAt time.Time `json:"finished_at"`
}

// Ranked reports whether the win counts on the leaderboard. The board is keyed by display
// name, and the default names are shared by every anonymous player.
func (that GameResult) Ranked() bool {
	switch that.WinnerName {
	case "", DefaultHostName, DefaultGuestName:
		return false
	default:
		return true
	}
}

type LeaderboardEntry struct {
	PlayerName string `json:"player_name"`
	Wins       int64  `json:"wins"`
}
