package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
)

// Match is one row of the ledger. Player2ID == nil denotes a bye.
// Player and winner references are plain user ids, not foreign keys:
// removing a participant must leave played matches untouched.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	MatchNumber  int         `json:"match_number" db:"match_number"`
	Player1ID    int         `json:"player1_id" db:"player1_id"`
	Player2ID    *int        `json:"player2_id,omitempty" db:"player2_id"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Score        *string     `json:"score,omitempty" db:"score"`
	Status       MatchStatus `json:"status" db:"status"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	ReplayKey *string `json:"-" db:"replay_key"`
	ReplayURL *string `json:"replay_url,omitempty" db:"-"`
}

// IsBye reports whether the match has only one real player.
func (m *Match) IsBye() bool {
	return m.Player2ID == nil
}

// HasPlayer reports whether userID occupies one of the match's slots.
func (m *Match) HasPlayer(userID int) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}
