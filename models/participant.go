package models

import "time"

type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantApproved ParticipantStatus = "approved"
	ParticipantRejected ParticipantStatus = "rejected"
)

type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       int               `json:"user_id" db:"user_id"`
	Status       ParticipantStatus `json:"status" db:"status"`
	JoinedAt     time.Time         `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// ValidParticipantStatus reports whether s is a known application state.
func ValidParticipantStatus(s ParticipantStatus) bool {
	switch s {
	case ParticipantPending, ParticipantApproved, ParticipantRejected:
		return true
	}
	return false
}
