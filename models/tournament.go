package models

import (
	"time"

	"github.com/lib/pq"
)

// TournamentStatus represents the lifecycle states, matching the CHECK constraint in the DB.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusOpen      TournamentStatus = "open"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

// BracketType distinguishes how a tournament's ledger is projected.
type BracketType string

const (
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
	BracketRoundRobin        BracketType = "round_robin"
)

type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Description     *string          `json:"description,omitempty" db:"description"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	IsPublic        bool             `json:"is_public" db:"is_public"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	BracketType     BracketType      `json:"bracket_type" db:"bracket_type"`
	Status          TournamentStatus `json:"status" db:"status"`
	Sponsors        pq.StringArray   `json:"sponsors" db:"sponsors"`
	Prizes          pq.StringArray   `json:"prizes" db:"prizes"`
	CreatorID       int              `json:"creator_id" db:"creator_id"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`

	// Optional linked entities, populated by services.
	Creator      *User         `json:"creator,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// ValidBracketType reports whether b is one of the supported kinds.
func ValidBracketType(b BracketType) bool {
	switch b {
	case BracketSingleElimination, BracketDoubleElimination, BracketRoundRobin:
		return true
	}
	return false
}

// ValidTournamentStatus reports whether s is a known lifecycle state.
func ValidTournamentStatus(s TournamentStatus) bool {
	switch s {
	case StatusDraft, StatusOpen, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}
