package models

// TournamentAdmin is a capability grant: the user may manage the
// tournament's participants and matches alongside the creator and
// global admins.
type TournamentAdmin struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`
	UserID       int `json:"user_id" db:"user_id"`

	User *User `json:"user,omitempty" db:"-"`
}
