package models

import "time"

// UserRole mirrors the clan-site role relevant to this core: global
// admins may manage any tournament.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// User is the read-side projection of the identity collaborator.
// Accounts are created and authenticated elsewhere; this core only
// resolves display identity and the global-admin flag.
type User struct {
	ID        int       `json:"id" db:"id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`
}
