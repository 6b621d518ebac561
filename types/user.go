package types

import "time"

// User represents an account in the system.
// It contains identity, profile, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address. Globally unique.
	Email string `json:"email" db:"email"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the salted bcrypt hash of the user's password.
	// It is present for every account and never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Confirmed reports whether the user completed email confirmation.
	Confirmed bool `json:"confirmed" db:"confirmed"`

	// RoleID references the role that carries this user's permissions.
	RoleID int `json:"role_id" db:"role_id"`

	// Role is the resolved role, populated by store reads.
	Role Role `json:"role"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Location is a free-form profile field.
	Location string `json:"location" db:"location"`

	// AboutMe is a free-form profile field.
	AboutMe string `json:"about_me" db:"about_me"`

	// AvatarKey is the object storage key of the user's avatar, if any.
	AvatarKey string `json:"avatar_key,omitempty" db:"avatar_key"`

	// MemberSince is the timestamp when the account was created.
	MemberSince time.Time `json:"member_since" db:"member_since"`

	// LastSeen is the timestamp of the user's most recent request.
	LastSeen time.Time `json:"last_seen" db:"last_seen"`
}

// Can reports whether the user's role grants the given permission.
func (u User) Can(p Permission) bool {
	return u.Role.Has(p)
}

// IsAdmin reports whether the user holds the administer bit.
func (u User) IsAdmin() bool {
	return u.Can(PermAdminister)
}

// Principal is the identity resolved for an inbound request.
type Principal struct {
	User      User
	Anonymous bool
}

// AnonymousPrincipal is the identity of an unauthenticated request.
// It denies every permission check.
func AnonymousPrincipal() Principal {
	return Principal{Anonymous: true}
}

// Can reports whether the principal holds the given permission.
func (p Principal) Can(perm Permission) bool {
	if p.Anonymous {
		return false
	}
	return p.User.Can(perm)
}

// Follow records a directed follow edge between two accounts.
type Follow struct {
	FollowerID int       `json:"follower_id" db:"follower_id"`
	FollowedID int       `json:"followed_id" db:"followed_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
