package types

// Permission is a single capability bit carried by a role.
type Permission int

const (
	// PermFollow allows following other users.
	PermFollow Permission = 0x01
	// PermComment allows commenting on posts.
	PermComment Permission = 0x02
	// PermWriteArticles allows authoring posts.
	PermWriteArticles Permission = 0x04
	// PermModerateComments allows disabling and restoring comments.
	PermModerateComments Permission = 0x08
	// PermAdminister grants every capability.
	PermAdminister Permission = 0x80
)

// Role bundles a named set of permission bits assigned to users.
type Role struct {
	// ID is the unique identifier of the role.
	ID int `json:"id" db:"id"`

	// Name is the unique human-readable role name (e.g. "User", "Moderator").
	Name string `json:"name" db:"name"`

	// Permissions is the union of permission bits granted by this role.
	Permissions Permission `json:"permissions" db:"permissions"`

	// Default marks the role assigned to new accounts. Exactly one role
	// carries this flag.
	Default bool `json:"default" db:"is_default"`
}

// Has reports whether the role grants the given permission bit.
func (r Role) Has(p Permission) bool {
	return r.Permissions&p == p
}

// RoleSpec describes one entry of the canonical role table used by seeding.
type RoleSpec struct {
	Name        string
	Permissions Permission
	Default     bool
}

// CanonicalRoles is the authoritative role table. Seeding upserts these
// entries: existing roles get their bitmask refreshed, missing ones are
// inserted, and exactly one role stays flagged default.
var CanonicalRoles = []RoleSpec{
	{Name: "User", Permissions: PermFollow | PermComment | PermWriteArticles, Default: true},
	{Name: "Moderator", Permissions: PermFollow | PermComment | PermWriteArticles | PermModerateComments},
	{Name: "Administrator", Permissions: PermFollow | PermComment | PermWriteArticles | PermModerateComments | PermAdminister},
}
