package types

import "time"

// Post represents an article authored by a user.
type Post struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// Body is the raw markdown source of the post.
	Body string `json:"body" db:"body"`

	// BodyHTML is the sanitized HTML rendering of Body.
	BodyHTML string `json:"body_html" db:"body_html"`

	// AuthorID references the user who wrote the post.
	AuthorID int `json:"author_id" db:"author_id"`

	// CreatedAt is the timestamp at which the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment represents a reply attached to a post.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int `json:"id" db:"id"`

	// Body is the raw text of the comment.
	Body string `json:"body" db:"body"`

	// BodyHTML is the sanitized HTML rendering of Body.
	BodyHTML string `json:"body_html" db:"body_html"`

	// AuthorID references the user who wrote the comment.
	AuthorID int `json:"author_id" db:"author_id"`

	// PostID references the post the comment belongs to.
	PostID int `json:"post_id" db:"post_id"`

	// Disabled hides the comment from listings when set by a moderator.
	Disabled bool `json:"disabled" db:"disabled"`

	// CreatedAt is the timestamp at which the comment was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
