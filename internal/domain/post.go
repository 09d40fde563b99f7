package domain

import (
	"errors"
	"time"
)

var (
	// ErrPostNotFound is returned when looking up a non-existent post.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden is returned when a user tries to modify a post they do not own.
	ErrForbidden = errors.New("forbidden")
)

// Post is a blog entry owned by exactly one user.
type Post struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	Author    *User // populated on reads
	CreatedAt int64 // Unix timestamp, set once on creation
}

// DatePosted returns the creation time in UTC.
func (p *Post) DatePosted() time.Time {
	return time.Unix(p.CreatedAt, 0).UTC()
}

// OwnedBy reports whether the user is the post's author.
func (p *Post) OwnedBy(user *User) bool {
	return user != nil && p.AuthorID == user.ID
}
