package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when a username or email is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password too long")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// DefaultImageFile is the avatar every account starts with.
const DefaultImageFile = "default.png"

// User represents a registered blog author.
type User struct {
	ID           int64  // Unique identifier
	Username     string // Unique display name
	Email        string // Unique login email
	PasswordHash []byte // bcrypt hash
	ImageFile    string // Avatar filename
	CreatedAt    int64  // Unix timestamp of account creation
}

// AvatarFile returns the avatar filename, falling back to the default.
func (u *User) AvatarFile() string {
	if u == nil || u.ImageFile == "" {
		return DefaultImageFile
	}

	return u.ImageFile
}
