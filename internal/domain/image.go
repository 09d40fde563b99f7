package domain

import "errors"

var (
	ErrImageTypeNotSupported = errors.New("image type not supported")
	ErrImageTypeMismatch     = errors.New("image ext does not match content type")
	ErrImageTooLarge         = errors.New("image too large")
)

// Avatar is a processed profile picture ready to be stored.
type Avatar struct {
	Filename string // <16 hex chars><ext>
	MIMEType string
	Data     []byte
}

// ErrAvatarNotFound is returned when a stored avatar does not exist.
var ErrAvatarNotFound = errors.New("avatar not found")

// ErrInvalidAvatarName is returned for names that are not plain file names.
var ErrInvalidAvatarName = errors.New("invalid avatar name")
