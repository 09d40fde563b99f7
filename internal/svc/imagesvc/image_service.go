package imagesvc

import (
	"context"

	"github.com/mkrupp/quill/internal/domain"
)

// ImageService turns uploaded pictures into stored-ready avatars.
type ImageService interface {
	// ProcessAvatar validates an upload, fits it into the thumbnail box and
	// assigns it a random file name keeping the original extension.
	ProcessAvatar(ctx context.Context, filename string, data []byte) (*domain.Avatar, error)

	// DefaultAvatar renders the placeholder every account starts with.
	DefaultAvatar(ctx context.Context) (*domain.Avatar, error)

	// MaxSize returns the maximum allowed file size in bytes.
	MaxSize() int64

	// CheckUploadConstraints checks the file name, size and magic header of an upload.
	// Returns the detected MIME type, or an error if the constraints are not met.
	CheckUploadConstraints(filename string, size int64, image []byte) (string, bool, error)
}
