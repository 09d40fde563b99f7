package imagesvc

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
)

const (
	randomNameBytes  = 8 // 16 hex chars
	defaultMaxPixels = 25_000_000
)

// ThumbnailImageService implements ImageService with x/image scaling.
type ThumbnailImageService struct {
	cfg      ImageConfig
	interpol draw.Interpolator
	allowed  map[string]bool
	random   io.Reader
	log      logging.Logger
}

var _ ImageService = (*ThumbnailImageService)(nil)

// NewThumbnailImageService creates a new ThumbnailImageService.
// Returns ErrUnknownInterpolator if the configured interpolator does not exist.
func NewThumbnailImageService(cfg ImageConfig) (*ThumbnailImageService, error) {
	return newThumbnailImageService(cfg, rand.Reader)
}

func newThumbnailImageService(cfg ImageConfig, random io.Reader) (*ThumbnailImageService, error) {
	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, fmt.Errorf("get interpolator: %w", err)
	}

	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = defaultMaxPixels
	}

	allowed := make(map[string]bool)

	for _, ext := range strings.Split(cfg.AllowedExts, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed["."+ext] = true
		}
	}

	return &ThumbnailImageService{
		cfg:      cfg,
		interpol: interpol,
		allowed:  allowed,
		random:   random,
		log:      logging.GetLogger("svc.imagesvc.thumbnail_image_service"),
	}, nil
}

func (imageSvc *ThumbnailImageService) MaxSize() int64 {
	return imageSvc.cfg.MaxSize
}

func (imageSvc *ThumbnailImageService) CheckUploadConstraints(
	filename string,
	size int64,
	image []byte,
) (string, bool, error) {
	if size > imageSvc.MaxSize() {
		return "", false, domain.ErrImageTooLarge
	}

	filenameExt := strings.ToLower(filepath.Ext(filename))

	imageType, ok := imageExtTypes[filenameExt]
	if !ok || !imageSvc.allowed[filenameExt] {
		return "", false, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, filenameExt)
	}

	if image == nil {
		return imageType, true, nil
	}

	for _, header := range imageExtHeaders[imageType] {
		if bytes.HasPrefix(image, []byte(header)) {
			return imageType, true, nil
		}
	}

	return "", false, fmt.Errorf("%w: %q", domain.ErrImageTypeMismatch, filenameExt)
}

func (imageSvc *ThumbnailImageService) ProcessAvatar(
	ctx context.Context,
	filename string,
	data []byte,
) (avatar *domain.Avatar, err error) {
	log := imageSvc.log.With(logging.Group("image", "filename", filename, "size", len(data)))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "avatar processing failed", "error", err)
		} else {
			log.DebugContext(ctx, "avatar processed", "name", avatar.Filename)
		}
	}()

	inType, _, err := imageSvc.CheckUploadConstraints(filename, int64(len(data)), data)
	if err != nil {
		return nil, fmt.Errorf("check upload constraints: %w", err)
	}

	if err := checkDimensions(data, inType, imageSvc.cfg.MaxPixels); err != nil {
		return nil, fmt.Errorf("check dimensions: %w", err)
	}

	outType := thumbnailTypes[inType]

	ext := strings.ToLower(filepath.Ext(filename))
	if typeExt, ok := typeExts[outType]; ok && outType != inType {
		ext = typeExt
	}

	name, err := imageSvc.randomName(ext)
	if err != nil {
		return nil, err
	}

	thumbnail, err := thumbnailImage(data, inType, outType, imageSvc.cfg.ThumbnailSize, imageSvc.interpol)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	return &domain.Avatar{Filename: name, MIMEType: outType, Data: thumbnail}, nil
}

func (imageSvc *ThumbnailImageService) DefaultAvatar(_ context.Context) (*domain.Avatar, error) {
	data, err := placeholderImage(imageSvc.cfg.ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("render placeholder: %w", err)
	}

	return &domain.Avatar{Filename: domain.DefaultImageFile, MIMEType: MIMETypePNG, Data: data}, nil
}

func (imageSvc *ThumbnailImageService) randomName(ext string) (string, error) {
	buf := make([]byte, randomNameBytes)

	if _, err := io.ReadFull(imageSvc.random, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return hex.EncodeToString(buf) + ext, nil
}
