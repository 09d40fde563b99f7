package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"golang.org/x/image/draw"

	"github.com/mkrupp/quill/internal/domain"
)

// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	// Supported values: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear".
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}

	defaultAvatarColor = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// fitSize scales (w, h) down to fit into a box x box square keeping the
// aspect ratio. Images that already fit are returned unchanged.
func fitSize(w, h, box int) (int, int) {
	if w <= box && h <= box {
		return w, h
	}

	if w >= h {
		return box, max(1, h*box/w)
	}

	return max(1, w*box/h), box
}

// thumbnailImage decodes data, fits it into a box x box square and encodes
// it as outType.
func thumbnailImage(data []byte, inType, outType string, box int, interpol draw.Interpolator) ([]byte, error) {
	original, err := decodeImage(bytes.NewReader(data), inType)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", errors.Join(domain.ErrImageTypeMismatch, err))
	}

	bounds := original.Bounds()
	width, height := fitSize(bounds.Dx(), bounds.Dy(), box)

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, bounds, draw.Over, nil)

	thumbnail, err := encodeImage(bitmap, outType)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return thumbnail, nil
}

// placeholderImage renders a flat gray PNG square.
func placeholderImage(size int) ([]byte, error) {
	bitmap := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(bitmap, bitmap.Bounds(), image.NewUniform(defaultAvatarColor), image.Point{}, draw.Src)

	return encodeImage(bitmap, MIMETypePNG)
}

// checkDimensions reads the image header and rejects pictures declaring
// more than maxPixels pixels. Unreadable headers count as a type mismatch.
func checkDimensions(data []byte, ctype string, maxPixels int64) error {
	decoder, err := getConfigDecoderByType(ctype)
	if err != nil {
		return err
	}

	cfg, err := decoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode config: %w", errors.Join(domain.ErrImageTypeMismatch, err))
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", domain.ErrImageTypeMismatch, cfg.Width, cfg.Height)
	}

	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return fmt.Errorf("%w: %dx%d pixels", domain.ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	return nil
}

// decodeImage decodes a binary image into a Go image.Image object.
func decodeImage(reader io.Reader, ctype string) (image.Image, error) {
	decoder, err := getDecoderByType(ctype)
	if err != nil {
		return nil, err
	}

	//nolint:wrapcheck
	return decoder(reader)
}

// encodeImage encodes a Go image.Image object into binary format.
func encodeImage(bitmap image.Image, ctype string) ([]byte, error) {
	var buffer bytes.Buffer

	encoder, err := getEncoderByType(ctype)
	if err != nil {
		return nil, fmt.Errorf("get encoder: %w", err)
	}

	if err := encoder(&buffer, bitmap); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return buffer.Bytes(), nil
}
