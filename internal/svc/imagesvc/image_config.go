package imagesvc

// ImageConfig holds configuration parameters for the image service.
type ImageConfig struct {
	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`

	// MaxSize is the maximum allowed upload size in bytes. Default is 5MB.
	MaxSize int64 `env:"MAX_SIZE" default:"5242880"`

	// MaxPixels caps width*height as declared in the image header, so small
	// uploads cannot expand into huge bitmaps when decoded.
	MaxPixels int64 `env:"MAX_PIXELS" default:"25000000"`
	// ThumbnailSize is the edge of the square box avatars are fitted into.
	ThumbnailSize int `env:"THUMBNAIL_SIZE" default:"200"`

	// AllowedExts lists the accepted upload extensions, comma separated.
	AllowedExts string `env:"ALLOWED_EXTS" default:"jpg,jpeg,png"`
}
