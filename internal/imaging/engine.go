package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// ErrUnsupportedFormat is wrapped when a format cannot be decoded or
// encoded.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Engine decodes, encodes and resizes images.
type Engine interface {
	Decode(data []byte) (*Decoded, error)
	Encode(img image.Image, format string) ([]byte, error)
	Resize(img image.Image, width int) image.Image
}

// Decoded is an original image after decoding.
type Decoded struct {
	// Image holds the pixels, orientation already applied.
	Image image.Image

	// Width and Height are the pixel dimensions after orientation.
	Width  int
	Height int

	// Format is the decoder name reported by the image package
	// ("jpeg", "png", "webp", ...).
	Format string
}

// Codec is the default Engine, built on disintegration/imaging with WebP
// and AVIF encoders from gen2brain.
type Codec struct {
	quality int
}

// NewCodec returns a Codec encoding lossy formats at quality (1-100).
// Out-of-range values fall back to 82.
func NewCodec(quality int) *Codec {
	if quality < 1 || quality > 100 {
		quality = 82
	}
	return &Codec{quality: quality}
}

// Decode decodes data and applies EXIF orientation.
//
// # Errors
//
//   - wraps ErrUnsupportedFormat when no registered decoder recognizes data
//   - returns the decoder's error for corrupt data
func (c *Codec) Decode(data []byte) (*Decoded, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("failed to decode image: %w", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	return &Decoded{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// Encode encodes img in the format named by a file extension.
func (c *Codec) Encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch strings.ToLower(format) {
	case "jpg", "jpeg", "pjpg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality))
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	case "tiff":
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case "bmp":
		err = imaging.Encode(&buf, img, imaging.BMP)
	case "webp":
		err = webp.Encode(&buf, img, webp.Options{Quality: c.quality})
	case "avif":
		err = avif.Encode(&buf, img, avif.Options{Quality: c.quality, Speed: 8})
	default:
		return nil, fmt.Errorf("failed to encode %q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Resize scales img to width pixels, preserving aspect ratio, using a
// Lanczos filter. Images already width pixels wide are returned unchanged.
func (c *Codec) Resize(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() == width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}
