package imaging

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// Optimizer shrinks encoded image bytes without changing their format.
type Optimizer interface {
	Optimize(data []byte, format string) ([]byte, error)
}

// Squeezer is the default Optimizer.
//
// JPEG input is re-encoded at the configured quality and PNG input with
// maximum compression; whichever of input and output is smaller is
// returned. Other formats are already encoded at their target settings and
// pass through untouched.
type Squeezer struct {
	quality int
}

// NewSqueezer returns a Squeezer re-encoding JPEGs at quality (1-100).
func NewSqueezer(quality int) *Squeezer {
	if quality < 1 || quality > 100 {
		quality = 82
	}
	return &Squeezer{quality: quality}
}

// Optimize implements Optimizer.
func (s *Squeezer) Optimize(data []byte, format string) ([]byte, error) {
	var opts []imaging.EncodeOption
	var target imaging.Format

	switch strings.ToLower(format) {
	case "jpg", "jpeg", "pjpg":
		target = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(s.quality))
	case "png":
		target = imaging.PNG
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to optimize %s: %w", format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, opts...); err != nil {
		return nil, fmt.Errorf("failed to optimize %s: %w", format, err)
	}
	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
