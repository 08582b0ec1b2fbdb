package imaging

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// placeholderSample is the edge length of the thumbnail colours are
// sampled from.
const placeholderSample = 32

// ColorFrequency represents a colour bucket and its share of the sampled
// pixels.
type ColorFrequency struct {
	Hex        string  `json:"hex"`        // Hex colour "#rrggbb" (bucket mean)
	Percentage float64 `json:"percentage"` // Share of opaque pixels in this bucket (0-100)
}

// DominantColors returns up to count colour buckets of img, most common
// first.
//
// The image is first reduced to a small thumbnail. Pixels are grouped by
// quantizing each RGB component to 16 levels; each bucket is reported as
// the mean of its pixels in CIE L*a*b*, which keeps the reported colour
// perceptually close to what the bucket contains. Fully transparent pixels
// are ignored.
func DominantColors(img image.Image, count int) []ColorFrequency {
	if count <= 0 {
		return nil
	}
	thumb := imaging.Fit(img, placeholderSample, placeholderSample, imaging.Box)

	type bucket struct {
		n       int
		l, a, b float64
	}
	buckets := make(map[uint16]*bucket)
	total := 0

	bounds := thumb.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(thumb.At(x, y))
			if !ok {
				continue
			}
			r, g, b := c.Clamped().RGB255()
			key := uint16(r>>4)<<8 | uint16(g>>4)<<4 | uint16(b>>4)

			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			l, la, lb := c.Lab()
			bk.n++
			bk.l += l
			bk.a += la
			bk.b += lb
			total++
		}
	}
	if total == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(buckets))
	for _, bk := range buckets {
		n := float64(bk.n)
		mean := colorful.Lab(bk.l/n, bk.a/n, bk.b/n).Clamped()
		colors = append(colors, ColorFrequency{
			Hex:        mean.Hex(),
			Percentage: n / float64(total) * 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// Placeholder returns the dominant colour of img as "#rrggbb", suitable as
// a background colour while the real image loads. A fully transparent image
// yields "".
func Placeholder(img image.Image) string {
	colors := DominantColors(img, 1)
	if len(colors) == 0 {
		return ""
	}
	return colors[0].Hex
}

// HSL returns the hue (0-360), saturation and lightness (0-100) of a hex
// colour.
func HSL(hex string) (h, s, l int, err error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	hf, sf, lf := c.Hsl()
	return int(hf), int(sf * 100), int(lf * 100), nil
}
