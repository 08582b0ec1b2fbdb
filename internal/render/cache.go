package render

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ironsheep/image-craft/internal/variant"
)

// DefaultCacheSize bounds a Cache built with size 0.
const DefaultCacheSize = 512

// Cache memoizes Reconstructor output. Results depend only on the request
// and the immutable configuration, so entries never go stale.
type Cache struct {
	r       *Reconstructor
	entries *lru.Cache[string, string]
}

// NewCache wraps r with an LRU of at most size results.
func NewCache(r *Reconstructor, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Cache{r: r, entries: entries}
}

// Reconstructor returns the wrapped reconstructor.
func (c *Cache) Reconstructor() *Reconstructor {
	return c.r
}

// Srcset is Reconstructor.Srcset, memoized.
func (c *Cache) Srcset(src variant.SourceImage, format string, width int) string {
	key := cacheKey("srcset", src.Path(), format, strconv.Itoa(width))
	if v, ok := c.entries.Get(key); ok {
		return v
	}
	v := c.r.Srcset(src, format, width)
	c.entries.Add(key, v)
	return v
}

// CSSVariables is Reconstructor.CSSVariables, memoized.
func (c *Cache) CSSVariables(src variant.SourceImage, maxWidth int, formats []string) string {
	key := cacheKey("css", src.Path(), strconv.Itoa(maxWidth), formatsKey(formats))
	if v, ok := c.entries.Get(key); ok {
		return v
	}
	v := c.r.CSSVariables(src, maxWidth, formats)
	c.entries.Add(key, v)
	return v
}

// Picture is Reconstructor.Picture, memoized. Errors are not cached.
func (c *Cache) Picture(img Img) (string, error) {
	key := cacheKey("picture", img.Src, img.Alt,
		strconv.Itoa(img.Width), strconv.Itoa(img.Height),
		formatsKey(img.Formats), img.Class,
		strconv.FormatBool(img.Eager), strconv.FormatBool(img.SyncDecoding), strconv.FormatBool(img.SkipPictureTag))
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}
	v, err := c.r.Picture(img)
	if err != nil {
		return "", err
	}
	c.entries.Add(key, v)
	return v, nil
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// formatsKey distinguishes a nil format list from an empty one.
func formatsKey(formats []string) string {
	if formats == nil {
		return "*"
	}
	return "[" + strings.Join(formats, ",") + "]"
}
