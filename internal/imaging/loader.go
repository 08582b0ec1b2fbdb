package imaging

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded images an ImageCache keeps.
const DefaultCacheSize = 16

// ImageCache keeps recently decoded images keyed by file path, evicting the
// least recently used entry once full.
//
// The cache stores *Decoded values keyed by their path. A cached entry is
// reused only while the file's size and modification time are unchanged, so
// an image rewritten on disk is decoded again.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(imaging.NewCodec(82), imaging.DefaultCacheSize)
//	img, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use img.Image, img.Width...
type ImageCache struct {
	engine Engine
	images *lru.Cache[string, cachedImage]
}

type cachedImage struct {
	decoded *Decoded
	size    int64
	modTime int64
}

// NewImageCache creates a cache decoding through engine and holding at
// most size images. A non-positive size uses DefaultCacheSize.
func NewImageCache(engine Engine, size int) *ImageCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[string, cachedImage](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &ImageCache{engine: engine, images: images}
}

// Load returns the decoded image at path, from cache when the file is
// unchanged.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (*Decoded, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if hit, ok := c.images.Get(path); ok && hit.size == stat.Size() && hit.modTime == stat.ModTime().UnixNano() {
		return hit.decoded, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	decoded, err := c.engine.Decode(data)
	if err != nil {
		return nil, err
	}

	c.images.Add(path, cachedImage{
		decoded: decoded,
		size:    stat.Size(),
		modTime: stat.ModTime().UnixNano(),
	})
	return decoded, nil
}

// Evict removes a path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.images.Remove(path)
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is the decoder's name for the content: "jpeg", "png", "webp"...
	// Detection is based on file contents, not the extension.
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is less than fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Placeholder is the dominant colour, "#rrggbb".
	Placeholder string `json:"placeholder"`

	// PlaceholderHSL is Placeholder as a CSS hsl() value.
	PlaceholderHSL string `json:"placeholder_hsl,omitempty"`
}

// LoadImageInfo loads an image through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	decoded, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         decoded.Width,
		Height:        decoded.Height,
		Format:        decoded.Format,
		HasAlpha:      hasAlpha(decoded),
		FileSizeBytes: stat.Size(),
		Placeholder:   Placeholder(decoded.Image),
	}
	if h, sat, l, err := HSL(info.Placeholder); err == nil {
		info.PlaceholderHSL = fmt.Sprintf("hsl(%d, %d%%, %d%%)", h, sat, l)
	}
	return info, nil
}

func hasAlpha(d *Decoded) bool {
	switch d.Format {
	case "jpeg", "bmp":
		return false
	}
	if o, ok := d.Image.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
