package variant

import (
	"path"
	"strings"
)

// SourceImage identifies one original file by its storage-relative path.
//
// All attributes are derived from the path string on demand; a SourceImage
// never touches storage.
type SourceImage struct {
	path string
}

// NewSourceImage wraps a storage-relative path. Backslashes are normalized
// to forward slashes so that addresses are the same on every platform.
func NewSourceImage(relativePath string) SourceImage {
	return SourceImage{path: strings.ReplaceAll(relativePath, "\\", "/")}
}

// Path returns the relative path the image was constructed with.
func (s SourceImage) Path() string {
	return s.path
}

// Filename returns the base name, e.g. "b.jpg" for "images/a/b.jpg".
func (s SourceImage) Filename() string {
	return path.Base(s.path)
}

// Stem returns the filename without its extension.
func (s SourceImage) Stem() string {
	name := s.Filename()
	return strings.TrimSuffix(name, path.Ext(name))
}

// Extension returns the lower-cased extension without the dot, or "" when
// the filename has none.
func (s SourceImage) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(s.Filename()), "."))
}

// Dir returns the containing directory, or "" for a top-level file.
func (s SourceImage) Dir() string {
	i := strings.LastIndex(s.path, "/")
	if i < 0 {
		return ""
	}
	return s.path[:i]
}

// String implements fmt.Stringer.
func (s SourceImage) String() string {
	return s.path
}
