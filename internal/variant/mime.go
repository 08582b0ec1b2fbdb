package variant

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"pjpg": "image/pjpg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"avif": "image/avif",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
}

// MIMEType returns the content type for a format, or "" when unknown.
func MIMEType(format string) string {
	return mimeTypes[format]
}
