package variant

import (
	"strconv"
	"strings"
)

// DefaultSpacer separates the stem from the width in sized filenames.
const DefaultSpacer = "@"

// FullKey is the width key used for full-size derivatives.
const FullKey = "full"

// DerivativeSpec names one derivative. Width 0 means full size: reformatted
// but not resized.
type DerivativeSpec struct {
	Source SourceImage
	Format string
	Width  int
}

// Full reports whether the spec is a full-size derivative.
func (d DerivativeSpec) Full() bool {
	return d.Width <= 0
}

// IsOriginal reports whether the spec is the optimized original: full size
// in the source's own format.
func (d DerivativeSpec) IsOriginal() bool {
	return d.Full() && strings.EqualFold(d.Format, d.Source.Extension())
}

// WidthKey returns "full" or the base-10 width.
func (d DerivativeSpec) WidthKey() string {
	return WidthKey(d.Width)
}

// WidthKey returns "full" for 0 and the plain base-10 width otherwise.
func WidthKey(width int) string {
	if width <= 0 {
		return FullKey
	}
	return strconv.Itoa(width)
}

// Address maps a derivative to its storage-relative path.
//
// The own-format full-size derivative is addressed by the source path
// unchanged, including the extension's original case. Everything else is
// {dir}/{stem}[{spacer}{width}].{format}.
func Address(spec DerivativeSpec, spacer string) string {
	if spec.IsOriginal() {
		return spec.Source.Path()
	}

	var b strings.Builder
	if dir := spec.Source.Dir(); dir != "" {
		b.WriteString(dir)
		b.WriteByte('/')
	}
	b.WriteString(spec.Source.Stem())
	if !spec.Full() {
		b.WriteString(spacer)
		b.WriteString(strconv.Itoa(spec.Width))
	}
	b.WriteByte('.')
	b.WriteString(strings.ToLower(spec.Format))
	return b.String()
}
