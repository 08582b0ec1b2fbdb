package variant

import "strings"

// Rules bundles everything needed to enumerate and address derivatives.
// The generator and the reconstructor share one Rules value built from
// configuration, which is what keeps their addresses identical.
type Rules struct {
	Classifier Classifier
	Formats    FormatMatrix
	Sizes      SizeSelector
	Spacer     string
}

// Address returns the storage-relative path of spec under these rules.
func (r Rules) Address(spec DerivativeSpec) string {
	return Address(spec, r.spacer())
}

// Derivatives lists every derivative a run produces for src when the
// decoded original is width pixels wide, in generation order: the optimized
// original and its resized copies first, then for each target format its
// full-size copy followed by each selectable size.
func (r Rules) Derivatives(src SourceImage, width int) []DerivativeSpec {
	own := src.Extension()
	targets := r.Formats.TargetFormats(own)
	sizes := r.Sizes.Selectable(width)

	out := make([]DerivativeSpec, 0, (1+len(targets))*(1+len(sizes)))
	out = append(out, DerivativeSpec{Source: src, Format: own})
	for _, w := range sizes {
		out = append(out, DerivativeSpec{Source: src, Format: own, Width: w})
	}
	for _, f := range targets {
		out = append(out, DerivativeSpec{Source: src, Format: f})
		for _, w := range sizes {
			out = append(out, DerivativeSpec{Source: src, Format: f, Width: w})
		}
	}
	return out
}

// IsSizedName reports whether src is named like a resized derivative: its
// stem ends with the spacer followed by a width, as in "a@640.webp".
func (r Rules) IsSizedName(src SourceImage) bool {
	spacer := r.spacer()
	stem := src.Stem()
	i := strings.LastIndex(stem, spacer)
	if i < 0 {
		return false
	}
	width := stem[i+len(spacer):]
	if width == "" {
		return false
	}
	for _, c := range width {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r Rules) spacer() string {
	if r.Spacer == "" {
		return DefaultSpacer
	}
	return r.Spacer
}
