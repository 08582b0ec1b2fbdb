package variant

import "strings"

// FormatMatrix resolves which target formats are produced from a given
// source format.
//
// Exclusions are looked up per source format; jpg excluding png says
// nothing about what png excludes.
type FormatMatrix struct {
	formats    []string
	exclusions map[string]map[string]bool
}

// NewFormatMatrix builds a matrix from the configured target formats and the
// exclusion rules. A source format with no rule excludes nothing.
func NewFormatMatrix(formats []string, exclusions map[string][]string) FormatMatrix {
	m := FormatMatrix{
		formats:    make([]string, 0, len(formats)),
		exclusions: make(map[string]map[string]bool, len(exclusions)),
	}
	for _, f := range formats {
		m.formats = append(m.formats, strings.ToLower(f))
	}
	for from, skip := range exclusions {
		m.exclusions[strings.ToLower(from)] = lowerSet(skip)
	}
	return m
}

// Formats returns the configured target formats in configured order.
func (m FormatMatrix) Formats() []string {
	return append([]string(nil), m.formats...)
}

// Excluded returns the formats never generated from original, in configured
// order.
func (m FormatMatrix) Excluded(original string) []string {
	skip := m.exclusions[strings.ToLower(original)]
	var out []string
	for _, f := range m.formats {
		if skip[f] {
			out = append(out, f)
		}
	}
	return out
}

// TargetFormats returns the conversion targets for original: every
// configured format minus its exclusions and minus original itself.
func (m FormatMatrix) TargetFormats(original string) []string {
	original = strings.ToLower(original)
	skip := m.exclusions[original]
	out := make([]string, 0, len(m.formats))
	for _, f := range m.formats {
		if f == original || skip[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Allows reports whether a derivative in format exists for a source in
// original format once a run has completed.
func (m FormatMatrix) Allows(original, format string) bool {
	original = strings.ToLower(original)
	format = strings.ToLower(format)
	if format == original {
		return true
	}
	for _, f := range m.TargetFormats(original) {
		if f == format {
			return true
		}
	}
	return false
}
