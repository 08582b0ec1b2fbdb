package variant

import "strings"

// Classifier decides whether a discovered file takes part in a run.
type Classifier struct {
	supported    map[string]bool
	ignoredExt   map[string]bool
	ignoredStems map[string]bool
}

// NewClassifier builds a Classifier. Extensions are compared
// case-insensitively; ignored stems are compared exactly.
func NewClassifier(supported, ignoredExtensions, ignoredStems []string) Classifier {
	return Classifier{
		supported:    lowerSet(supported),
		ignoredExt:   lowerSet(ignoredExtensions),
		ignoredStems: exactSet(ignoredStems),
	}
}

// IsEligible reports whether path names a supported, non-ignored image.
// A file without an extension is never eligible.
func (c Classifier) IsEligible(path string) bool {
	return c.Classify(NewSourceImage(path)) == Eligible
}

// Verdict is the outcome of classifying one file.
type Verdict int

const (
	Eligible Verdict = iota
	Unsupported
	IgnoredExtension
	IgnoredFilename
)

// String returns a short label used in debug logs.
func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case Unsupported:
		return "unsupported extension"
	case IgnoredExtension:
		return "ignored extension"
	case IgnoredFilename:
		return "ignored filename"
	default:
		return "unknown"
	}
}

// Classify returns why src is or is not eligible.
func (c Classifier) Classify(src SourceImage) Verdict {
	ext := src.Extension()
	switch {
	case ext == "" || !c.supported[ext]:
		return Unsupported
	case c.ignoredExt[ext]:
		return IgnoredExtension
	case c.ignoredStems[src.Stem()]:
		return IgnoredFilename
	}
	return Eligible
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimPrefix(v, "."))] = true
	}
	return set
}

func exactSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
