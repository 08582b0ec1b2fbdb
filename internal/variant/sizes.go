package variant

import "sort"

// SizeSelector picks breakpoints that fit within a width.
type SizeSelector struct {
	breakpoints []int
}

// NewSizeSelector sorts and deduplicates breakpoints. Non-positive values
// are dropped.
func NewSizeSelector(breakpoints []int) SizeSelector {
	seen := make(map[int]bool, len(breakpoints))
	sorted := make([]int, 0, len(breakpoints))
	for _, b := range breakpoints {
		if b <= 0 || seen[b] {
			continue
		}
		seen[b] = true
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)
	return SizeSelector{breakpoints: sorted}
}

// Selectable returns every breakpoint <= maxWidth in ascending order. The
// result is empty when maxWidth is below the smallest breakpoint; the
// full-size variant is produced separately in that case.
func (s SizeSelector) Selectable(maxWidth int) []int {
	out := make([]int, 0, len(s.breakpoints))
	for _, b := range s.breakpoints {
		if b > maxWidth {
			break
		}
		out = append(out, b)
	}
	return out
}

// All returns every breakpoint in ascending order.
func (s SizeSelector) All() []int {
	return append([]int(nil), s.breakpoints...)
}

// Largest returns the biggest breakpoint, or 0 when none are configured.
func (s SizeSelector) Largest() int {
	if len(s.breakpoints) == 0 {
		return 0
	}
	return s.breakpoints[len(s.breakpoints)-1]
}
