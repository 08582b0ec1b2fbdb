package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/variant"
)

// ErrDiskURLMissing is returned when the disk URLs are rooted at has none.
var ErrDiskURLMissing = errors.New("disk url is missing")

// Request narrows a Plan. The zero value plans every breakpoint for the
// default formats.
type Request struct {
	// Width caps the breakpoints. 0 means every breakpoint.
	Width int

	// Formats lists the wanted formats. Formats the source never produces
	// are dropped; nil means the source's target formats.
	Formats []string
}

// Entry is one planned derivative.
type Entry struct {
	Spec    variant.DerivativeSpec `json:"-"`
	Format  string                 `json:"format"`
	Width   string                 `json:"width"`
	Address string                 `json:"address"`
	URL     string                 `json:"url"`
}

// Reconstructor computes derivative addresses and markup.
type Reconstructor struct {
	rules          variant.Rules
	responsive     bool
	baseURL        string
	containerClass string
	altFallback    string
}

// New builds a Reconstructor from cfg.
func New(cfg *config.Config) (*Reconstructor, error) {
	diskName := cfg.SourceDisk
	if cfg.UseResponsiveImages {
		diskName = cfg.TargetDisk
	}
	disk, err := cfg.Disk(diskName)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(strings.TrimSpace(disk.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: disk %q", ErrDiskURLMissing, diskName)
	}

	return &Reconstructor{
		rules:          cfg.Rules(),
		responsive:     cfg.UseResponsiveImages,
		baseURL:        base,
		containerClass: cfg.ContainerCSSClassName,
		altFallback:    cfg.AltFallback,
	}, nil
}

// BaseURL returns the URL addresses are joined to, without a trailing
// slash.
func (r *Reconstructor) BaseURL() string {
	return r.baseURL
}

// Responsive reports whether derivative markup is emitted.
func (r *Reconstructor) Responsive() bool {
	return r.responsive
}

// URL joins address to the base URL.
func (r *Reconstructor) URL(address string) string {
	return r.baseURL + "/" + strings.TrimLeft(address, "/")
}

// SourceFormats returns the formats markup may reference for src, in the
// order requested. With no request it returns the source's target formats.
func (r *Reconstructor) SourceFormats(src variant.SourceImage, requested []string) []string {
	own := src.Extension()
	if requested == nil {
		return r.rules.Formats.TargetFormats(own)
	}

	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, f := range requested {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] || !r.rules.Formats.Allows(own, f) {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// sizes returns the breakpoints at or below width, or all of them when
// width is 0.
func (r *Reconstructor) sizes(width int) []int {
	if width <= 0 {
		return r.rules.Sizes.All()
	}
	return r.rules.Sizes.Selectable(width)
}

// descriptor is the w-descriptor of the full-size candidate.
func (r *Reconstructor) descriptor(width int) int {
	if width <= 0 {
		return r.rules.Sizes.Largest()
	}
	return width
}

// Plan lists the derivatives a template should reference for src: for each
// format, every breakpoint in ascending order followed by the full size.
// Pass the image's intrinsic width in req.Width. With 0 every configured
// breakpoint is listed, including ones wider than the image, which a run
// never generates.
func (r *Reconstructor) Plan(src variant.SourceImage, req Request) []Entry {
	formats := r.SourceFormats(src, req.Formats)
	sizes := r.sizes(req.Width)

	out := make([]Entry, 0, len(formats)*(len(sizes)+1))
	for _, f := range formats {
		for _, w := range sizes {
			out = append(out, r.entry(variant.DerivativeSpec{Source: src, Format: f, Width: w}))
		}
		out = append(out, r.entry(variant.DerivativeSpec{Source: src, Format: f}))
	}
	return out
}

func (r *Reconstructor) entry(spec variant.DerivativeSpec) Entry {
	address := r.rules.Address(spec)
	return Entry{
		Spec:    spec,
		Format:  spec.Format,
		Width:   spec.WidthKey(),
		Address: address,
		URL:     r.URL(address),
	}
}

// Srcset returns the srcset attribute value for src in format. The
// full-size candidate is described with width, or with the largest
// breakpoint when width is 0. It returns "" for a format the source never
// produces.
//
// Width should be the image's intrinsic width. With 0 every configured
// breakpoint is named, and those wider than the image do not exist.
func (r *Reconstructor) Srcset(src variant.SourceImage, format string, width int) string {
	format = strings.ToLower(format)
	if !r.rules.Formats.Allows(src.Extension(), format) {
		return ""
	}

	var b strings.Builder
	for _, w := range r.sizes(width) {
		r.writeCandidate(&b, variant.DerivativeSpec{Source: src, Format: format, Width: w}, w)
		b.WriteString(", ")
	}
	r.writeCandidate(&b, variant.DerivativeSpec{Source: src, Format: format}, r.descriptor(width))
	return b.String()
}

func (r *Reconstructor) writeCandidate(b *strings.Builder, spec variant.DerivativeSpec, w int) {
	b.WriteString(r.URL(r.rules.Address(spec)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(w))
	b.WriteByte('w')
}

// OriginalSrcset is Srcset in the source's own format.
func (r *Reconstructor) OriginalSrcset(src variant.SourceImage, width int) string {
	return r.Srcset(src, src.Extension(), width)
}

// CSSVariables returns custom properties for backgrounds: the full-size
// entry of every format first, then each breakpoint at or below maxWidth
// (all of them when maxWidth is 0), formats in the given order. nil formats
// means the own format followed by the target formats.
func (r *Reconstructor) CSSVariables(src variant.SourceImage, maxWidth int, formats []string) string {
	if formats == nil {
		formats = append([]string{src.Extension()}, r.rules.Formats.TargetFormats(src.Extension())...)
	} else {
		formats = r.SourceFormats(src, formats)
	}

	var b strings.Builder
	widths := append([]int{0}, r.sizes(maxWidth)...)
	for _, w := range widths {
		for _, f := range formats {
			spec := variant.DerivativeSpec{Source: src, Format: f, Width: w}
			fmt.Fprintf(&b, "--%s-%s:url(%s);", f, spec.WidthKey(), r.URL(r.rules.Address(spec)))
		}
	}
	return b.String()
}

// ContainerClass returns the configured container class, followed by extra
// when given.
func (r *Reconstructor) ContainerClass(extra string) string {
	extra = strings.TrimSpace(extra)
	switch {
	case extra == "":
		return r.containerClass
	case r.containerClass == "":
		return extra
	default:
		return r.containerClass + " " + extra
	}
}
