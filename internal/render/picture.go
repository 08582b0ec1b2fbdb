package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ironsheep/image-craft/internal/variant"
)

// Img describes one responsive image element.
type Img struct {
	// Src is the source path, relative to the source directory's disk.
	Src string `json:"src"`

	// Alt falls back to the configured alt text when empty.
	Alt string `json:"alt,omitempty"`

	// Width caps the breakpoints and describes the full-size candidate.
	// Width and Height are only written to <img> when both are set.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Formats restricts the <source> elements. nil means every target
	// format.
	Formats []string `json:"formats,omitempty"`

	Class          string `json:"class,omitempty"`
	Eager          bool   `json:"eager,omitempty"`
	SyncDecoding   bool   `json:"sync_decoding,omitempty"`
	SkipPictureTag bool   `json:"skip_picture_tag,omitempty"`
}

type pictureSource struct {
	Type   string
	Srcset string
}

type pictureData struct {
	ContainerClass string
	SkipPicture    bool
	Sources        []pictureSource
	Src            string
	Srcset         string
	Width          int
	Height         int
	Alt            string
	Decoding       string
	Loading        string
}

var pictureTemplate = template.Must(template.New("picture").Parse(
	`<div class="{{.ContainerClass}}">` +
		`{{if not .SkipPicture}}<picture>` +
		`{{range .Sources}}<source type="{{.Type}}" srcset="{{.Srcset}}">{{end}}` +
		`{{end}}` +
		`<img src="{{.Src}}"` +
		`{{with .Srcset}} srcset="{{.}}"{{end}}` +
		`{{if and .Width .Height}} width="{{.Width}}" height="{{.Height}}"{{end}}` +
		` alt="{{.Alt}}" decoding="{{.Decoding}}" loading="{{.Loading}}">` +
		`{{if not .SkipPicture}}</picture>{{end}}` +
		`</div>`))

// Picture renders img as a container <div> wrapping a <picture> element.
// When responsive images are disabled only the plain <img> is emitted,
// pointing at the source disk.
func (r *Reconstructor) Picture(img Img) (string, error) {
	if strings.TrimSpace(img.Src) == "" {
		return "", fmt.Errorf("image src is required")
	}
	src := variant.NewSourceImage(img.Src)

	data := pictureData{
		ContainerClass: r.ContainerClass(img.Class),
		SkipPicture:    img.SkipPictureTag,
		Src:            r.URL(src.Path()),
		Alt:            img.Alt,
		Decoding:       "async",
		Loading:        "lazy",
	}
	if data.Alt == "" {
		data.Alt = r.altFallback
	}
	if img.SyncDecoding {
		data.Decoding = "auto"
	}
	if img.Eager {
		data.Loading = "eager"
	}
	if img.Width > 0 && img.Height > 0 {
		data.Width, data.Height = img.Width, img.Height
	}

	if r.responsive {
		data.Srcset = r.OriginalSrcset(src, img.Width)
		if !img.SkipPictureTag {
			for _, f := range r.SourceFormats(src, img.Formats) {
				data.Sources = append(data.Sources, pictureSource{
					Type:   variant.MIMEType(f),
					Srcset: r.Srcset(src, f, img.Width),
				})
			}
		}
	}

	var b strings.Builder
	if err := pictureTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render picture: %w", err)
	}
	return b.String(), nil
}
