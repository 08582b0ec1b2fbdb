package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ironsheep/image-craft/internal/render"
	"github.com/ironsheep/image-craft/internal/variant"
)

// reconstructor loads the configuration and builds the reconstructor for a
// render command.
func (a *app) reconstructor(f configFlags) (*render.Reconstructor, error) {
	cfg, err := a.loadConfig(f)
	if err != nil {
		return nil, err
	}
	return render.New(cfg)
}

func sourceArg(args []string) (variant.SourceImage, error) {
	if len(args) != 1 {
		return variant.SourceImage{}, fmt.Errorf("expected exactly one image path, got %d", len(args))
	}
	return variant.NewSourceImage(args[0]), nil
}

// splitFormats parses a comma-separated list. An empty value yields nil,
// which selects the default formats.
func splitFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (a *app) srcsetCommand() *Command {
	var (
		flags  configFlags
		width  int
		format string
	)
	return &Command{
		Name:    "srcset",
		Summary: "Print the srcset of an image for one format",
		Usage:   "image-craft srcset <path> [--width px] [--format webp]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("srcset", pflag.ContinueOnError)
			flags.register(fs)
			fs.IntVarP(&width, "width", "w", 0, "intrinsic image width; 0 lists every breakpoint, even ones wider than the image that are never generated")
			fs.StringVarP(&format, "format", "f", "", "target format; empty uses the image's own format")
			return fs
		},
		Run: func(args []string) error {
			src, err := sourceArg(args)
			if err != nil {
				return err
			}
			r, err := a.reconstructor(flags)
			if err != nil {
				return err
			}

			var srcset string
			if format == "" {
				srcset = r.OriginalSrcset(src, width)
			} else {
				srcset = r.Srcset(src, strings.ToLower(format), width)
				if srcset == "" {
					return fmt.Errorf("%s is not generated for %s", format, src.Path())
				}
			}
			fmt.Fprintln(a.out, srcset)
			return nil
		},
	}
}

func (a *app) cssCommand() *Command {
	var (
		flags    configFlags
		maxWidth int
		formats  string
	)
	return &Command{
		Name:    "css",
		Summary: "Print the CSS custom properties of an image",
		Usage:   "image-craft css <path> [--max-width px] [--formats jpg,webp]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("css", pflag.ContinueOnError)
			flags.register(fs)
			fs.IntVarP(&maxWidth, "max-width", "w", 0, "intrinsic image width; 0 includes every breakpoint, even ones wider than the image that are never generated")
			fs.StringVarP(&formats, "formats", "f", "", "comma-separated formats; empty uses the image's own and target formats")
			return fs
		},
		Run: func(args []string) error {
			src, err := sourceArg(args)
			if err != nil {
				return err
			}
			r, err := a.reconstructor(flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, r.CSSVariables(src, maxWidth, splitFormats(formats)))
			return nil
		},
	}
}

func (a *app) pictureCommand() *Command {
	var (
		flags   configFlags
		img     render.Img
		formats string
	)
	return &Command{
		Name:    "picture",
		Summary: "Print the <picture> markup of an image",
		Usage:   "image-craft picture <path> [--alt text] [--width px --height px] [--formats webp,avif]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("picture", pflag.ContinueOnError)
			flags.register(fs)
			fs.StringVar(&img.Alt, "alt", "", "alternative text; empty uses the configured fallback")
			fs.IntVar(&img.Width, "width", 0, "intrinsic width; also caps the breakpoints (0 names every breakpoint)")
			fs.IntVar(&img.Height, "height", 0, "intrinsic height")
			fs.StringVar(&img.Class, "class", "", "extra container class")
			fs.StringVarP(&formats, "formats", "f", "", "comma-separated <source> formats; empty uses every target format")
			fs.BoolVar(&img.Eager, "eager", false, "load eagerly instead of lazily")
			fs.BoolVar(&img.SyncDecoding, "sync-decoding", false, "decode synchronously")
			fs.BoolVar(&img.SkipPictureTag, "skip-picture", false, "emit only the <img> element inside the container")
			return fs
		},
		Run: func(args []string) error {
			src, err := sourceArg(args)
			if err != nil {
				return err
			}
			r, err := a.reconstructor(flags)
			if err != nil {
				return err
			}
			img.Src = src.Path()
			img.Formats = splitFormats(formats)
			html, err := r.Picture(img)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, html)
			return nil
		},
	}
}
