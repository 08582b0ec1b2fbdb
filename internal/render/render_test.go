package render

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/variant"
)

func testConfig() *config.Config {
	cfg := config.Default()
	s3 := cfg.Disks["s3"]
	s3.URL = "https://cdn.test/"
	cfg.Disks["s3"] = s3
	return cfg
}

func newTestReconstructor(t *testing.T, cfg *config.Config) *Reconstructor {
	t.Helper()
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestNew_BaseURL(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	if got := r.BaseURL(); got != "https://cdn.test" {
		t.Errorf("BaseURL() = %q", got)
	}

	cfg := testConfig()
	cfg.UseResponsiveImages = false
	if _, err := New(cfg); !errors.Is(err, ErrDiskURLMissing) {
		t.Errorf("source disk without url: err = %v, want ErrDiskURLMissing", err)
	}

	local := cfg.Disks["local"]
	local.URL = "/storage/"
	cfg.Disks["local"] = local
	r = newTestReconstructor(t, cfg)
	if got := r.BaseURL(); got != "/storage" {
		t.Errorf("BaseURL() with responsive images off = %q", got)
	}

	cfg = testConfig()
	cfg.TargetDisk = "nowhere"
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("unknown disk: err = %v, want config.ErrInvalid", err)
	}
}

func TestSrcset(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	src := variant.NewSourceImage("images/a.jpg")

	tests := []struct {
		name   string
		format string
		width  int
		want   string
	}{
		{
			name:   "explicit width",
			format: "webp",
			width:  700,
			want:   "https://cdn.test/images/a@320.webp 320w, https://cdn.test/images/a@640.webp 640w, https://cdn.test/images/a.webp 700w",
		},
		{
			name:   "below every breakpoint",
			format: "avif",
			width:  200,
			want:   "https://cdn.test/images/a.avif 200w",
		},
		{
			name:   "excluded format",
			format: "png",
			width:  700,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Srcset(src, tt.format, tt.width); got != tt.want {
				t.Errorf("Srcset() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestSrcset_NoWidthUsesEveryBreakpoint(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got := r.Srcset(variant.NewSourceImage("images/a.jpg"), "webp", 0)

	candidates := strings.Split(got, ", ")
	if len(candidates) != 8 {
		t.Fatalf("got %d candidates: %q", len(candidates), got)
	}
	if last := candidates[7]; last != "https://cdn.test/images/a.webp 2100w" {
		t.Errorf("full-size candidate = %q", last)
	}
}

func TestPlan_NoWidthNamesMissingBreakpoints(t *testing.T) {
	cfg := testConfig()
	r := newTestReconstructor(t, cfg)
	src := variant.NewSourceImage("images/a.jpg")

	generated := make(map[string]bool)
	for _, spec := range cfg.Rules().Derivatives(src, 700) {
		generated[cfg.Rules().Address(spec)] = true
	}

	var missing []string
	for _, e := range r.Plan(src, Request{}) {
		if !generated[e.Address] {
			missing = append(missing, e.Address)
		}
	}
	if len(missing) == 0 {
		t.Fatal("Plan without width should name breakpoints wider than a 700px image")
	}
	for _, a := range missing {
		if strings.Contains(a, "@320.") || strings.Contains(a, "@640.") {
			t.Errorf("%s is at or below 700px and should be generated", a)
		}
	}
	for _, e := range r.Plan(src, Request{Width: 700}) {
		if !generated[e.Address] {
			t.Errorf("Plan with intrinsic width names %s, which is never generated", e.Address)
		}
	}
}

func TestOriginalSrcset_KeepsSourceCase(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got := r.OriginalSrcset(variant.NewSourceImage("images/Hero.JPG"), 400)
	want := "https://cdn.test/images/Hero@320.jpg 320w, https://cdn.test/images/Hero.JPG 400w"
	if got != want {
		t.Errorf("OriginalSrcset() = %q, want %q", got, want)
	}
}

func TestSourceFormats(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	src := variant.NewSourceImage("images/a.jpg")

	if got := r.SourceFormats(src, nil); !reflect.DeepEqual(got, []string{"avif", "webp"}) {
		t.Errorf("default formats = %v", got)
	}
	got := r.SourceFormats(src, []string{"webp", "png", "WEBP", "jpg", ""})
	if !reflect.DeepEqual(got, []string{"webp", "jpg"}) {
		t.Errorf("filtered formats = %v", got)
	}
	if got := r.SourceFormats(src, []string{}); len(got) != 0 {
		t.Errorf("empty request = %v", got)
	}
}

func TestPlan(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	entries := r.Plan(variant.NewSourceImage("images/a.png"), Request{Width: 700})

	var got []string
	for _, e := range entries {
		got = append(got, e.Format+"/"+e.Width+"="+e.Address)
	}
	want := []string{
		"avif/320=images/a@320.avif",
		"avif/640=images/a@640.avif",
		"avif/full=images/a.avif",
		"webp/320=images/a@320.webp",
		"webp/640=images/a@640.webp",
		"webp/full=images/a.webp",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() =\n%v\nwant\n%v", got, want)
	}
	if entries[0].URL != "https://cdn.test/images/a@320.avif" {
		t.Errorf("URL = %q", entries[0].URL)
	}
}

func TestCSSVariables(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got := r.CSSVariables(variant.NewSourceImage("images/a.jpg"), 640, nil)

	want := "--jpg-full:url(https://cdn.test/images/a.jpg);" +
		"--avif-full:url(https://cdn.test/images/a.avif);" +
		"--webp-full:url(https://cdn.test/images/a.webp);" +
		"--jpg-320:url(https://cdn.test/images/a@320.jpg);" +
		"--avif-320:url(https://cdn.test/images/a@320.avif);" +
		"--webp-320:url(https://cdn.test/images/a@320.webp);" +
		"--jpg-640:url(https://cdn.test/images/a@640.jpg);" +
		"--avif-640:url(https://cdn.test/images/a@640.avif);" +
		"--webp-640:url(https://cdn.test/images/a@640.webp);"
	if got != want {
		t.Errorf("CSSVariables() =\n%s\nwant\n%s", got, want)
	}

	got = r.CSSVariables(variant.NewSourceImage("images/a.jpg"), 300, []string{"webp", "png"})
	if got != "--webp-full:url(https://cdn.test/images/a.webp);" {
		t.Errorf("filtered CSSVariables() = %s", got)
	}
}

// Every address handed to a template must be one the generator stores for
// an image of the same width.
func TestAddressesAreGenerated(t *testing.T) {
	cfg := testConfig()
	r := newTestReconstructor(t, cfg)
	rules := cfg.Rules()

	sources := []string{"images/a.jpg", "images/b/c.png", "d.webp", "images/Upper.JPG", "images/anim.gif"}
	widths := []int{100, 320, 700, 1200, 5000}

	for _, p := range sources {
		src := variant.NewSourceImage(p)
		for _, w := range widths {
			generated := make(map[string]bool)
			for _, spec := range rules.Derivatives(src, w) {
				generated[r.URL(rules.Address(spec))] = true
			}

			var urls []string
			for _, e := range r.Plan(src, Request{Width: w}) {
				urls = append(urls, e.URL)
			}
			for _, f := range append(r.SourceFormats(src, nil), src.Extension()) {
				for _, c := range strings.Split(r.Srcset(src, f, w), ", ") {
					urls = append(urls, strings.Fields(c)[0])
				}
			}
			for _, decl := range strings.Split(strings.TrimSuffix(r.CSSVariables(src, w, nil), ";"), ";") {
				start := strings.Index(decl, "url(") + len("url(")
				urls = append(urls, strings.TrimSuffix(decl[start:], ")"))
			}

			for _, u := range urls {
				if !generated[u] {
					t.Errorf("%s@%d: %s is never generated", p, w, u)
				}
			}
		}
	}
}

func TestPicture(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got, err := r.Picture(Img{Src: "images/a.jpg", Alt: "Hero", Width: 700, Height: 350, Class: "hero"})
	if err != nil {
		t.Fatalf("Picture failed: %v", err)
	}

	want := []string{
		`<div class="img-container hero"><picture>`,
		`<source type="image/avif" srcset="https://cdn.test/images/a@320.avif 320w, https://cdn.test/images/a@640.avif 640w, https://cdn.test/images/a.avif 700w">`,
		`<source type="image/webp" srcset="https://cdn.test/images/a@320.webp 320w, https://cdn.test/images/a@640.webp 640w, https://cdn.test/images/a.webp 700w">`,
		`<img src="https://cdn.test/images/a.jpg" srcset="https://cdn.test/images/a@320.jpg 320w, https://cdn.test/images/a@640.jpg 640w, https://cdn.test/images/a.jpg 700w"`,
		` width="700" height="350"`,
		` alt="Hero" decoding="async" loading="lazy">`,
		`</picture></div>`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("Picture() missing %q\ngot: %s", w, got)
		}
	}
}

func TestPicture_Options(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got, err := r.Picture(Img{
		Src:            "images/a.png",
		Alt:            `Tom & "Jerry"`,
		Width:          400,
		Eager:          true,
		SyncDecoding:   true,
		SkipPictureTag: true,
	})
	if err != nil {
		t.Fatalf("Picture failed: %v", err)
	}

	if strings.Contains(got, "<picture") || strings.Contains(got, "<source") {
		t.Errorf("skipPictureTag still rendered picture: %s", got)
	}
	for _, w := range []string{
		`srcset="https://cdn.test/images/a@320.png 320w, https://cdn.test/images/a.png 400w"`,
		`alt="Tom &amp; &#34;Jerry&#34;"`,
		`decoding="auto"`,
		`loading="eager"`,
	} {
		if !strings.Contains(got, w) {
			t.Errorf("Picture() missing %q\ngot: %s", w, got)
		}
	}
	if strings.Contains(got, "width=") {
		t.Errorf("width written without height: %s", got)
	}
}

func TestPicture_AltFallback(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	got, err := r.Picture(Img{Src: "images/a.jpg"})
	if err != nil {
		t.Fatalf("Picture failed: %v", err)
	}
	if !strings.Contains(got, `alt="image-craft"`) {
		t.Errorf("alt fallback missing: %s", got)
	}
}

func TestPicture_NotResponsive(t *testing.T) {
	cfg := testConfig()
	cfg.UseResponsiveImages = false
	local := cfg.Disks["local"]
	local.URL = "/storage"
	cfg.Disks["local"] = local

	got, err := newTestReconstructor(t, cfg).Picture(Img{Src: "images/a.jpg", Alt: "x"})
	if err != nil {
		t.Fatalf("Picture failed: %v", err)
	}
	want := `<div class="img-container"><picture><img src="/storage/images/a.jpg" alt="x" decoding="async" loading="lazy"></picture></div>`
	if got != want {
		t.Errorf("Picture() =\n%s\nwant\n%s", got, want)
	}
}

func TestPicture_RequiresSrc(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	if _, err := r.Picture(Img{}); err == nil {
		t.Error("expected error for empty src")
	}
}

func TestCache(t *testing.T) {
	c := NewCache(newTestReconstructor(t, testConfig()), 0)
	src := variant.NewSourceImage("images/a.jpg")

	first := c.Srcset(src, "webp", 700)
	second := c.Srcset(src, "webp", 700)
	if first != second || first == "" {
		t.Errorf("cached Srcset differs: %q vs %q", first, second)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	if c.CSSVariables(src, 640, nil) != c.Reconstructor().CSSVariables(src, 640, nil) {
		t.Error("cached CSSVariables differs from direct call")
	}
	if c.CSSVariables(src, 640, []string{}) == c.CSSVariables(src, 640, nil) {
		t.Error("empty and nil format lists share a cache entry")
	}

	p1, err := c.Picture(Img{Src: "images/a.jpg", Width: 700})
	if err != nil {
		t.Fatalf("Picture failed: %v", err)
	}
	p2, _ := c.Picture(Img{Src: "images/a.jpg", Width: 700})
	if p1 != p2 {
		t.Error("cached Picture differs")
	}

	if _, err := c.Picture(Img{}); err == nil {
		t.Error("expected error for empty src")
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}

func TestContainerClass(t *testing.T) {
	r := newTestReconstructor(t, testConfig())
	if got := r.ContainerClass(""); got != "img-container" {
		t.Errorf("ContainerClass(\"\") = %q", got)
	}
	if got := r.ContainerClass(" wide "); got != "img-container wide" {
		t.Errorf("ContainerClass(wide) = %q", got)
	}
}
