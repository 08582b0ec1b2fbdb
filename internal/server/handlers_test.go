package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPResponse {
	t.Helper()
	params, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result, ok := resp.Result.(toolResult)
	if !ok || len(result.Content) != 1 {
		t.Fatalf("unexpected tool result: %+v", resp.Result)
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), out); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
	return resp
}

func TestHandleToolsCall_ImagePlan(t *testing.T) {
	s := newTestServer(t)

	var result struct {
		Source  string   `json:"source"`
		Formats []string `json:"formats"`
		Entries []struct {
			Format  string `json:"format"`
			Width   string `json:"width"`
			Address string `json:"address"`
			URL     string `json:"url"`
		} `json:"entries"`
	}
	resp := callTool(t, s, "image_plan", map[string]interface{}{"path": "images/a.jpg", "width": 700}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if strings.Join(result.Formats, ",") != "avif,webp" {
		t.Errorf("formats = %v", result.Formats)
	}
	if len(result.Entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(result.Entries))
	}
	last := result.Entries[5]
	if last.Format != "webp" || last.Width != "full" || last.URL != "https://cdn.test/images/a.webp" {
		t.Errorf("last entry = %+v", last)
	}
}

func TestHandleToolsCall_ImageSrcset(t *testing.T) {
	s := newTestServer(t)

	var result map[string]string
	resp := callTool(t, s, "image_srcset", map[string]interface{}{"path": "images/a.png", "width": 400}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if result["format"] != "png" || result["type"] != "image/png" {
		t.Errorf("result = %v", result)
	}
	if result["srcset"] != "https://cdn.test/images/a@320.png 320w, https://cdn.test/images/a.png 400w" {
		t.Errorf("srcset = %q", result["srcset"])
	}
}

func TestHandleToolsCall_ImageSrcsetExcludedFormat(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_srcset", map[string]interface{}{"path": "images/a.png", "format": "jpg"}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for excluded format")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_ImageCSSVariables(t *testing.T) {
	s := newTestServer(t)

	var result map[string]string
	resp := callTool(t, s, "image_css_variables", map[string]interface{}{
		"path":      "images/a.jpg",
		"max_width": 320,
		"formats":   []string{"webp"},
	}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	want := "--webp-full:url(https://cdn.test/images/a.webp);--webp-320:url(https://cdn.test/images/a@320.webp);"
	if result["css"] != want {
		t.Errorf("css = %q, want %q", result["css"], want)
	}
}

func TestHandleToolsCall_ImagePicture(t *testing.T) {
	s := newTestServer(t)

	var result map[string]string
	resp := callTool(t, s, "image_picture", map[string]interface{}{
		"path":  "images/a.jpg",
		"alt":   "A",
		"width": 640,
		"eager": true,
	}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	html := result["html"]
	for _, want := range []string{"<picture>", `type="image/avif"`, `type="image/webp"`, `loading="eager"`, `alt="A"`} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q: %s", want, html)
		}
	}
}

func TestHandleToolsCall_ImageClassify(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path     string
		eligible bool
		verdict  string
		targets  string
		excluded string
	}{
		{"images/a.jpg", true, "eligible", "avif,webp", "png"},
		{"images/a.gif", true, "eligible", "jpg,png,avif,webp", ""},
		{"images/favicon.png", false, "ignored filename", "", ""},
		{"images/logo.svg", false, "unsupported extension", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var result struct {
				Eligible        bool     `json:"eligible"`
				Verdict         string   `json:"verdict"`
				TargetFormats   []string `json:"target_formats"`
				ExcludedFormats []string `json:"excluded_formats"`
			}
			resp := callTool(t, s, "image_classify", map[string]interface{}{"path": tt.path}, &result)
			if resp.Error != nil {
				t.Fatalf("Unexpected error: %v", resp.Error)
			}
			if result.Eligible != tt.eligible || result.Verdict != tt.verdict {
				t.Errorf("eligible = %v (%s), want %v (%s)", result.Eligible, result.Verdict, tt.eligible, tt.verdict)
			}
			if got := strings.Join(result.TargetFormats, ","); got != tt.targets {
				t.Errorf("target_formats = %q, want %q", got, tt.targets)
			}
			if got := strings.Join(result.ExcludedFormats, ","); got != tt.excluded {
				t.Errorf("excluded_formats = %q, want %q", got, tt.excluded)
			}
		})
	}
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 700, 100, color.RGBA{0, 0, 255, 255})

	var result struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Format      string `json:"format"`
		Placeholder string `json:"placeholder"`
		HSL         string `json:"placeholder_hsl"`
		Sizes       []int  `json:"sizes"`
		Derivatives int    `json:"derivatives"`
	}
	resp := callTool(t, s, "image_info", map[string]interface{}{"path": imgPath}, &result)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if result.Width != 700 || result.Height != 100 || result.Format != "png" {
		t.Errorf("info = %+v", result)
	}
	if result.Placeholder != "#0000ff" {
		t.Errorf("placeholder = %q", result.Placeholder)
	}
	if result.HSL != "hsl(240, 100%, 50%)" {
		t.Errorf("placeholder_hsl = %q", result.HSL)
	}
	if len(result.Sizes) != 2 || result.Sizes[0] != 320 || result.Sizes[1] != 640 {
		t.Errorf("sizes = %v", result.Sizes)
	}
	// png, avif and webp, each at full size plus two breakpoints.
	if result.Derivatives != 9 {
		t.Errorf("derivatives = %d, want 9", result.Derivatives)
	}
}

func TestHandleToolsCall_ImageInfoMissingFile(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_info", map[string]interface{}{"path": "/nonexistent/image.png"}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{"path": "a.png"}, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}
