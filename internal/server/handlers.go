package server

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/image-craft/internal/imaging"
	"github.com/ironsheep/image-craft/internal/render"
	"github.com/ironsheep/image-craft/internal/variant"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_plan", "image_srcset").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolResult wraps a tool's output in MCP's content format.
type toolResult struct {
	Content []toolContent `json:"content"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}

	return s.resultResponse(req.ID, toolResult{
		Content: []toolContent{{Type: "text", Text: mustMarshalJSON(result)}},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Addressing
	case "image_plan":
		return s.handleImagePlan(args)
	case "image_srcset":
		return s.handleImageSrcset(args)
	case "image_css_variables":
		return s.handleImageCSSVariables(args)
	case "image_picture":
		return s.handleImagePicture(args)
	case "image_classify":
		return s.handleImageClassify(args)

	// Local files
	case "image_info":
		return s.handleImageInfo(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response. An empty data is left
// out of the response.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: jsonrpcVersion, ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals args into v and checks the path argument.
func decodeArgs(args json.RawMessage, v interface{ source() string }) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return err
	}
	if strings.TrimSpace(v.source()) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// === Addressing Handlers ===

type imagePlanArgs struct {
	Path    string   `json:"path"`
	Width   int      `json:"width"`
	Formats []string `json:"formats"`
}

func (a *imagePlanArgs) source() string { return a.Path }

type imagePlanResult struct {
	Source  string         `json:"source"`
	Formats []string       `json:"formats"`
	Entries []render.Entry `json:"entries"`
}

func (s *Server) handleImagePlan(args json.RawMessage) (interface{}, error) {
	var a imagePlanArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r := s.render.Reconstructor()
	src := variant.NewSourceImage(a.Path)
	return imagePlanResult{
		Source:  src.Path(),
		Formats: r.SourceFormats(src, a.Formats),
		Entries: r.Plan(src, render.Request{Width: a.Width, Formats: a.Formats}),
	}, nil
}

type imageSrcsetArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
}

func (a *imageSrcsetArgs) source() string { return a.Path }

func (s *Server) handleImageSrcset(args json.RawMessage) (interface{}, error) {
	var a imageSrcsetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src := variant.NewSourceImage(a.Path)
	format := strings.ToLower(a.Format)
	if format == "" {
		format = src.Extension()
	}

	srcset := s.render.Srcset(src, format, a.Width)
	if srcset == "" {
		return nil, fmt.Errorf("format %q is not generated for %s", format, src.Path())
	}
	return map[string]interface{}{
		"format": format,
		"type":   variant.MIMEType(format),
		"srcset": srcset,
	}, nil
}

type imageCSSVariablesArgs struct {
	Path     string   `json:"path"`
	MaxWidth int      `json:"max_width"`
	Formats  []string `json:"formats"`
}

func (a *imageCSSVariablesArgs) source() string { return a.Path }

func (s *Server) handleImageCSSVariables(args json.RawMessage) (interface{}, error) {
	var a imageCSSVariablesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"css": s.render.CSSVariables(variant.NewSourceImage(a.Path), a.MaxWidth, a.Formats),
	}, nil
}

type imagePictureArgs struct {
	Path           string   `json:"path"`
	Alt            string   `json:"alt"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	Formats        []string `json:"formats"`
	Class          string   `json:"class"`
	Eager          bool     `json:"eager"`
	SyncDecoding   bool     `json:"sync_decoding"`
	SkipPictureTag bool     `json:"skip_picture_tag"`
}

func (a *imagePictureArgs) source() string { return a.Path }

func (s *Server) handleImagePicture(args json.RawMessage) (interface{}, error) {
	var a imagePictureArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	html, err := s.render.Picture(render.Img{
		Src:            a.Path,
		Alt:            a.Alt,
		Width:          a.Width,
		Height:         a.Height,
		Formats:        a.Formats,
		Class:          a.Class,
		Eager:          a.Eager,
		SyncDecoding:   a.SyncDecoding,
		SkipPictureTag: a.SkipPictureTag,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"html": html}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) source() string { return a.Path }

type imageClassifyResult struct {
	Path            string   `json:"path"`
	Eligible        bool     `json:"eligible"`
	Verdict         string   `json:"verdict"`
	Extension       string   `json:"extension"`
	TargetFormats   []string `json:"target_formats"`
	ExcludedFormats []string `json:"excluded_formats"`
}

func (s *Server) handleImageClassify(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src := variant.NewSourceImage(a.Path)
	verdict := s.rules.Classifier.Classify(src)

	result := imageClassifyResult{
		Path:            src.Path(),
		Eligible:        verdict == variant.Eligible,
		Verdict:         verdict.String(),
		Extension:       src.Extension(),
		TargetFormats:   []string{},
		ExcludedFormats: []string{},
	}
	if result.Eligible {
		result.TargetFormats = s.rules.Formats.TargetFormats(src.Extension())
		if excluded := s.rules.Formats.Excluded(src.Extension()); excluded != nil {
			result.ExcludedFormats = excluded
		}
	}
	return result, nil
}

// === Local File Handlers ===

type imageInfoResult struct {
	*imaging.ImageInfo
	Sizes       []int `json:"sizes"`
	Derivatives int   `json:"derivatives"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}

	src := variant.NewSourceImage(filepath.ToSlash(filepath.Base(a.Path)))
	return imageInfoResult{
		ImageInfo:   info,
		Sizes:       s.rules.Sizes.Selectable(info.Width),
		Derivatives: len(s.rules.Derivatives(src, info.Width)),
	}, nil
}
