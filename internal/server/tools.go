package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Source image path relative to the source disk (e.g. images/hero.jpg)",
	}
}

func formatsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Formats to include (e.g. [\"avif\", \"webp\"]). Formats the source never produces are dropped. Default: every target format",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Addressing
		{
			Name:        "image_plan",
			Description: "List every derivative a template may reference for a source image: format, width key, storage address and public URL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Original image width in pixels. Only breakpoints at or below it are listed. Default: every breakpoint",
					},
					"formats": formatsProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_srcset",
			Description: "Build the srcset attribute value for one format of a source image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"format": map[string]interface{}{
						"type":        "string",
						"description": "Target format (e.g. webp). Default: the source's own format",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width descriptor of the full-size candidate and breakpoint cap. Default: the largest breakpoint",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_css_variables",
			Description: "Build CSS custom properties (--webp-640:url(...)) for using derivatives as background images.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Largest breakpoint to include. Default: every breakpoint",
					},
					"formats": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Formats to include. Default: the source's own format followed by every target format",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_picture",
			Description: "Render the complete responsive <picture> markup for a source image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"alt": map[string]interface{}{
						"type":        "string",
						"description": "Alternative text. Default: the configured fallback",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Rendered width in pixels; also caps the breakpoints",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Rendered height in pixels. Written only together with width",
					},
					"formats": formatsProperty(),
					"class": map[string]interface{}{
						"type":        "string",
						"description": "Extra CSS class for the container element",
					},
					"eager": map[string]interface{}{
						"type":        "boolean",
						"description": "Load eagerly (for images in the first contentful paint). Default false",
						"default":     false,
					},
					"sync_decoding": map[string]interface{}{
						"type":        "boolean",
						"description": "Use decoding=\"auto\" instead of \"async\". Default false",
						"default":     false,
					},
					"skip_picture_tag": map[string]interface{}{
						"type":        "boolean",
						"description": "Emit only the <img> element inside the container. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_classify",
			Description: "Check whether a path is picked up by generation, and which formats it converts to.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Local files
		{
			Name:        "image_info",
			Description: "Decode a local image file and report its dimensions, format, placeholder colour (hex and hsl) and the breakpoints generation would produce for it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return s.resultResponse(req.ID, toolsListResult{Tools: GetToolDefinitions()})
}
