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
		"description": "Absolute path to the rendered spectrogram PNG",
	}
}

func targetProperty(purpose string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Configured target name" + purpose,
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func numberProperty(description string, def float64) map[string]interface{} {
	p := map[string]interface{}{
		"type":        "number",
		"description": description,
	}
	if def != 0 {
		p["default"] = def
	}
	return p
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Information
		{
			Name:        "spectrogram_load",
			Description: "Load a rendered spectrogram and return its dimensions, format and file size. With a target, also report whether it matches the target's frame size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"target": targetProperty(" whose frame size the image is checked against (optional)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "spectrogram_dimensions",
			Description: "Get the width and height of a spectrogram image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "spectrogram_cache_clear",
			Description: "Drop decoded frames from the server's image cache so re-rendered files are read again. Without a path the whole cache is cleared.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Spectrogram path to evict (optional)",
					},
				},
				"required": []string{},
			},
		},

		// Detection
		{
			Name:        "spectrogram_seek",
			Description: "Find candidate acoustic events in a spectrogram with the tuned parameters of a target and taxon. Returns pixel boxes (top-left origin) and the same boxes in seconds and hertz.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"target": targetProperty(" providing frame geometry and parameters"),
					"taxon": map[string]interface{}{
						"type":        "string",
						"description": "Taxon parameter set within the target. Default \"beta\"",
						"default":     "beta",
					},
				},
				"required": []string{"path", "target"},
			},
		},
		{
			Name:        "spectrogram_edges",
			Description: "Run the raw edge pass (grayscale, 3x3 blur, Canny) and return the edge map as base64 PNG together with the number of traced contours.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"threshold_low":  numberProperty("Canny low threshold. Default 50", 50),
					"threshold_high": numberProperty("Canny high threshold. Default 150", 150),
					"approx": map[string]interface{}{
						"type":        "string",
						"description": "Contour point approximation",
						"enum":        []string{"none", "simple"},
						"default":     "none",
					},
				},
				"required": []string{"path"},
			},
		},

		// Coordinates
		{
			Name:        "spectrogram_transform",
			Description: "Map a pixel box to seconds and hertz. Geometry comes from a configured target or from explicit frame and range values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x":                 intProperty("Left edge of the box in pixels"),
					"y":                 intProperty("Top edge of the box in pixels (0 is the top of the frame)"),
					"width":             intProperty("Box width in pixels"),
					"height":            intProperty("Box height in pixels"),
					"target":            targetProperty(" to take the geometry from (optional)"),
					"frame_width":       intProperty("Frame width in pixels, when no target is given"),
					"frame_height":      intProperty("Frame height in pixels, when no target is given"),
					"recording_seconds": numberProperty("Recording length in seconds, when no target is given", 0),
					"fmin":              numberProperty("Lowest displayed frequency in Hz", 0),
					"fmax":              numberProperty("Highest displayed frequency in Hz, when no target is given", 0),
				},
				"required": []string{"x", "y", "width", "height"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
