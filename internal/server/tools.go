package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// noArgs is the schema of tools without parameters.
func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Dataset
		{
			Name:        "annotate_open_dataset",
			Description: "Open a directory of images for annotation. Images are found recursively and visited in path order. Existing label files are loaded for each image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image directory",
					},
					"resume": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip images already recorded in the progress ledger. Defaults to the server configuration.",
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "annotate_status",
			Description: "Return the current image, capture state, buffered clicks, pending box, committed annotations and class list.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_image_info",
			Description: "Return the path, pixel size and format of the current image.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_next_image",
			Description: "Save the current image's annotations to its label file and move to the next image. A pending box is discarded. An image that cannot be decoded is skipped without a label file. After the last image the session is complete.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_progress",
			Description: "List the images recorded in the progress ledger for the open dataset, with labeled and remaining counts. Requires a configured ledger.",
			InputSchema: noArgs(),
		},

		// Capture
		{
			Name:        "annotate_set_frame",
			Description: "Set the pixel size of the surface clicks are reported against. Defaults to the image size on every image change.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels (> 0)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels (> 0)",
					},
				},
				"required": []string{"width", "height"},
			},
		},
		{
			Name:        "annotate_click",
			Description: "Click a box corner. Three clicks define a rectangle: in angle mode they are three corners of a rotated box, otherwise the box is their axis-aligned bounds. The third click puts the box under review.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate in frame pixels",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate in frame pixels",
					},
					"frame_width": map[string]interface{}{
						"type":        "integer",
						"description": "Optional frame width; replaces the current frame together with frame_height",
					},
					"frame_height": map[string]interface{}{
						"type":        "integer",
						"description": "Optional frame height",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "annotate_set_angle",
			Description: "Replace the angle text of the box under review. Text that is not a number falls back to the computed angle on commit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"angle": map[string]interface{}{
						"type":        "string",
						"description": "Angle in degrees, e.g. \"37.5\"",
					},
				},
				"required": []string{"angle"},
			},
		},
		{
			Name:        "annotate_switch_angle",
			Description: "Replace the angle of the box under review with 180 minus the angle.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_select_class",
			Description: "Choose the class of the box under review, by name or by index.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Class name; unknown names commit as class 0",
					},
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Class index, used when name is empty",
					},
				},
			},
		},
		{
			Name:        "annotate_commit",
			Description: "Commit the box under review to the current image's annotation list.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_cancel",
			Description: "Discard the box under review and any buffered clicks.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_clear",
			Description: "Remove every annotation of the current image, along with any pending box and buffered clicks.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotate_remove",
			Description: "Remove one committed annotation of the current image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Position in the annotation list (0-based)",
					},
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        "annotate_set_angle_mode",
			Description: "Switch between rotated boxes (labels carry an angle column) and axis-aligned boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"enabled": map[string]interface{}{
						"type":        "boolean",
						"description": "true for rotated boxes",
					},
				},
				"required": []string{"enabled"},
			},
		},
		{
			Name:        "labels_render",
			Description: "Return the label file content the current annotations would produce, without saving.",
			InputSchema: noArgs(),
		},

		// Classes
		{
			Name:        "classes_list",
			Description: "List the class names in index order.",
			InputSchema: noArgs(),
		},
		{
			Name:        "classes_load",
			Description: "Replace the class list with a YAML manifest whose 'names' is a list or an index-to-name mapping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the YAML manifest",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "classes_save",
			Description: "Write the class list as a YAML manifest.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Target path. Defaults to the last loaded manifest.",
					},
				},
			},
		},
		{
			Name:        "classes_add",
			Description: "Append a class to the list.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Class name (surrounding whitespace is trimmed)",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "classes_remove",
			Description: "Remove a class. Later classes shift down one index; committed annotations are not renumbered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Class index (0-based)",
					},
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        "classes_move",
			Description: "Swap a class with its neighbour.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Class index (0-based)",
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"up", "down"},
						"description": "up moves toward index 0",
					},
				},
				"required": []string{"index", "direction"},
			},
		},

		// Rendering
		{
			Name:        "annotate_preview",
			Description: "Render the current image with committed boxes in per-class colors, the pending box in white (or pending_color) and buffered clicks as red crosses. Returns base64 image data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "webp"},
						"description": "Output format. Defaults to the server configuration.",
					},
					"quality": map[string]interface{}{
						"type":        "number",
						"description": "WebP quality 1-100 for lossy output; omit for lossless",
					},
					"line_width": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 2",
						"default":     2,
					},
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the class index at each box's first corner",
						"default":     true,
					},
					"pending_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color of the pending box outline, e.g. \"#00FF00\". Default white",
					},
				},
			},
		},
		{
			Name:        "annotate_crop_pending",
			Description: "Cut the box under review out of the image, rotated upright, and return it as base64 image data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
		{
			Name:        "annotate_ocr_pending",
			Description: "Read text inside the box under review with Tesseract OCR. The region is rotated upright first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the server configuration.",
					},
				},
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
