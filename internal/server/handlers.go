package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "annotate_click", "annotate_commit").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the matching workspace operation
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Dataset
	case "annotate_open_dataset":
		return s.handleOpenDataset(ctx, args)
	case "annotate_status":
		return s.ws.Status(), nil
	case "annotate_image_info":
		return s.ws.ImageInfo()
	case "annotate_next_image":
		return s.ws.Next(ctx)
	case "annotate_progress":
		return s.ws.Progress(ctx)

	// Capture
	case "annotate_set_frame":
		return s.handleSetFrame(args)
	case "annotate_click":
		return s.handleClick(args)
	case "annotate_set_angle":
		return s.handleSetAngle(args)
	case "annotate_switch_angle":
		return s.ws.SwitchAngle()
	case "annotate_select_class":
		return s.handleSelectClass(args)
	case "annotate_commit":
		return s.ws.Commit()
	case "annotate_cancel":
		return s.ws.Cancel()
	case "annotate_clear":
		return s.ws.Clear()
	case "annotate_remove":
		return s.handleRemove(args)
	case "annotate_set_angle_mode":
		return s.handleSetAngleMode(args)
	case "labels_render":
		return s.handleLabelsRender()

	// Classes
	case "classes_list":
		return classesResult(s.ws.Classes(), nil)
	case "classes_load":
		return s.handleClassesLoad(args)
	case "classes_save":
		return s.handleClassesSave(args)
	case "classes_add":
		return s.handleClassesAdd(args)
	case "classes_remove":
		return s.handleClassesRemove(args)
	case "classes_move":
		return s.handleClassesMove(args)

	// Rendering
	case "annotate_preview":
		return s.handlePreview(args)
	case "annotate_crop_pending":
		return s.handleCropPending(args)
	case "annotate_ocr_pending":
		return s.handleOCRPending(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals args into v. Missing arguments leave v at its zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Dataset Handlers ===

type openDatasetArgs struct {
	Dir    string `json:"dir"`
	Resume *bool  `json:"resume"`
}

func (s *Server) handleOpenDataset(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a openDatasetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	resume := s.resume
	if a.Resume != nil {
		resume = *a.Resume
	}
	return s.ws.OpenDataset(ctx, a.Dir, resume)
}

// === Capture Handlers ===

type setFrameArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleSetFrame(args json.RawMessage) (interface{}, error) {
	var a setFrameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ws.SetFrame(a.Width, a.Height)
}

type clickArgs struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	FrameWidth  int      `json:"frame_width"`
	FrameHeight int      `json:"frame_height"`
}

func (s *Server) handleClick(args json.RawMessage) (interface{}, error) {
	var a clickArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.X == nil || a.Y == nil {
		return nil, fmt.Errorf("x and y are required")
	}
	var frame *geometry.Frame
	if a.FrameWidth != 0 || a.FrameHeight != 0 {
		frame = &geometry.Frame{Width: a.FrameWidth, Height: a.FrameHeight}
	}
	return s.ws.Click(*a.X, *a.Y, frame)
}

type setAngleArgs struct {
	Angle string `json:"angle"`
}

func (s *Server) handleSetAngle(args json.RawMessage) (interface{}, error) {
	var a setAngleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ws.EditAngle(a.Angle)
}

type selectClassArgs struct {
	Name  string `json:"name"`
	Index *int   `json:"index"`
}

func (s *Server) handleSelectClass(args json.RawMessage) (interface{}, error) {
	var a selectClassArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.Name != "":
		return s.ws.SelectClass(a.Name)
	case a.Index != nil:
		return s.ws.SelectClassIndex(*a.Index)
	default:
		return nil, fmt.Errorf("name or index is required")
	}
}

type indexArgs struct {
	Index *int `json:"index"`
}

func (a indexArgs) value() (int, error) {
	if a.Index == nil {
		return 0, fmt.Errorf("index is required")
	}
	return *a.Index, nil
}

func (s *Server) handleRemove(args json.RawMessage) (interface{}, error) {
	var a indexArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	i, err := a.value()
	if err != nil {
		return nil, err
	}
	return s.ws.RemoveAnnotation(i)
}

type setAngleModeArgs struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetAngleMode(args json.RawMessage) (interface{}, error) {
	var a setAngleModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ws.SetAngleMode(a.Enabled), nil
}

// LabelsResult is the rendered label content of the current image.
type LabelsResult struct {
	Content string `json:"content"`
	Lines   int    `json:"lines"`
}

func (s *Server) handleLabelsRender() (interface{}, error) {
	content, err := s.ws.RenderLabels()
	if err != nil {
		return nil, err
	}
	return &LabelsResult{Content: content, Lines: len(s.ws.Status().Annotations)}, nil
}

// === Class Handlers ===

// ClassesResult lists the class names.
type ClassesResult struct {
	Classes []string `json:"classes"`
	Path    string   `json:"path,omitempty"`
	Index   *int     `json:"index,omitempty"`
}

func classesResult(names []string, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return &ClassesResult{Classes: names}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleClassesLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	names, err := s.ws.LoadClasses(a.Path)
	if err != nil {
		return nil, err
	}
	return &ClassesResult{Classes: names, Path: a.Path}, nil
}

func (s *Server) handleClassesSave(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := s.ws.SaveClasses(a.Path)
	if err != nil {
		return nil, err
	}
	return &ClassesResult{Classes: s.ws.Classes(), Path: path}, nil
}

type classNameArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleClassesAdd(args json.RawMessage) (interface{}, error) {
	var a classNameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	idx, err := s.ws.AddClass(a.Name)
	if err != nil {
		return nil, err
	}
	return &ClassesResult{Classes: s.ws.Classes(), Index: &idx}, nil
}

func (s *Server) handleClassesRemove(args json.RawMessage) (interface{}, error) {
	var a indexArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	i, err := a.value()
	if err != nil {
		return nil, err
	}
	return classesResult(s.ws.RemoveClass(i))
}

type classMoveArgs struct {
	indexArgs
	Direction string `json:"direction"`
}

func (s *Server) handleClassesMove(args json.RawMessage) (interface{}, error) {
	var a classMoveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	i, err := a.value()
	if err != nil {
		return nil, err
	}
	var delta int
	switch a.Direction {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		return nil, fmt.Errorf("direction must be \"up\" or \"down\", got %q", a.Direction)
	}
	return classesResult(s.ws.MoveClass(i, delta))
}

// === Rendering Handlers ===

type previewArgs struct {
	Format       string  `json:"format"`
	Quality      float32 `json:"quality"`
	LineWidth    int     `json:"line_width"`
	ShowIndex    *bool   `json:"show_index"`
	PendingColor string  `json:"pending_color"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	showIndex := true
	if a.ShowIndex != nil {
		showIndex = *a.ShowIndex
	}
	return s.ws.Preview(workspace.PreviewOptions{
		Format:       a.Format,
		Quality:      a.Quality,
		LineWidth:    a.LineWidth,
		ShowIndex:    showIndex,
		PendingColor: a.PendingColor,
	})
}

type cropPendingArgs struct {
	Scale float64 `json:"scale"`
}

func (s *Server) handleCropPending(args json.RawMessage) (interface{}, error) {
	var a cropPendingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	return s.ws.CropPending(a.Scale)
}

type ocrPendingArgs struct {
	Language string `json:"language"`
}

func (s *Server) handleOCRPending(args json.RawMessage) (interface{}, error) {
	var a ocrPendingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.ws.ReadPending(a.Language)
}
