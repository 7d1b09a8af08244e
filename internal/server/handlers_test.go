package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// createTestImageFile creates a test image file in dir and returns its path
func createTestImageFile(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool invokes a tool through tools/call and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatalf("%s: handleRequest returned nil", name)
	}
	return resp
}

// mustCall invokes a tool, fails on error and decodes the text content into out.
func mustCall(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %+v", name, resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("%s: unexpected content %v", name, content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("%s: failed to decode result: %v", name, err)
		}
	}
}

// newDatasetServer returns a server and a directory of two images. Labels are
// written next to the images.
func newDatasetServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	createTestImageFile(t, dir, "001.png", 100, 50, color.RGBA{255, 0, 0, 255})
	createTestImageFile(t, dir, "002.png", 60, 60, color.RGBA{0, 255, 0, 255})

	ws := workspace.New(workspace.Options{Logger: quietLogger(), AngleMode: true})
	return New(ws, Options{Logger: quietLogger()}), dir
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`[1,2]`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_detect_circles", nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Data.(string), "unknown tool") {
		t.Errorf("Data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_NoDataset(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"annotate_click", "annotate_next_image", "annotate_preview", "labels_render"} {
		args := map[string]interface{}{"x": 1, "y": 1}
		resp := callTool(t, s, name, args)
		if resp.Error == nil {
			t.Errorf("%s should fail without a dataset", name)
			continue
		}
		if name != "annotate_click" && !strings.Contains(resp.Error.Data.(string), workspace.ErrNoDataset.Error()) {
			t.Errorf("%s: Data %v", name, resp.Error.Data)
		}
	}
}

func TestHandleToolsCall_ArgumentValidation(t *testing.T) {
	s, dir := newDatasetServer(t)
	mustCall(t, s, "annotate_open_dataset", map[string]interface{}{"dir": dir}, nil)

	tests := []struct {
		name string
		tool string
		args interface{}
	}{
		{"open without dir", "annotate_open_dataset", map[string]interface{}{}},
		{"click without y", "annotate_click", map[string]interface{}{"x": 3}},
		{"click bad frame", "annotate_click", map[string]interface{}{"x": 3, "y": 3, "frame_width": 10}},
		{"frame zero", "annotate_set_frame", map[string]interface{}{"width": 0, "height": 5}},
		{"select nothing", "annotate_select_class", map[string]interface{}{}},
		{"remove without index", "annotate_remove", map[string]interface{}{}},
		{"move bad direction", "classes_move", map[string]interface{}{"index": 0, "direction": "left"}},
		{"load without path", "classes_load", map[string]interface{}{}},
		{"wrong type", "annotate_set_frame", map[string]interface{}{"width": "wide"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Errorf("%s should fail", tt.tool)
			}
		})
	}
}

func TestAnnotationWorkflow(t *testing.T) {
	s, dir := newDatasetServer(t)

	var st workspace.Status
	mustCall(t, s, "annotate_open_dataset", map[string]interface{}{"dir": dir}, &st)
	if st.Total != 2 || !strings.HasSuffix(st.Image, "001.png") {
		t.Fatalf("open: %+v", st)
	}

	// Clicks are reported against a 200x100 view of the 100x50 image.
	mustCall(t, s, "annotate_click", map[string]interface{}{"x": 0, "y": 0, "frame_width": 200, "frame_height": 100}, &st)
	mustCall(t, s, "annotate_click", map[string]interface{}{"x": 80, "y": 0}, &st)
	mustCall(t, s, "annotate_click", map[string]interface{}{"x": 80, "y": 60}, &st)
	if st.State != "Reviewing" || st.Pending == nil {
		t.Fatalf("after clicks: %+v", st)
	}

	mustCall(t, s, "annotate_set_angle", map[string]interface{}{"angle": "20"}, &st)
	mustCall(t, s, "annotate_switch_angle", nil, &st)
	if st.Pending.AngleText != "160.00" {
		t.Errorf("switched angle: got %q", st.Pending.AngleText)
	}
	mustCall(t, s, "annotate_select_class", map[string]interface{}{"index": 1}, &st)
	mustCall(t, s, "annotate_commit", nil, &st)
	if len(st.Annotations) != 1 {
		t.Fatalf("after commit: %+v", st)
	}

	var labels LabelsResult
	mustCall(t, s, "labels_render", nil, &labels)
	want := "1 0.200000 0.300000 0.400000 0.600000 160.00"
	if labels.Content != want || labels.Lines != 1 {
		t.Errorf("labels_render: got %+v, want %q", labels, want)
	}

	var preview struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		Boxes       int    `json:"boxes"`
	}
	mustCall(t, s, "annotate_preview", map[string]interface{}{"line_width": 1}, &preview)
	if preview.Width != 100 || preview.Height != 50 || preview.Boxes != 1 || preview.ImageBase64 == "" {
		t.Errorf("preview: %+v", preview)
	}

	var next workspace.NextResult
	mustCall(t, s, "annotate_next_image", nil, &next)
	data, err := os.ReadFile(next.LabelPath)
	if err != nil {
		t.Fatalf("label file not written: %v", err)
	}
	if string(data) != want {
		t.Errorf("label file: got %q, want %q", data, want)
	}
	if filepath.Base(next.LabelPath) != "001.txt" {
		t.Errorf("label path: %s", next.LabelPath)
	}
	if next.Status.Frame.Width != 60 {
		t.Errorf("frame should reset to the next image size: %+v", next.Status.Frame)
	}

	mustCall(t, s, "annotate_next_image", nil, &next)
	if next.Status.State != "Complete" {
		t.Errorf("expected Complete, got %s", next.Status.State)
	}
	if resp := callTool(t, s, "annotate_click", map[string]interface{}{"x": 1, "y": 1}); resp.Error == nil {
		t.Error("click after completion should fail")
	}
}

func TestCropPendingTool(t *testing.T) {
	s, dir := newDatasetServer(t)
	mustCall(t, s, "annotate_open_dataset", map[string]interface{}{"dir": dir}, nil)

	if resp := callTool(t, s, "annotate_crop_pending", nil); resp.Error == nil {
		t.Error("crop without a pending box should fail")
	}

	for _, p := range [][2]float64{{10, 10}, {50, 10}, {50, 30}} {
		mustCall(t, s, "annotate_click", map[string]interface{}{"x": p[0], "y": p[1]}, nil)
	}

	var crop struct {
		Width    int     `json:"width"`
		Height   int     `json:"height"`
		MimeType string  `json:"mime_type"`
		Rotation float64 `json:"rotation"`
	}
	mustCall(t, s, "annotate_crop_pending", map[string]interface{}{"scale": 2}, &crop)
	if crop.Width != 80 || crop.Height != 40 || crop.MimeType != "image/png" {
		t.Errorf("crop: %+v", crop)
	}

	mustCall(t, s, "annotate_cancel", nil, nil)
	var info struct {
		Width  int    `json:"width"`
		Format string `json:"format"`
	}
	mustCall(t, s, "annotate_image_info", nil, &info)
	if info.Width != 100 || info.Format != "png" {
		t.Errorf("image info: %+v", info)
	}
}

func TestClassTools(t *testing.T) {
	s := newTestServer(t)

	var res ClassesResult
	mustCall(t, s, "classes_list", nil, &res)
	if len(res.Classes) != 2 {
		t.Fatalf("default classes: %v", res.Classes)
	}

	mustCall(t, s, "classes_add", map[string]interface{}{"name": "plate"}, &res)
	if res.Index == nil || *res.Index != 2 {
		t.Errorf("classes_add index: %+v", res)
	}

	mustCall(t, s, "classes_move", map[string]interface{}{"index": 2, "direction": "up"}, &res)
	if res.Classes[1] != "plate" {
		t.Errorf("classes_move: %v", res.Classes)
	}

	mustCall(t, s, "classes_remove", map[string]interface{}{"index": 0}, &res)
	if strings.Join(res.Classes, ",") != "plate,Class 2" {
		t.Errorf("classes_remove: %v", res.Classes)
	}

	if resp := callTool(t, s, "classes_save", nil); resp.Error == nil {
		t.Error("classes_save without a path should fail")
	}

	path := filepath.Join(t.TempDir(), "data.yaml")
	mustCall(t, s, "classes_save", map[string]interface{}{"path": path}, &res)
	if res.Path != path {
		t.Errorf("classes_save path: %q", res.Path)
	}

	mustCall(t, s, "classes_add", map[string]interface{}{"name": "temp"}, nil)
	mustCall(t, s, "classes_load", map[string]interface{}{"path": path}, &res)
	if strings.Join(res.Classes, ",") != "plate,Class 2" {
		t.Errorf("classes_load: %v", res.Classes)
	}
}

func TestSetAngleModeTool(t *testing.T) {
	s := newTestServer(t)

	var st workspace.Status
	mustCall(t, s, "annotate_set_angle_mode", map[string]interface{}{"enabled": false}, &st)
	if st.AngleMode {
		t.Error("angle mode should be off")
	}
	mustCall(t, s, "annotate_set_angle_mode", map[string]interface{}{"enabled": true}, &st)
	if !st.AngleMode {
		t.Error("angle mode should be on")
	}
}

func TestProgressTool(t *testing.T) {
	s, _ := newDatasetServer(t)
	if resp := callTool(t, s, "annotate_progress", nil); resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("progress without a ledger should fail, got %+v", resp.Error)
	}

	l, err := ledger.Open(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("ledger.Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	dir := t.TempDir()
	createTestImageFile(t, dir, "001.png", 100, 50, color.RGBA{255, 0, 0, 255})
	createTestImageFile(t, dir, "002.png", 60, 60, color.RGBA{0, 255, 0, 255})
	ws := workspace.New(workspace.Options{Logger: quietLogger(), Ledger: l})
	s = New(ws, Options{Logger: quietLogger()})

	mustCall(t, s, "annotate_open_dataset", map[string]interface{}{"dir": dir}, nil)
	for _, p := range [][2]float64{{10, 10}, {50, 10}, {50, 30}} {
		mustCall(t, s, "annotate_click", map[string]interface{}{"x": p[0], "y": p[1]}, nil)
	}
	mustCall(t, s, "annotate_commit", nil, nil)
	mustCall(t, s, "annotate_next_image", nil, nil)

	var progress workspace.Progress
	mustCall(t, s, "annotate_progress", nil, &progress)
	if progress.Total != 2 || progress.Labeled != 1 || progress.Remaining != 1 {
		t.Errorf("progress: %+v", progress)
	}
	if len(progress.Entries) != 1 || filepath.Base(progress.Entries[0].ImagePath) != "001.png" || progress.Entries[0].AnnotationCount != 1 {
		t.Errorf("entries: %+v", progress.Entries)
	}
}

func TestPreviewPendingColor(t *testing.T) {
	s, dir := newDatasetServer(t)
	mustCall(t, s, "annotate_open_dataset", map[string]interface{}{"dir": dir}, nil)
	for _, p := range [][2]float64{{10, 10}, {50, 10}, {50, 30}} {
		mustCall(t, s, "annotate_click", map[string]interface{}{"x": p[0], "y": p[1]}, nil)
	}

	var preview struct {
		Boxes int `json:"boxes"`
	}
	mustCall(t, s, "annotate_preview", map[string]interface{}{"pending_color": "#00FF00"}, &preview)
	if preview.Boxes != 1 {
		t.Errorf("preview boxes: %d", preview.Boxes)
	}
	if resp := callTool(t, s, "annotate_preview", map[string]interface{}{"pending_color": "green"}); resp.Error == nil {
		t.Error("non-hex pending_color should fail")
	}
}
