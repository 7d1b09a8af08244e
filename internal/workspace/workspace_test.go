package workspace

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ironsheep/obb-annotate-mcp/internal/capture"
	"github.com/ironsheep/obb-annotate-mcp/internal/classes"
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
	"github.com/ironsheep/obb-annotate-mcp/internal/labels"
	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
)

// fakeLedger is an in-memory Ledger.
type fakeLedger map[string]ledger.Entry

func (f fakeLedger) Record(_ context.Context, e ledger.Entry) error {
	f[e.ImagePath] = e
	return nil
}

func (f fakeLedger) IsLabeled(_ context.Context, path string) (bool, error) {
	_, ok := f[path]
	return ok, nil
}

func (f fakeLedger) List(_ context.Context) ([]ledger.Entry, error) {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]ledger.Entry, len(paths))
	for i, p := range paths {
		out[i] = f[p]
	}
	return out, nil
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

type fixture struct {
	ws       *Workspace
	dir      string
	labelDir string
	images   []string
	ledger   fakeLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	labelDir := t.TempDir()

	images := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
	}
	writeImage(t, images[0], 100, 50)
	writeImage(t, images[1], 80, 80)

	fl := fakeLedger{}
	ws := New(Options{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Writer:      labels.NewDirWriter(labelDir, ""),
		Classes:     classes.Default(),
		AngleMode:   true,
		Ledger:      fl,
		OCRLanguage: "eng",
	})
	return &fixture{ws: ws, dir: dir, labelDir: labelDir, images: images, ledger: fl}
}

func (f *fixture) open(t *testing.T, resume bool) Status {
	t.Helper()
	st, err := f.ws.OpenDataset(context.Background(), f.dir, resume)
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	return st
}

func (f *fixture) drawBox(t *testing.T) Status {
	t.Helper()
	var st Status
	var err error
	for _, p := range []geometry.Point{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 30}} {
		st, err = f.ws.Click(p.X, p.Y, nil)
		if err != nil {
			t.Fatalf("Click failed: %v", err)
		}
	}
	return st
}

func TestNoDataset(t *testing.T) {
	f := newFixture(t)

	st := f.ws.Status()
	if st.State != "Idle" || st.Image != "" || st.SessionID == "" {
		t.Errorf("initial status: %+v", st)
	}

	if _, err := f.ws.Click(1, 1, nil); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Click: got %v, want ErrNoDataset", err)
	}
	if _, err := f.ws.Next(context.Background()); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Next: got %v, want ErrNoDataset", err)
	}
	if _, err := f.ws.RenderLabels(); !errors.Is(err, ErrNoDataset) {
		t.Errorf("RenderLabels: got %v, want ErrNoDataset", err)
	}
	if _, err := f.ws.Preview(PreviewOptions{}); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Preview: got %v, want ErrNoDataset", err)
	}
}

func TestOpenDataset(t *testing.T) {
	f := newFixture(t)
	st := f.open(t, false)

	if st.Image != f.images[0] || st.Index != 0 || st.Total != 2 {
		t.Errorf("status: %+v", st)
	}
	want := geometry.Frame{Width: 100, Height: 50}
	if st.Frame != want || st.ImageSize != want {
		t.Errorf("frame: got %v / %v, want %v", st.Frame, st.ImageSize, want)
	}
	if st.LabelPath != filepath.Join(f.labelDir, "a.txt") {
		t.Errorf("LabelPath: got %q", st.LabelPath)
	}

	if _, err := f.ws.OpenDataset(context.Background(), t.TempDir(), false); err == nil {
		t.Error("OpenDataset should fail for an empty directory")
	}
}

func TestCaptureCommitAndNext(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	st := f.drawBox(t)
	if st.State != "Reviewing" || st.Pending == nil {
		t.Fatalf("after three clicks: %+v", st)
	}
	if st.Pending.AngleText != "0.00" {
		t.Errorf("AngleText: got %q", st.Pending.AngleText)
	}

	if _, err := f.ws.SelectClass("Class 2"); err != nil {
		t.Fatalf("SelectClass failed: %v", err)
	}
	st, err := f.ws.Commit()
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if st.State != "Idle" || len(st.Annotations) != 1 || st.Annotations[0].ClassIndex != 1 {
		t.Fatalf("after commit: %+v", st)
	}

	want := "1 0.200000 0.300000 0.400000 0.600000 0.00"
	if got, _ := f.ws.RenderLabels(); got != want {
		t.Errorf("RenderLabels: got %q, want %q", got, want)
	}

	res, err := f.ws.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if res.Saved != 1 || res.LabelPath != filepath.Join(f.labelDir, "a.txt") {
		t.Errorf("NextResult: %+v", res)
	}
	data, err := os.ReadFile(res.LabelPath)
	if err != nil {
		t.Fatalf("label file not written: %v", err)
	}
	if string(data) != want {
		t.Errorf("label file: got %q, want %q", data, want)
	}
	if e, ok := f.ledger[f.images[0]]; !ok || e.AnnotationCount != 1 || e.SessionID != st.SessionID {
		t.Errorf("ledger entry: %+v", e)
	}

	st = res.Status
	if st.Image != f.images[1] || st.Index != 1 || len(st.Annotations) != 0 {
		t.Errorf("second image status: %+v", st)
	}
	if st.Frame != (geometry.Frame{Width: 80, Height: 80}) {
		t.Errorf("frame should follow the image size, got %v", st.Frame)
	}

	res, err = f.ws.Next(context.Background())
	if err != nil {
		t.Fatalf("Next on last image failed: %v", err)
	}
	if res.Saved != 0 || res.Status.State != "Complete" {
		t.Errorf("after last image: %+v", res)
	}
	if data, _ := os.ReadFile(res.LabelPath); len(data) != 0 {
		t.Errorf("empty image should write an empty label file, got %q", data)
	}

	if _, err := f.ws.Click(1, 1, nil); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Click after completion: got %v", err)
	}
	if _, err := f.ws.Next(context.Background()); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Next after completion: got %v", err)
	}
}

func TestExistingLabelsLoaded(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.labelDir, "a.txt"), []byte("1 0.5 0.5 0.2 0.4 30\n0 0.1 0.1 0.1 0.1 0"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := f.open(t, false)
	if len(st.Annotations) != 2 {
		t.Fatalf("annotations: got %d, want 2", len(st.Annotations))
	}
	a := st.Annotations[0]
	if a.ClassIndex != 1 || a.CX != 0.5 || a.W != 0.2 {
		t.Errorf("first annotation: %+v", a)
	}

	got, _ := f.ws.RenderLabels()
	if !strings.HasPrefix(got, "1 0.500000 0.500000 0.200000 0.400000 30.00\n") {
		t.Errorf("RenderLabels: got %q", got)
	}
}

func TestResume(t *testing.T) {
	f := newFixture(t)
	f.ledger[f.images[0]] = ledger.Entry{ImagePath: f.images[0]}

	st := f.open(t, true)
	if st.Image != f.images[1] || st.Index != 1 {
		t.Errorf("resume should skip labeled images: %+v", st)
	}

	st = f.open(t, false)
	if st.Image != f.images[0] {
		t.Errorf("without resume the first image is current: %+v", st)
	}

	f.ledger[f.images[1]] = ledger.Entry{ImagePath: f.images[1]}
	st = f.open(t, true)
	if st.State != "Complete" {
		t.Errorf("fully labeled dataset should be Complete: %+v", st)
	}
}

func TestReviewErrors(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	for name, fn := range map[string]func() (Status, error){
		"EditAngle":   func() (Status, error) { return f.ws.EditAngle("10") },
		"SwitchAngle": f.ws.SwitchAngle,
		"SelectClass": func() (Status, error) { return f.ws.SelectClass("Class 1") },
		"Commit":      f.ws.Commit,
	} {
		if _, err := fn(); !errors.Is(err, ErrNoPending) {
			t.Errorf("%s without pending: got %v, want ErrNoPending", name, err)
		}
	}

	if _, err := f.ws.SelectClassIndex(5); !errors.Is(err, ErrNoPending) {
		t.Errorf("SelectClassIndex(5) without pending: got %v", err)
	}
	f.drawBox(t)
	if _, err := f.ws.SelectClassIndex(5); !errors.Is(err, ErrIndexRange) {
		t.Errorf("SelectClassIndex(5): got %v", err)
	}
	if _, err := f.ws.RemoveAnnotation(0); !errors.Is(err, ErrIndexRange) {
		t.Errorf("RemoveAnnotation(0): got %v", err)
	}
}

func TestAngleEditing(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)
	f.drawBox(t)

	st, err := f.ws.EditAngle("30")
	if err != nil {
		t.Fatalf("EditAngle failed: %v", err)
	}
	if st.Pending.AngleText != "30" {
		t.Errorf("AngleText: got %q", st.Pending.AngleText)
	}

	st, _ = f.ws.SwitchAngle()
	if st.Pending.AngleText != "150.00" {
		t.Errorf("SwitchAngle: got %q, want 150.00", st.Pending.AngleText)
	}

	if _, err := f.ws.SelectClassIndex(1); err != nil {
		t.Fatalf("SelectClassIndex failed: %v", err)
	}
	st, _ = f.ws.Commit()
	if a := st.Annotations[0]; a.Angle != 150 || a.ClassIndex != 1 {
		t.Errorf("committed: %+v", a)
	}
}

func TestCancelClearRemove(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	for i := 0; i < 2; i++ {
		f.drawBox(t)
		if _, err := f.ws.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	f.ws.Click(5, 5, nil)
	st, err := f.ws.Cancel()
	if err != nil || st.State != "Idle" || len(st.Buffer) != 0 {
		t.Errorf("Cancel: %+v, %v", st, err)
	}

	st, err = f.ws.RemoveAnnotation(1)
	if err != nil || len(st.Annotations) != 1 {
		t.Errorf("RemoveAnnotation: %+v, %v", st, err)
	}

	st, err = f.ws.Clear()
	if err != nil || len(st.Annotations) != 0 || st.State != "Idle" {
		t.Errorf("Clear: %+v, %v", st, err)
	}
}

func TestFrameAndAngleMode(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	if _, err := f.ws.SetFrame(0, 10); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("SetFrame(0,10): got %v", err)
	}
	if _, err := f.ws.Click(1, 1, &geometry.Frame{Width: -1, Height: 5}); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Click with bad frame: got %v", err)
	}

	st, err := f.ws.SetFrame(200, 100)
	if err != nil || st.Frame != (geometry.Frame{Width: 200, Height: 100}) {
		t.Fatalf("SetFrame: %+v, %v", st, err)
	}

	st = f.ws.SetAngleMode(false)
	if st.AngleMode {
		t.Error("SetAngleMode(false) not applied")
	}

	// Axis-aligned mode uses the bounding box of all three clicks.
	f.ws.Click(20, 10, nil)
	f.ws.Click(100, 10, nil)
	st, _ = f.ws.Click(60, 70, nil)
	if st.Pending == nil {
		t.Fatal("expected a pending box")
	}
	b := st.Pending.Box
	if b.CX != 0.3 || b.CY != 0.4 || b.W != 0.4 || b.H != 0.6 || b.Angle != 0 {
		t.Errorf("axis-aligned box: %+v", b)
	}

	f.ws.Commit()
	if got, _ := f.ws.RenderLabels(); got != "0 0.300000 0.400000 0.400000 0.600000" {
		t.Errorf("RenderLabels without angle: got %q", got)
	}
}

func TestClassOperations(t *testing.T) {
	f := newFixture(t)

	idx, err := f.ws.AddClass("  truck ")
	if err != nil || idx != 2 {
		t.Fatalf("AddClass: %d, %v", idx, err)
	}
	if _, err := f.ws.AddClass(" "); err == nil {
		t.Error("AddClass should reject an empty name")
	}

	names, err := f.ws.MoveClass(2, -1)
	if err != nil || !reflect.DeepEqual(names, []string{"Class 1", "truck", "Class 2"}) {
		t.Errorf("MoveClass: %v, %v", names, err)
	}
	if _, err := f.ws.MoveClass(0, -1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("MoveClass(0,-1): got %v", err)
	}

	names, err = f.ws.RemoveClass(0)
	if err != nil || !reflect.DeepEqual(names, []string{"truck", "Class 2"}) {
		t.Errorf("RemoveClass: %v, %v", names, err)
	}

	if _, err := f.ws.SaveClasses(""); !errors.Is(err, ErrNoClassesFile) {
		t.Errorf("SaveClasses without path: got %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.yaml")
	if got, err := f.ws.SaveClasses(path); err != nil || got != path {
		t.Fatalf("SaveClasses: %q, %v", got, err)
	}

	f.ws.AddClass("extra")
	names, err = f.ws.LoadClasses(path)
	if err != nil || !reflect.DeepEqual(names, []string{"truck", "Class 2"}) {
		t.Errorf("LoadClasses: %v, %v", names, err)
	}
	if !reflect.DeepEqual(f.ws.Classes(), names) {
		t.Errorf("Classes: %v", f.ws.Classes())
	}
}

func TestPreviewAndCrop(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	if _, err := f.ws.CropPending(1); !errors.Is(err, ErrNoPending) {
		t.Errorf("CropPending without pending: got %v", err)
	}
	if _, err := f.ws.ReadPending(""); !errors.Is(err, ErrNoPending) {
		t.Errorf("ReadPending without pending: got %v", err)
	}

	f.drawBox(t)
	f.ws.Commit()
	f.ws.Click(10, 10, nil)

	res, err := f.ws.Preview(PreviewOptions{ShowIndex: true})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if res.Width != 100 || res.Height != 50 || res.Boxes != 1 || res.MimeType != "image/png" {
		t.Errorf("Preview: %+v", res.Encoded)
	}

	f.ws.Cancel()
	f.drawBox(t)
	crop, err := f.ws.CropPending(1)
	if err != nil {
		t.Fatalf("CropPending failed: %v", err)
	}
	if crop.Width != 40 || crop.Height != 30 || crop.Rotation != 0 {
		t.Errorf("CropPending: %dx%d rotation %v", crop.Width, crop.Height, crop.Rotation)
	}

	info, err := f.ws.ImageInfo()
	if err != nil || info.Width != 100 || info.Format != "png" {
		t.Errorf("ImageInfo: %+v, %v", info, err)
	}
}

func TestPixelRectUsesEditedAngle(t *testing.T) {
	p := capture.Pending{
		Box:       capture.Annotation{CX: 0.5, CY: 0.5, W: 0.2, H: 0.1, Angle: 0},
		AngleText: "45",
	}
	r := pixelRect(p, geometry.Frame{Width: 200, Height: 100})
	if r.Center != (geometry.Point{X: 100, Y: 50}) {
		t.Errorf("center: %v", r.Center)
	}
	if r.Angle != 45 {
		t.Errorf("angle: got %v, want 45", r.Angle)
	}
	if d := r.Width - 40; d > 1e-9 || d < -1e-9 {
		t.Errorf("width: got %v, want 40", r.Width)
	}
}

func TestNextSkipsUndecodableImage(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.images[1], []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.open(t, false)
	f.drawBox(t)
	if _, err := f.ws.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	res, err := f.ws.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if res.Saved != 1 || res.LabelPath != filepath.Join(f.labelDir, "a.txt") {
		t.Errorf("NextResult should report the saved label: %+v", res)
	}
	st := res.Status
	if st.Image != f.images[1] || st.ImageError == "" {
		t.Errorf("status should report the broken image: %+v", st)
	}
	if st.Frame != (geometry.Frame{}) || st.ImageSize != (geometry.Frame{}) {
		t.Errorf("frame should be cleared, got %v / %v", st.Frame, st.ImageSize)
	}

	if _, err := f.ws.Click(1, 1, nil); !errors.Is(err, ErrImageUnreadable) {
		t.Errorf("Click on broken image: got %v, want ErrImageUnreadable", err)
	}
	f.ws.SetFrame(100, 50)
	if _, err := f.ws.Click(1, 1, nil); !errors.Is(err, ErrImageUnreadable) {
		t.Errorf("Click after SetFrame on broken image: got %v", err)
	}
	if _, err := f.ws.Preview(PreviewOptions{}); !errors.Is(err, ErrImageUnreadable) {
		t.Errorf("Preview on broken image: got %v", err)
	}

	res, err = f.ws.Next(context.Background())
	if err != nil {
		t.Fatalf("Next over broken image failed: %v", err)
	}
	if !res.Skipped || res.Saved != 0 || res.LabelPath != "" {
		t.Errorf("broken image should be skipped: %+v", res)
	}
	if res.Status.State != "Complete" || res.Status.ImageError != "" {
		t.Errorf("status after skip: %+v", res.Status)
	}
	if _, err := os.Stat(filepath.Join(f.labelDir, "b.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no label file should be written for a broken image: %v", err)
	}
	if _, ok := f.ledger[f.images[1]]; ok {
		t.Error("broken image should not be recorded in the ledger")
	}
}

func TestOpenDatasetUndecodableFirstImage(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.images[0], []byte{0, 1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	st := f.open(t, false)
	if st.Image != f.images[0] || st.ImageError == "" || st.Frame.Valid() {
		t.Errorf("status: %+v", st)
	}

	res, err := f.ws.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !res.Skipped || res.Status.Image != f.images[1] || res.Status.ImageError != "" {
		t.Errorf("after skip: %+v", res)
	}
	if res.Status.Frame != (geometry.Frame{Width: 80, Height: 80}) {
		t.Errorf("frame of the next image: %v", res.Status.Frame)
	}
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	f.ledger["/elsewhere/x.png"] = ledger.Entry{ImagePath: "/elsewhere/x.png"}

	p, err := f.ws.Progress(context.Background())
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if p.Labeled != 1 || len(p.Entries) != 1 || p.Total != 0 {
		t.Errorf("without dataset: %+v", p)
	}

	f.open(t, false)
	f.drawBox(t)
	f.ws.Commit()
	if _, err := f.ws.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	p, err = f.ws.Progress(context.Background())
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if p.Total != 2 || p.Labeled != 1 || p.Remaining != 1 || p.Dataset != f.dir {
		t.Errorf("progress: %+v", p)
	}
	if len(p.Entries) != 1 || p.Entries[0].ImagePath != f.images[0] || p.Entries[0].AnnotationCount != 1 {
		t.Errorf("entries: %+v", p.Entries)
	}

	noLedger := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if _, err := noLedger.Progress(context.Background()); !errors.Is(err, ErrNoLedger) {
		t.Errorf("Progress without ledger: got %v, want ErrNoLedger", err)
	}
}

func TestSelectClassIndexWhileClassesMove(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)
	f.drawBox(t)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				f.ws.MoveClass(0, 1)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		st, err := f.ws.SelectClassIndex(0)
		if err != nil {
			t.Fatalf("SelectClassIndex failed: %v", err)
		}
		if st.Pending.ClassName != st.Classes[0] {
			t.Fatalf("selected %q but index 0 is %q", st.Pending.ClassName, st.Classes[0])
		}
	}
	close(done)
	wg.Wait()
}

func TestIndexOperationsCheckState(t *testing.T) {
	f := newFixture(t)
	f.open(t, false)

	if _, err := f.ws.SelectClassIndex(0); !errors.Is(err, ErrNoPending) {
		t.Errorf("SelectClassIndex outside review: got %v, want ErrNoPending", err)
	}

	f.ws.Next(context.Background())
	f.ws.Next(context.Background())
	if _, err := f.ws.RemoveAnnotation(0); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("RemoveAnnotation after completion: got %v, want ErrSessionComplete", err)
	}
}
