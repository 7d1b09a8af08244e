package workspace

import (
	"fmt"
	"image"

	"github.com/ironsheep/obb-annotate-mcp/internal/capture"
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
	"github.com/ironsheep/obb-annotate-mcp/internal/imaging"
	"github.com/ironsheep/obb-annotate-mcp/internal/ocr"
)

// PreviewOptions controls Preview.
type PreviewOptions struct {
	// Format overrides the configured preview format.
	Format    string
	Quality   float32
	LineWidth int
	ShowIndex bool
	// PendingColor is a hex color for the pending box, e.g. "#00FF00".
	PendingColor string
}

// Preview renders the current image with committed boxes, the pending box and
// buffered clicks drawn on top.
func (w *Workspace) Preview(opts PreviewOptions) (*imaging.OverlayResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	img, err := w.currentImage()
	if err != nil {
		return nil, err
	}

	var boxes []imaging.Box
	for _, a := range w.session.Annotations() {
		boxes = append(boxes, imaging.Box{Corners: a.PixelCorners(w.imageSize), ClassIndex: a.ClassIndex})
	}
	if p, ok := w.session.Pending(); ok {
		boxes = append(boxes, imaging.Box{Corners: pixelRect(p, w.imageSize).Corners, Pending: true})
	}
	var clicks []geometry.Point
	for _, c := range w.session.Buffer() {
		clicks = append(clicks, geometry.Denormalize(c, w.imageSize))
	}

	format := opts.Format
	if format == "" {
		format = w.previewFormat
	}
	return imaging.Overlay(img, boxes, imaging.OverlayOptions{
		Format:       format,
		Quality:      opts.Quality,
		LineWidth:    opts.LineWidth,
		ShowIndex:    opts.ShowIndex,
		PendingColor: opts.PendingColor,
		Clicks:       clicks,
	})
}

// CropPending returns the pending box cut out upright from the current image.
func (w *Workspace) CropPending(scale float64) (*imaging.CropResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	img, rect, err := w.pendingRegion()
	if err != nil {
		return nil, err
	}
	return imaging.CropOriented(img, rect, scale, w.previewFormat)
}

// PendingText is the OCR result for the pending box.
type PendingText struct {
	*ocr.Result
	// Rotation is the angle in degrees the box was turned to read it upright.
	Rotation float64 `json:"rotation"`
	Language string  `json:"language"`
}

// ReadPending runs OCR on the upright pending box. An empty lang uses the
// configured language.
func (w *Workspace) ReadPending(lang string) (*PendingText, error) {
	w.mu.Lock()
	img, rect, err := w.pendingRegion()
	if lang == "" {
		lang = w.ocrLanguage
	}
	w.mu.Unlock()
	if lang == "" {
		lang = ocr.DefaultLanguage
	}
	if err != nil {
		return nil, err
	}

	region, rotation, err := imaging.OrientedRegion(img, rect)
	if err != nil {
		return nil, err
	}
	w.log.Debug("ocr pending box", "rotation", rotation, "lang", lang)
	res, err := ocr.Read(region, lang)
	if err != nil {
		return nil, err
	}
	return &PendingText{Result: res, Rotation: rotation, Language: lang}, nil
}

func (w *Workspace) currentImage() (image.Image, error) {
	if err := w.ready(); err != nil {
		return nil, err
	}
	return w.cache.Load(w.cursor.Current())
}

// pendingRegion returns the current image and the pending box in its pixel space,
// using the edited angle.
func (w *Workspace) pendingRegion() (image.Image, geometry.Rectangle, error) {
	img, err := w.currentImage()
	if err != nil {
		return nil, geometry.Rectangle{}, err
	}
	p, ok := w.session.Pending()
	if !ok {
		return nil, geometry.Rectangle{}, ErrNoPending
	}
	return img, pixelRect(p, w.imageSize), nil
}

func pixelRect(p capture.Pending, size geometry.Frame) geometry.Rectangle {
	center := geometry.Denormalize(geometry.Point{X: p.Box.CX, Y: p.Box.CY}, size)
	return geometry.RectFromCenter(center, p.Box.W*float64(size.Width), p.Box.H*float64(size.Height), p.Angle())
}

// ImageInfo describes the current image.
func (w *Workspace) ImageInfo() (*imaging.ImageInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ready(); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(w.cache, w.cursor.Current())
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", w.cursor.Index(), err)
	}
	return info, nil
}
