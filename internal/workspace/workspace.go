// Package workspace binds the capture session to a dataset, a class list and label
// storage. Every exported method takes the workspace lock, so a Workspace can be
// shared by concurrent hosts.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/ironsheep/obb-annotate-mcp/internal/capture"
	"github.com/ironsheep/obb-annotate-mcp/internal/classes"
	"github.com/ironsheep/obb-annotate-mcp/internal/dataset"
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
	"github.com/ironsheep/obb-annotate-mcp/internal/imaging"
	"github.com/ironsheep/obb-annotate-mcp/internal/labels"
	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
)

var (
	ErrNoDataset       = errors.New("no dataset is open")
	ErrInvalidFrame    = errors.New("frame width and height must be positive")
	ErrSessionComplete = errors.New("every image in the dataset has been labeled")
	ErrNoPending       = errors.New("no box is awaiting review")
	ErrIndexRange      = errors.New("index out of range")
	ErrImageUnreadable = errors.New("current image cannot be decoded")
)

// Ledger is the progress store used for resume and progress reports.
// *ledger.Ledger implements it.
type Ledger interface {
	Record(ctx context.Context, e ledger.Entry) error
	IsLabeled(ctx context.Context, imagePath string) (bool, error)
	List(ctx context.Context) ([]ledger.Entry, error)
}

// Options configures a Workspace.
type Options struct {
	Logger *slog.Logger
	// Writer stores label files; nil writes .txt files next to each image.
	Writer    labels.Writer
	Classes   *classes.List
	AngleMode bool
	// ClassesFile is the default target of SaveClasses.
	ClassesFile string
	// Ledger is optional.
	Ledger        Ledger
	OCRLanguage   string
	PreviewFormat string
}

// Workspace is the annotation state of one operator.
type Workspace struct {
	mu sync.Mutex

	log         *slog.Logger
	cache       *imaging.ImageCache
	writer      labels.Writer
	ledger      Ledger
	classes     *classes.List
	classesFile string
	sessionID   string

	ocrLanguage   string
	previewFormat string

	cursor    *dataset.Cursor
	session   capture.Session
	frame     geometry.Frame
	imageSize geometry.Frame
	angleMode bool
	// loadErr is set while the current image cannot be decoded.
	loadErr error
}

// New returns a Workspace with no dataset open.
func New(opts Options) *Workspace {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	writer := opts.Writer
	if writer == nil {
		writer = labels.NewDirWriter("", labels.DefaultExt)
	}
	list := opts.Classes
	if list == nil {
		list = classes.Default()
	}

	sessionID := ledger.NewSessionID()
	return &Workspace{
		log:           log.With("session_id", sessionID),
		cache:         imaging.NewImageCache(),
		writer:        writer,
		ledger:        opts.Ledger,
		classes:       list,
		classesFile:   opts.ClassesFile,
		sessionID:     sessionID,
		ocrLanguage:   opts.OCRLanguage,
		previewFormat: opts.PreviewFormat,
		session:       capture.New(),
		angleMode:     opts.AngleMode,
	}
}

// Status is a snapshot of the workspace.
type Status struct {
	SessionID   string               `json:"session_id"`
	Dataset     string               `json:"dataset,omitempty"`
	Image       string               `json:"image,omitempty"`
	Index       int                  `json:"index"`
	Total       int                  `json:"total"`
	Frame       geometry.Frame       `json:"frame"`
	ImageSize   geometry.Frame       `json:"image_size"`
	State       string               `json:"state"`
	AngleMode   bool                 `json:"angle_mode"`
	Buffer      []geometry.Point     `json:"buffer"`
	Pending     *capture.Pending     `json:"pending,omitempty"`
	Annotations []capture.Annotation `json:"annotations"`
	Classes     []string             `json:"classes"`
	LabelPath   string               `json:"label_path,omitempty"`
	// ImageError is set when the current image cannot be decoded. Next skips it.
	ImageError string `json:"image_error,omitempty"`
}

// Status returns a snapshot of the workspace.
func (w *Workspace) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status()
}

func (w *Workspace) status() Status {
	st := Status{
		SessionID:   w.sessionID,
		Frame:       w.frame,
		ImageSize:   w.imageSize,
		State:       w.session.State().String(),
		AngleMode:   w.angleMode,
		Buffer:      w.session.Buffer(),
		Annotations: w.session.Annotations(),
		Classes:     w.classes.Names(),
	}
	if p, ok := w.session.Pending(); ok {
		st.Pending = &p
	}
	if w.cursor != nil {
		st.Dataset = w.cursor.Root()
		st.Index = w.cursor.Index()
		st.Total = w.cursor.Len()
		if img := w.cursor.Current(); img != "" {
			st.Image = img
			st.LabelPath = w.writer.Path(img)
		}
	}
	if w.loadErr != nil {
		st.ImageError = w.loadErr.Error()
	}
	return st
}

// OpenDataset scans dir and starts on its first image. With resume set and a
// ledger configured, images already recorded in the ledger are skipped.
func (w *Workspace) OpenDataset(ctx context.Context, dir string, resume bool) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cursor, err := dataset.Open(dir)
	if err != nil {
		return Status{}, err
	}

	if resume && w.ledger != nil {
		skipped := cursor.SkipWhile(func(path string) bool {
			done, err := w.ledger.IsLabeled(ctx, path)
			if err != nil {
				w.log.Warn("ledger lookup failed", "image", path, "error", err)
				return false
			}
			return done
		})
		w.log.Info("resuming dataset", "dir", dir, "skipped", skipped)
	}

	w.cache.Clear()
	w.cursor = cursor
	w.session = capture.New()
	w.frame = geometry.Frame{}
	w.imageSize = geometry.Frame{}
	w.loadErr = nil

	if cursor.Done() {
		w.session, _ = w.session.Advance(false)
		w.log.Info("dataset already complete", "dir", dir, "images", cursor.Len())
		return w.status(), nil
	}

	w.loadCurrent()
	w.log.Info("dataset opened", "dir", dir, "images", cursor.Len(), "start", cursor.Index())
	return w.status(), nil
}

// loadCurrent prepares the session for the cursor's current image. The frame
// defaults to the image size and an existing label file is loaded. An image that
// cannot be decoded leaves the frame zero and sets loadErr.
func (w *Workspace) loadCurrent() {
	path := w.cursor.Current()
	w.session = capture.New()
	w.frame = geometry.Frame{}
	w.imageSize = geometry.Frame{}
	w.loadErr = nil

	img, err := w.cache.Load(path)
	if err != nil {
		w.loadErr = err
		w.log.Warn("image cannot be decoded", "image", path, "error", err)
		return
	}
	w.imageSize = imaging.FrameOf(img)
	w.frame = w.imageSize

	labelPath := w.writer.Path(path)
	records, err := labels.ReadFile(labelPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		w.log.Warn("ignoring unreadable label file", "path", labelPath, "error", err)
	default:
		anns := make([]capture.Annotation, len(records))
		for i, r := range records {
			anns[i] = r.Annotation(w.imageSize)
		}
		w.session = w.session.Load(anns)
		w.log.Debug("loaded existing labels", "path", labelPath, "count", len(anns))
	}
}

// ready returns ErrNoDataset, ErrSessionComplete or ErrImageUnreadable when no
// image is being annotated.
func (w *Workspace) ready() error {
	if w.cursor == nil {
		return ErrNoDataset
	}
	if w.session.State() == capture.Complete {
		return ErrSessionComplete
	}
	if w.loadErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrImageUnreadable, w.cursor.Current(), w.loadErr)
	}
	return nil
}

// SetFrame sets the coordinate space of subsequent clicks.
func (w *Workspace) SetFrame(width, height int) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	frame := geometry.Frame{Width: width, Height: height}
	if !frame.Valid() {
		return Status{}, fmt.Errorf("%w: got %s", ErrInvalidFrame, frame)
	}
	w.frame = frame
	return w.status(), nil
}

// Click feeds a click at (x, y). A non-nil frame replaces the current frame first.
// Clicks that do not apply to the current state leave it unchanged.
func (w *Workspace) Click(x, y float64, frame *geometry.Frame) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ready(); err != nil {
		return Status{}, err
	}
	if frame != nil {
		if !frame.Valid() {
			return Status{}, fmt.Errorf("%w: got %s", ErrInvalidFrame, *frame)
		}
		w.frame = *frame
	}
	if !w.frame.Valid() {
		return Status{}, ErrInvalidFrame
	}

	before := w.session.State()
	w.session = w.session.Click(geometry.Point{X: x, Y: y}, w.frame, capture.ModeFor(w.angleMode))
	w.log.Debug("click", "x", x, "y", y, "frame", w.frame.String(), "from", before.String(), "to", w.session.State().String())
	return w.status(), nil
}

// EditAngle replaces the pending angle text.
func (w *Workspace) EditAngle(text string) (Status, error) {
	return w.review(func(s capture.Session) capture.Session { return s.EditAngle(text) })
}

// SwitchAngle flips the pending angle to 180 minus itself.
func (w *Workspace) SwitchAngle() (Status, error) {
	return w.review(capture.Session.SwitchAngle)
}

// SelectClass chooses the pending box's class by name.
func (w *Workspace) SelectClass(name string) (Status, error) {
	return w.review(func(s capture.Session) capture.Session { return s.SelectClass(name) })
}

// SelectClassIndex chooses the pending box's class by list position.
func (w *Workspace) SelectClassIndex(i int) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.reviewing(); err != nil {
		return Status{}, err
	}
	name, ok := w.classes.Name(i)
	if !ok {
		return Status{}, fmt.Errorf("class %d: %w", i, ErrIndexRange)
	}
	w.session = w.session.SelectClass(name)
	return w.status(), nil
}

// Commit appends the pending box to the annotation list.
func (w *Workspace) Commit() (Status, error) {
	return w.review(func(s capture.Session) capture.Session {
		next := s.Commit(w.classes)
		anns := next.Annotations()
		last := anns[len(anns)-1]
		w.log.Info("annotation committed", "class", last.ClassIndex, "angle", last.Angle, "count", len(anns))
		return next
	})
}

// review applies fn to a session that is reviewing a pending box.
func (w *Workspace) review(fn func(capture.Session) capture.Session) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.reviewing(); err != nil {
		return Status{}, err
	}
	w.session = fn(w.session)
	return w.status(), nil
}

func (w *Workspace) reviewing() error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.session.State() != capture.Reviewing {
		return ErrNoPending
	}
	return nil
}

// Cancel discards the pending box and buffered clicks.
func (w *Workspace) Cancel() (Status, error) {
	return w.update(capture.Session.Cancel)
}

// Clear removes every annotation of the current image.
func (w *Workspace) Clear() (Status, error) {
	return w.update(capture.Session.Clear)
}

// RemoveAnnotation deletes the committed annotation at index i.
func (w *Workspace) RemoveAnnotation(i int) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ready(); err != nil {
		return Status{}, err
	}
	if n := len(w.session.Annotations()); i < 0 || i >= n {
		return Status{}, fmt.Errorf("annotation %d of %d: %w", i, n, ErrIndexRange)
	}
	w.session = w.session.Remove(i)
	return w.status(), nil
}

func (w *Workspace) update(fn func(capture.Session) capture.Session) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ready(); err != nil {
		return Status{}, err
	}
	w.session = fn(w.session)
	return w.status(), nil
}

// SetAngleMode switches between rotated and axis-aligned capture. It affects the
// next reconstruction and the label format.
func (w *Workspace) SetAngleMode(on bool) Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.angleMode = on
	return w.status()
}

// RenderLabels returns the label file content for the current annotations.
func (w *Workspace) RenderLabels() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cursor == nil {
		return "", ErrNoDataset
	}
	return labels.Format(w.session.Annotations(), w.angleMode), nil
}

// NextResult reports what Next saved.
type NextResult struct {
	LabelPath string `json:"label_path,omitempty"`
	Saved     int    `json:"saved"`
	// Skipped is set when the image could not be decoded and no label was written.
	Skipped bool   `json:"skipped,omitempty"`
	Status  Status `json:"status"`
}

// Next saves the current image's labels and moves to the following image. A
// pending box is discarded. An undecodable image is skipped without a label file.
// After the last image the session is Complete.
func (w *Workspace) Next(ctx context.Context) (*NextResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor == nil {
		return nil, ErrNoDataset
	}
	if w.session.State() == capture.Complete {
		return nil, ErrSessionComplete
	}

	image := w.cursor.Current()
	hasNext := w.cursor.HasNext()
	res := &NextResult{}

	if w.loadErr != nil {
		w.log.Warn("skipping unreadable image", "image", image, "error", w.loadErr)
		res.Skipped = true
		w.session, _ = capture.New().Advance(hasNext)
	} else {
		next, anns := w.session.Advance(hasNext)
		labelPath, err := w.writer.Write(image, labels.Format(anns, w.angleMode))
		if err != nil {
			return nil, fmt.Errorf("failed to save labels for %s: %w", image, err)
		}
		w.log.Info("labels saved", "image", image, "path", labelPath, "count", len(anns))
		w.record(ctx, image, labelPath, len(anns))

		res.LabelPath = labelPath
		res.Saved = len(anns)
		w.session = next
	}

	w.cache.Evict(image)
	w.cursor.Advance()
	if hasNext {
		w.loadCurrent()
	} else {
		w.frame = geometry.Frame{}
		w.imageSize = geometry.Frame{}
		w.loadErr = nil
		w.log.Info("dataset complete", "images", w.cursor.Len())
	}

	res.Status = w.status()
	return res, nil
}

// record stores a saved label in the ledger. Failures are logged; the label file
// is already on disk.
func (w *Workspace) record(ctx context.Context, image, labelPath string, count int) {
	if w.ledger == nil {
		return
	}
	entry := ledger.Entry{
		ImagePath:       image,
		LabelPath:       labelPath,
		AnnotationCount: count,
		SessionID:       w.sessionID,
	}
	if err := w.ledger.Record(ctx, entry); err != nil {
		w.log.Error("ledger record failed", "image", image, "error", err)
	}
}
