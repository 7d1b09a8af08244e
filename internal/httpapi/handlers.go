package httpapi

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/ironsheep/obb-annotate-mcp/internal/classes"
	"github.com/ironsheep/obb-annotate-mcp/internal/dataset"
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
	"github.com/ironsheep/obb-annotate-mcp/internal/imaging"
	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// ============================================================
// Annotation Handler
// ============================================================

// Handler serves workspace operations as JSON endpoints.
type Handler struct {
	ws     *workspace.Workspace
	log    *slog.Logger
	resume bool
}

// NewHandler returns a Handler for ws.
func NewHandler(ws *workspace.Workspace, log *slog.Logger, resume bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{ws: ws, log: log, resume: resume}
}

// Register mounts every endpoint on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/status", h.Status)
	r.Post("/dataset", h.OpenDataset)
	r.Get("/image", h.ImageInfo)
	r.Post("/next", h.Next)
	r.Get("/progress", h.Progress)

	r.Put("/frame", h.SetFrame)
	r.Put("/angle-mode", h.SetAngleMode)
	r.Post("/clicks", h.Click)

	r.Put("/pending/angle", h.EditAngle)
	r.Post("/pending/angle/switch", h.SwitchAngle)
	r.Put("/pending/class", h.SelectClass)
	r.Post("/pending/commit", h.Commit)
	r.Delete("/pending", h.Cancel)
	r.Get("/pending/crop", h.CropPending)
	r.Get("/pending/ocr", h.ReadPending)

	r.Delete("/annotations", h.Clear)
	r.Delete("/annotations/:index", h.RemoveAnnotation)
	r.Get("/labels", h.Labels)
	r.Get("/preview", h.Preview)

	r.Get("/classes", h.Classes)
	r.Post("/classes", h.AddClass)
	r.Delete("/classes/:index", h.RemoveClass)
	r.Post("/classes/:index/move", h.MoveClass)
	r.Post("/classes/load", h.LoadClasses)
	r.Post("/classes/save", h.SaveClasses)
}

// statusFor maps workspace errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrInvalidFrame),
		errors.Is(err, workspace.ErrIndexRange),
		errors.Is(err, workspace.ErrNoClassesFile),
		errors.Is(err, classes.ErrEmptyName),
		errors.Is(err, classes.ErrNoNames),
		errors.Is(err, imaging.ErrInvalidColor):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrEmpty), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrNoDataset),
		errors.Is(err, workspace.ErrSessionComplete),
		errors.Is(err, workspace.ErrNoPending),
		errors.Is(err, workspace.ErrNoLedger):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrImageUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// decodeBody unmarshals a JSON body into v. An empty body leaves v unchanged.
func decodeBody(c fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(c.Body(), v)
}

// respond writes v as JSON, or the error.
func (h *Handler) respond(c fiber.Ctx, v interface{}, err error) error {
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func indexParam(c fiber.Ctx) (int, bool) {
	i, err := strconv.Atoi(c.Params("index"))
	return i, err == nil
}

// ============================================================
// Dataset
// ============================================================

func (h *Handler) Status(c fiber.Ctx) error {
	return c.JSON(h.ws.Status())
}

type openDatasetRequest struct {
	Dir    string `json:"dir"`
	Resume *bool  `json:"resume"`
}

func (h *Handler) OpenDataset(c fiber.Ctx) error {
	var req openDatasetRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Dir == "" {
		return badRequest(c, "dir required")
	}
	resume := h.resume
	if req.Resume != nil {
		resume = *req.Resume
	}
	st, err := h.ws.OpenDataset(c.Context(), req.Dir, resume)
	return h.respond(c, st, err)
}

func (h *Handler) ImageInfo(c fiber.Ctx) error {
	info, err := h.ws.ImageInfo()
	return h.respond(c, info, err)
}

func (h *Handler) Next(c fiber.Ctx) error {
	res, err := h.ws.Next(c.Context())
	return h.respond(c, res, err)
}

func (h *Handler) Progress(c fiber.Ctx) error {
	p, err := h.ws.Progress(c.Context())
	return h.respond(c, p, err)
}

// ============================================================
// Capture
// ============================================================

type frameRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (h *Handler) SetFrame(c fiber.Ctx) error {
	var req frameRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	st, err := h.ws.SetFrame(req.Width, req.Height)
	return h.respond(c, st, err)
}

type angleModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) SetAngleMode(c fiber.Ctx) error {
	var req angleModeRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	return c.JSON(h.ws.SetAngleMode(req.Enabled))
}

type clickRequest struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	FrameWidth  int      `json:"frame_width"`
	FrameHeight int      `json:"frame_height"`
}

func (h *Handler) Click(c fiber.Ctx) error {
	var req clickRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.X == nil || req.Y == nil {
		return badRequest(c, "x and y required")
	}
	var frame *geometry.Frame
	if req.FrameWidth != 0 || req.FrameHeight != 0 {
		frame = &geometry.Frame{Width: req.FrameWidth, Height: req.FrameHeight}
	}
	st, err := h.ws.Click(*req.X, *req.Y, frame)
	return h.respond(c, st, err)
}

type angleRequest struct {
	Angle string `json:"angle"`
}

func (h *Handler) EditAngle(c fiber.Ctx) error {
	var req angleRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	st, err := h.ws.EditAngle(req.Angle)
	return h.respond(c, st, err)
}

func (h *Handler) SwitchAngle(c fiber.Ctx) error {
	st, err := h.ws.SwitchAngle()
	return h.respond(c, st, err)
}

type classRequest struct {
	Name  string `json:"name"`
	Index *int   `json:"index"`
}

func (h *Handler) SelectClass(c fiber.Ctx) error {
	var req classRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	switch {
	case req.Name != "":
		st, err := h.ws.SelectClass(req.Name)
		return h.respond(c, st, err)
	case req.Index != nil:
		st, err := h.ws.SelectClassIndex(*req.Index)
		return h.respond(c, st, err)
	default:
		return badRequest(c, "name or index required")
	}
}

func (h *Handler) Commit(c fiber.Ctx) error {
	st, err := h.ws.Commit()
	return h.respond(c, st, err)
}

func (h *Handler) Cancel(c fiber.Ctx) error {
	st, err := h.ws.Cancel()
	return h.respond(c, st, err)
}

func (h *Handler) Clear(c fiber.Ctx) error {
	st, err := h.ws.Clear()
	return h.respond(c, st, err)
}

func (h *Handler) RemoveAnnotation(c fiber.Ctx) error {
	i, ok := indexParam(c)
	if !ok {
		return badRequest(c, "invalid index")
	}
	st, err := h.ws.RemoveAnnotation(i)
	return h.respond(c, st, err)
}

// ============================================================
// Rendering
// ============================================================

func (h *Handler) Labels(c fiber.Ctx) error {
	content, err := h.ws.RenderLabels()
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(content)
}

func (h *Handler) Preview(c fiber.Ctx) error {
	opts := workspace.PreviewOptions{
		Format:       c.Query("format"),
		ShowIndex:    c.Query("show_index") != "false",
		PendingColor: c.Query("pending_color"),
	}
	if q := c.Query("quality"); q != "" {
		v, err := strconv.ParseFloat(q, 32)
		if err != nil {
			return badRequest(c, "invalid quality")
		}
		opts.Quality = float32(v)
	}
	if lw := c.Query("line_width"); lw != "" {
		v, err := strconv.Atoi(lw)
		if err != nil {
			return badRequest(c, "invalid line_width")
		}
		opts.LineWidth = v
	}
	res, err := h.ws.Preview(opts)
	return h.respond(c, res, err)
}

func (h *Handler) CropPending(c fiber.Ctx) error {
	scale := 1.0
	if s := c.Query("scale"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return badRequest(c, "invalid scale")
		}
		scale = v
	}
	res, err := h.ws.CropPending(scale)
	return h.respond(c, res, err)
}

func (h *Handler) ReadPending(c fiber.Ctx) error {
	res, err := h.ws.ReadPending(c.Query("lang"))
	return h.respond(c, res, err)
}

// ============================================================
// Classes
// ============================================================

func (h *Handler) Classes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"classes": h.ws.Classes()})
}

type addClassRequest struct {
	Name string `json:"name"`
}

func (h *Handler) AddClass(c fiber.Ctx) error {
	var req addClassRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	idx, err := h.ws.AddClass(req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"index": idx, "classes": h.ws.Classes()})
}

func (h *Handler) RemoveClass(c fiber.Ctx) error {
	i, ok := indexParam(c)
	if !ok {
		return badRequest(c, "invalid index")
	}
	names, err := h.ws.RemoveClass(i)
	if err != nil {
		// List.Remove reports a plain range error.
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"classes": names})
}

type moveClassRequest struct {
	Direction string `json:"direction"`
}

func (h *Handler) MoveClass(c fiber.Ctx) error {
	i, ok := indexParam(c)
	if !ok {
		return badRequest(c, "invalid index")
	}
	var req moveClassRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	var delta int
	switch req.Direction {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		return badRequest(c, "direction must be up or down")
	}
	names, err := h.ws.MoveClass(i, delta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"classes": names})
}

type pathRequest struct {
	Path string `json:"path"`
}

func (h *Handler) LoadClasses(c fiber.Ctx) error {
	var req pathRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Path == "" {
		return badRequest(c, "path required")
	}
	names, err := h.ws.LoadClasses(req.Path)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"classes": names, "path": req.Path})
}

func (h *Handler) SaveClasses(c fiber.Ctx) error {
	var req pathRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "invalid json")
	}
	path, err := h.ws.SaveClasses(req.Path)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"classes": h.ws.Classes(), "path": path})
}
