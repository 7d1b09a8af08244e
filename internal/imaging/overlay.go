package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// ErrInvalidColor is returned for a pending color that is not "#RRGGBB" hex.
var ErrInvalidColor = errors.New("invalid color")

// Box is an annotation outline to draw, in pixel coordinates of the image.
type Box struct {
	Corners    [4]geometry.Point
	ClassIndex int
	// Pending boxes are drawn in OverlayOptions.PendingColor without a class label.
	Pending bool
}

// OverlayOptions controls Overlay rendering.
type OverlayOptions struct {
	// Format is "png" (default) or "webp".
	Format string
	// Quality selects lossy WebP at that quality when in (0,100].
	Quality float32
	// LineWidth is the outline thickness in pixels; values below 1 mean 2.
	LineWidth int
	// ShowIndex draws the class index next to the first corner of each box.
	ShowIndex bool
	// PendingColor is a hex color for the pending box; empty means "#FFFFFF".
	PendingColor string
	// Clicks are buffered click positions, drawn as small crosses.
	Clicks []geometry.Point
}

// OverlayResult contains the rendered preview
type OverlayResult struct {
	Encoded
	Boxes int `json:"boxes"`
}

// Overlay draws boxes and click markers onto a copy of img and encodes it.
// Coordinates are relative to the top-left corner of img.
func Overlay(img image.Image, boxes []Box, opts OverlayOptions) (*OverlayResult, error) {
	result := imaging.Clone(img)

	lineWidth := opts.LineWidth
	if lineWidth < 1 {
		lineWidth = 2
	}

	pending := color.RGBA{255, 255, 255, 255}
	if opts.PendingColor != "" {
		c, err := colorful.Hex(opts.PendingColor)
		if err != nil {
			return nil, fmt.Errorf("%w %q for pending box: %v", ErrInvalidColor, opts.PendingColor, err)
		}
		r, g, b := c.RGB255()
		pending = color.RGBA{r, g, b, 255}
	}

	for _, box := range boxes {
		stroke := pending
		if !box.Pending {
			stroke = ClassColor(box.ClassIndex)
		}
		for i := 0; i < 4; i++ {
			drawLine(result, box.Corners[i], box.Corners[(i+1)%4], lineWidth, stroke)
		}
		if opts.ShowIndex && !box.Pending {
			x := int(math.Round(box.Corners[0].X)) + 2
			y := int(math.Round(box.Corners[0].Y)) + 2
			drawLabel(result, x, y, strconv.Itoa(box.ClassIndex), color.RGBA{255, 255, 255, 255}, stroke)
		}
	}

	marker := color.RGBA{255, 0, 0, 255}
	for _, p := range opts.Clicks {
		drawCross(result, p, 4, marker)
	}

	enc, err := Encode(result, opts.Format, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{Encoded: *enc, Boxes: len(boxes)}, nil
}

// ClassColor returns a stable, saturated color for a class index.
//
// Hues step by the golden angle so neighbouring indices stay visually distinct.
func ClassColor(index int) color.RGBA {
	if index < 0 {
		index = -index
	}
	hue := math.Mod(float64(index)*137.50776405, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

// drawLine draws a thick segment by stamping squares along a DDA walk.
func drawLine(img *image.NRGBA, from, to geometry.Point, width int, c color.RGBA) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		stamp(img, int(math.Round(from.X)), int(math.Round(from.Y)), width, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stamp(img, int(math.Round(from.X+dx*t)), int(math.Round(from.Y+dy*t)), width, c)
	}
}

func drawCross(img *image.NRGBA, p geometry.Point, arm int, c color.RGBA) {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	for d := -arm; d <= arm; d++ {
		setClipped(img, x+d, y, c)
		setClipped(img, x, y+d, c)
	}
}

func stamp(img *image.NRGBA, x, y, width int, c color.RGBA) {
	lo := -(width - 1) / 2
	for dy := lo; dy < lo+width; dy++ {
		for dx := lo; dx < lo+width; dx++ {
			setClipped(img, x+dx, y+dy, c)
		}
	}
}

// setClipped writes an opaque color, ignoring points outside the image.
func setClipped(img *image.NRGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
}

// drawLabel draws a simple text label at the given position
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.RGBA) {
	// Simple 3x5 pixel font for digits
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
