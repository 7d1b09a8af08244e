package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// ErrEmptyRegion is returned for a zero-area input image.
var ErrEmptyRegion = errors.New("ocr: empty region")

// Box is a word's pixel bounds inside the recognized region.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Word is one recognized word.
type Word struct {
	Text string `json:"text"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Result is the text read from one region.
type Result struct {
	// Text is the recognized text with surrounding whitespace trimmed.
	Text string `json:"text"`
	// Words is never nil. It is empty when Tesseract cannot report word boxes.
	Words []Word `json:"words"`
	// Confidence is the mean word confidence, 0 without words.
	Confidence float64 `json:"confidence"`
}

// Read runs OCR on an in-memory image, typically the upright crop of an
// oriented box.
//
// The image is converted to grayscale before recognition, which removes color
// fringes left by rotation resampling. It is PNG-encoded in memory and handed to
// Tesseract with SetImageFromBytes, so no temporary file is created. An empty
// language selects DefaultLanguage; its language data must be installed.
func Read(img image.Image, language string) (*Result, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyRegion
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, effect.Grayscale(img)); err != nil {
		return nil, fmt.Errorf("failed to encode OCR image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(languageOrDefault(language)); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	// Word boxes are optional; some Tesseract builds fail here.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		boxes = nil
	}
	return newResult(text, boxes), nil
}

func newResult(text string, boxes []gosseract.BoundingBox) *Result {
	res := &Result{
		Text:  strings.TrimSpace(text),
		Words: make([]Word, 0, len(boxes)),
	}

	var sum float64
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		w := Word{
			Text:       word,
			Confidence: clampUnit(float64(box.Confidence) / 100.0),
			Box: Box{
				X: box.Box.Min.X,
				Y: box.Box.Min.Y,
				W: box.Box.Dx(),
				H: box.Box.Dy(),
			},
		}
		sum += w.Confidence
		res.Words = append(res.Words, w)
	}
	if n := len(res.Words); n > 0 {
		res.Confidence = sum / float64(n)
	}
	return res
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func languageOrDefault(language string) string {
	if language == "" {
		return DefaultLanguage
	}
	return language
}
