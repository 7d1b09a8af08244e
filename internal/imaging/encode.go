package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
)

// Output formats accepted by Encode.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Encoded is an image serialized for transport.
type Encoded struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode serializes img as PNG or WebP and base64-encodes the result.
//
// format is case-insensitive; empty selects PNG. quality applies to WebP only: a
// value in (0,100] selects lossy encoding at that quality, anything else lossless.
func Encode(img image.Image, format string, quality float32) (*Encoded, error) {
	var buf bytes.Buffer
	mime := "image/png"

	switch strings.ToLower(format) {
	case "", FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	case FormatWebP:
		opts := &webp.Options{Lossless: true}
		if quality > 0 && quality <= 100 {
			opts = &webp.Options{Quality: quality}
		}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
		mime = "image/webp"
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	b := img.Bounds()
	return &Encoded{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}
