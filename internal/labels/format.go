// Package labels renders committed annotations into per-image label files and
// reads them back.
//
// A label file is plain text with one line per box:
//
//	classIndex cx cy w h [angle]
//
// cx, cy, w and h are unit-interval values printed with 6 decimals. angle is printed
// with 2 decimals and only present in angle mode. Lines are joined with "\n"; there is
// no header and no trailing newline.
package labels

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/obb-annotate-mcp/internal/capture"
)

// DefaultExt is the label file extension used when none is configured.
const DefaultExt = ".txt"

// Format renders anns as label file content.
func Format(anns []capture.Annotation, angleMode bool) string {
	lines := make([]string, 0, len(anns))
	for _, a := range anns {
		lines = append(lines, FormatLine(a, angleMode))
	}
	return strings.Join(lines, "\n")
}

// FormatLine renders one annotation without a line terminator.
func FormatLine(a capture.Annotation, angleMode bool) string {
	idx := a.ClassIndex
	if idx < 0 {
		idx = 0
	}
	cols := []string{
		strconv.Itoa(idx),
		fixed(a.CX, 6),
		fixed(a.CY, 6),
		fixed(a.W, 6),
		fixed(a.H, 6),
	}
	if angleMode {
		angle := fixed(a.Angle, 2)
		if angle == "180.00" {
			angle = "0.00"
		}
		cols = append(cols, angle)
	}
	return strings.Join(cols, " ")
}

// fixed formats v with prec decimals and drops the sign of a value that rounds to zero.
func fixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}

// FileName returns the label file name for imagePath: the base name with its last
// extension replaced by ext. An empty ext selects DefaultExt.
func FileName(imagePath, ext string) string {
	switch {
	case ext == "":
		ext = DefaultExt
	case !strings.HasPrefix(ext, "."):
		ext = "." + ext
	}
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
