package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/obb-annotate-mcp/internal/capture"
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// Record is one parsed label line.
type Record struct {
	ClassIndex int     `json:"class_index"`
	CX         float64 `json:"cx"`
	CY         float64 `json:"cy"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Angle      float64 `json:"angle"`
	HasAngle   bool    `json:"has_angle"`
}

// Annotation rebuilds the committed box for r in frame.
func (r Record) Annotation(frame geometry.Frame) capture.Annotation {
	return capture.FromBox(r.ClassIndex, r.CX, r.CY, r.W, r.H, r.Angle, frame)
}

// ParseError reports a malformed label line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("label line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errColumns = errors.New("expected 5 or 6 columns")

// Parse reads label records from r. Blank lines are skipped.
func Parse(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rec, err := parseFields(fields)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return out, nil
}

func parseFields(fields []string) (Record, error) {
	if len(fields) != 5 && len(fields) != 6 {
		return Record{}, fmt.Errorf("%w, got %d", errColumns, len(fields))
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("class index %q: %w", fields[0], err)
	}
	if idx < 0 {
		return Record{}, fmt.Errorf("class index %d is negative", idx)
	}

	var vals [5]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Record{}, fmt.Errorf("column %d %q: %w", i+2, f, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, fmt.Errorf("column %d %q is not finite", i+2, f)
		}
		vals[i] = v
	}

	return Record{
		ClassIndex: idx,
		CX:         vals[0],
		CY:         vals[1],
		W:          vals[2],
		H:          vals[3],
		Angle:      vals[4],
		HasAngle:   len(fields) == 6,
	}, nil
}

// ReadFile parses the label file at path. A missing file yields an error matching
// os.ErrNotExist.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
