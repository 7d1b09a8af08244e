package labels

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists rendered label content for an image.
type Writer interface {
	// Path returns where the label for imagePath is stored.
	Path(imagePath string) string
	// Write stores content for imagePath and returns the label path.
	Write(imagePath, content string) (string, error)
}

// DirWriter writes label files into Dir, or next to the image when Dir is empty.
//
// Files are written to a temporary sibling first and renamed into place, so a reader
// never observes a partially written label.
type DirWriter struct {
	Dir string
	Ext string
}

// NewDirWriter returns a DirWriter for dir and ext.
func NewDirWriter(dir, ext string) *DirWriter {
	return &DirWriter{Dir: dir, Ext: ext}
}

// Path implements Writer.
func (w *DirWriter) Path(imagePath string) string {
	dir := w.Dir
	if dir == "" {
		dir = filepath.Dir(imagePath)
	}
	return filepath.Join(dir, FileName(imagePath, w.Ext))
}

// Write implements Writer.
func (w *DirWriter) Write(imagePath, content string) (string, error) {
	path := w.Path(imagePath)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create label directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".label-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp label file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write label file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close label file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set label file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move label file into place: %w", err)
	}
	return path, nil
}
