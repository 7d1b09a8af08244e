// Package dataset discovers the images to annotate and walks them in order.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmpty is returned when a directory holds no supported images.
var ErrEmpty = errors.New("no images found")

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Cursor walks an ordered image list. The zero value is an empty, finished cursor.
type Cursor struct {
	root  string
	paths []string
	pos   int
}

// Open walks dir recursively and returns a cursor over its images sorted by path.
// Hidden directories are skipped.
func Open(dir string) (*Cursor, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, dir)
	}
	sort.Strings(paths)
	return &Cursor{root: dir, paths: paths}, nil
}

// Root returns the directory the cursor was opened on.
func (c *Cursor) Root() string {
	return c.root
}

// Len returns the number of images.
func (c *Cursor) Len() int {
	return len(c.paths)
}

// Index returns the position of the current image.
func (c *Cursor) Index() int {
	return c.pos
}

// Done reports whether every image has been visited.
func (c *Cursor) Done() bool {
	return c.pos >= len(c.paths)
}

// Current returns the current image path, or "" when Done.
func (c *Cursor) Current() string {
	if c.Done() {
		return ""
	}
	return c.paths[c.pos]
}

// HasNext reports whether an image follows the current one.
func (c *Cursor) HasNext() bool {
	return c.pos+1 < len(c.paths)
}

// Advance moves to the next image and reports whether one exists.
func (c *Cursor) Advance() bool {
	if c.Done() {
		return false
	}
	c.pos++
	return !c.Done()
}

// SkipWhile advances past every image for which skip returns true and returns the
// number skipped.
func (c *Cursor) SkipWhile(skip func(path string) bool) int {
	n := 0
	for !c.Done() && skip(c.paths[c.pos]) {
		c.pos++
		n++
	}
	return n
}

// Paths returns a copy of the image list.
func (c *Cursor) Paths() []string {
	return append([]string(nil), c.paths...)
}
