package workspace

import (
	"errors"
	"fmt"

	"github.com/ironsheep/obb-annotate-mcp/internal/classes"
)

// ErrNoClassesFile is returned by SaveClasses when no path is known.
var ErrNoClassesFile = errors.New("no class manifest path given")

// Classes returns the class names in index order.
func (w *Workspace) Classes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.classes.Names()
}

// LoadClasses replaces the class list with the manifest at path.
func (w *Workspace) LoadClasses(path string) ([]string, error) {
	l, err := classes.LoadYAML(path)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.classes.Replace(l.Names())
	w.classesFile = path
	w.log.Info("classes loaded", "path", path, "count", w.classes.Len())
	return w.classes.Names(), nil
}

// SaveClasses writes the class list to path, or to the last loaded manifest when
// path is empty, and returns the path written.
func (w *Workspace) SaveClasses(path string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if path == "" {
		path = w.classesFile
	}
	if path == "" {
		return "", ErrNoClassesFile
	}
	if err := classes.SaveYAML(path, w.classes); err != nil {
		return "", err
	}
	w.classesFile = path
	return path, nil
}

// AddClass appends a class and returns its index.
func (w *Workspace) AddClass(name string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.classes.Add(name)
}

// RemoveClass deletes the class at index i. Committed annotations keep their
// indices.
func (w *Workspace) RemoveClass(i int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.classes.Remove(i); err != nil {
		return nil, err
	}
	return w.classes.Names(), nil
}

// MoveClass moves the class at index i one step up (delta -1) or down (delta 1).
func (w *Workspace) MoveClass(i, delta int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.classes.Move(i, delta) {
		return nil, fmt.Errorf("cannot move class %d by %d: %w", i, delta, ErrIndexRange)
	}
	return w.classes.Names(), nil
}
