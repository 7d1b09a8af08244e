package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
)

// ErrNoLedger is returned by Progress when no ledger is configured.
var ErrNoLedger = errors.New("no progress ledger is configured")

// Progress summarizes the ledger. With a dataset open, only its images count.
type Progress struct {
	Dataset   string         `json:"dataset,omitempty"`
	Total     int            `json:"total"`
	Labeled   int            `json:"labeled"`
	Remaining int            `json:"remaining"`
	Entries   []ledger.Entry `json:"entries"`
}

// Progress lists the ledger entries for the open dataset, or every entry when no
// dataset is open.
func (w *Workspace) Progress(ctx context.Context) (*Progress, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ledger == nil {
		return nil, ErrNoLedger
	}
	entries, err := w.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	p := &Progress{Entries: make([]ledger.Entry, 0, len(entries))}
	if w.cursor == nil {
		p.Entries = append(p.Entries, entries...)
		p.Labeled = len(entries)
		return p, nil
	}

	inDataset := make(map[string]bool, w.cursor.Len())
	for _, path := range w.cursor.Paths() {
		inDataset[path] = true
	}
	for _, e := range entries {
		if inDataset[e.ImagePath] {
			p.Entries = append(p.Entries, e)
		}
	}
	p.Dataset = w.cursor.Root()
	p.Total = w.cursor.Len()
	p.Labeled = len(p.Entries)
	p.Remaining = p.Total - p.Labeled
	return p, nil
}
