// Package export serializes the in-memory model back out. Export is a
// full-materialization operation: every chunk of the target sheet is forced
// loaded before serialization, so it is expected to be slower than browsing.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/store"
)

// ErrExportFailure marks an export that could not materialize its data. The
// original view state is unaffected; already-loaded chunks stay loaded.
var ErrExportFailure = errors.New("export failed")

// Progress reports chunk materialization during export.
type Progress func(done, total int)

// Engine reads from one workbook's cell store.
type Engine struct {
	store    *store.Store
	workbook *model.Workbook
	progress Progress
}

// NewEngine creates an export engine over the given store and workbook.
func NewEngine(st *store.Store, wb *model.Workbook) *Engine {
	return &Engine{store: st, workbook: wb}
}

// OnProgress registers a materialization progress callback.
func (e *Engine) OnProgress(p Progress) { e.progress = p }

func (e *Engine) sheet(sheetID int) (model.Sheet, error) {
	s := e.workbook.SheetByID(sheetID)
	if s == nil {
		return model.Sheet{}, fmt.Errorf("%w: unknown sheet id %d", ErrExportFailure, sheetID)
	}
	return *s, nil
}

// materialize force-loads every chunk of the sheet.
func (e *Engine) materialize(ctx context.Context, sheet model.Sheet) error {
	if err := e.store.EnsureSheet(ctx, sheet, e.progress); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// display returns the display value at an address, blank when absent.
func (e *Engine) display(sheetID, row, col int) string {
	c, ok := e.store.GetCell(sheetID, row, col)
	if !ok {
		return ""
	}
	return c.Display
}
