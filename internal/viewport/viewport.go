// Package viewport computes the visible row/column window from scroll
// position and zoom level. It drives what the renderer materializes: only
// cells inside the visible ranges plus a fixed overscan margin.
package viewport

import (
	"sync"

	"github.com/mjschmitt/sheetview/internal/model"
)

const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// RangeListener is notified whenever the visible window changes. The viewer
// wires this to CellStore.EnsureRange so every intersecting chunk loads.
type RangeListener func(rows, cols model.Range)

// Engine tracks one sheet's geometry. Zoom changes only rescale the
// pixel-to-cell mapping; they never touch cell data.
type Engine struct {
	mu           sync.Mutex
	rows         *Axis
	cols         *Axis
	zoom         float64
	overscanRows int
	overscanCols int
	lastRows     model.Range
	lastCols     model.Range
	listener     RangeListener
}

// Config holds the geometry defaults for a new engine.
type Config struct {
	RowHeight    float64
	ColWidth     float64
	OverscanRows int
	OverscanCols int
}

// DefaultConfig mirrors typical spreadsheet geometry.
func DefaultConfig() Config {
	return Config{RowHeight: 20, ColWidth: 80, OverscanRows: 8, OverscanCols: 4}
}

// New creates an engine for a sheet with the given cell counts.
func New(rowCount, colCount int, cfg Config) *Engine {
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = 20
	}
	if cfg.ColWidth <= 0 {
		cfg.ColWidth = 80
	}
	return &Engine{
		rows:         NewAxis(rowCount, cfg.RowHeight),
		cols:         NewAxis(colCount, cfg.ColWidth),
		zoom:         1.0,
		overscanRows: cfg.OverscanRows,
		overscanCols: cfg.OverscanCols,
	}
}

// OnRangeChanged registers the listener for visible-window changes.
func (e *Engine) OnRangeChanged(fn RangeListener) {
	e.mu.Lock()
	e.listener = fn
	e.mu.Unlock()
}

// Grow extends the sheet geometry as parsing learns larger bounds.
func (e *Engine) Grow(rowCount, colCount int) {
	e.mu.Lock()
	e.rows.Grow(rowCount)
	e.cols.Grow(colCount)
	e.mu.Unlock()
}

// SetRowHeight overrides one row's base height in unzoomed pixels.
func (e *Engine) SetRowHeight(row int, px float64) {
	e.mu.Lock()
	e.rows.SetSize(row, px)
	e.mu.Unlock()
}

// SetColWidth overrides one column's base width in unzoomed pixels.
func (e *Engine) SetColWidth(col int, px float64) {
	e.mu.Lock()
	e.cols.SetSize(col, px)
	e.mu.Unlock()
}

// Zoom returns the current zoom factor.
func (e *Engine) Zoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

// SetZoom clamps and applies the zoom factor.
func (e *Engine) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	e.mu.Lock()
	e.zoom = z
	e.mu.Unlock()
}

// RowHeight returns the zoomed pixel height of a row; ColWidth likewise.
func (e *Engine) RowHeight(row int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.Size(row) * e.zoom
}

func (e *Engine) ColWidth(col int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols.Size(col) * e.zoom
}

// RowOffset returns the zoomed pixel position of a row's top edge.
func (e *Engine) RowOffset(row int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.Offset(row) * e.zoom
}

// ColOffset returns the zoomed pixel position of a column's left edge.
func (e *Engine) ColOffset(col int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols.Offset(col) * e.zoom
}

// RowAt and ColAt hit-test a zoomed pixel offset to a cell index.
func (e *Engine) RowAt(px float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.IndexAt(px / e.zoom)
}

func (e *Engine) ColAt(px float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols.IndexAt(px / e.zoom)
}

// VisibleRange converts a pixel scroll offset and viewport size into the
// cell window to materialize, overscan included and clamped to the sheet.
// The result size is independent of the total sheet size.
func (e *Engine) VisibleRange(scrollTopPx, scrollLeftPx, viewHeightPx, viewWidthPx float64) (rows, cols model.Range) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows = e.axisRange(e.rows, scrollTopPx, viewHeightPx, e.overscanRows)
	cols = e.axisRange(e.cols, scrollLeftPx, viewWidthPx, e.overscanCols)
	return rows, cols
}

func (e *Engine) axisRange(a *Axis, scrollPx, viewPx float64, overscan int) model.Range {
	if a.Count() == 0 {
		return model.Range{}
	}
	start := a.IndexAt(scrollPx / e.zoom)
	end := a.IndexAt((scrollPx+viewPx)/e.zoom) + 1
	r := model.Range{Start: start - overscan, End: end + overscan}
	return r.Clamp(a.Count())
}

// Update recomputes the visible window and fires the RangeChanged listener
// when it moved. Callers coalesce scroll events to one Update per frame.
func (e *Engine) Update(scrollTopPx, scrollLeftPx, viewHeightPx, viewWidthPx float64) (rows, cols model.Range, changed bool) {
	rows, cols = e.VisibleRange(scrollTopPx, scrollLeftPx, viewHeightPx, viewWidthPx)
	e.mu.Lock()
	changed = rows != e.lastRows || cols != e.lastCols
	e.lastRows, e.lastCols = rows, cols
	fn := e.listener
	e.mu.Unlock()
	if changed && fn != nil {
		fn(rows, cols)
	}
	return rows, cols, changed
}
