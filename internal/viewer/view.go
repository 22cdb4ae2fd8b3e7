package viewer

import (
	"fmt"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/viewport"
)

// CellView is one cell the renderer materializes: value plus the textual
// label that identifies its address and value for assistive technology.
type CellView struct {
	Row      int
	Col      int
	Value    string
	Label    string
	Selected bool
}

// Snapshot is the frame-coherent view the render layer pulls. The cell list
// is bounded by the visible ranges plus overscan, never by sheet size.
type Snapshot struct {
	Phase      Phase
	Mode       Mode
	Err        error
	Retryable  bool
	SheetName  string
	SheetIndex int
	SheetCount int
	Rows       model.Range
	Cols       model.Range
	Cells      []CellView
	SelRow     int
	SelCol     int
	Zoom       float64
	Live       string // latest live-region announcement
	Search     string // search cursor status, empty when no session
	Partial    bool   // results/indexing still incomplete
}

// SetViewportSize records the host viewport extent in pixels and schedules
// a recomputation.
func (c *Controller) SetViewportSize(widthPx, heightPx float64) {
	c.mu.Lock()
	c.viewW, c.viewH = widthPx, heightPx
	c.mu.Unlock()
	c.scroll.Trigger()
}

// Frame runs the per-frame work: at most one viewport recomputation no
// matter how many scroll events arrived since the last frame.
func (c *Controller) Frame() {
	c.scroll.Flush()
}

func (c *Controller) activeEngine() (*viewport.Engine, model.Sheet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeEngineLocked()
}

func (c *Controller) activeEngineLocked() (*viewport.Engine, model.Sheet, bool) {
	if c.mgr == nil {
		return nil, model.Sheet{}, false
	}
	sheet, ok := c.mgr.Active()
	if !ok {
		return nil, model.Sheet{}, false
	}
	eng, ok := c.engines[sheet.ID]
	if !ok {
		return nil, model.Sheet{}, false
	}
	if s, ok := c.mgr.Sheet(sheet.ID); ok {
		sheet = s
	}
	return eng, sheet, true
}

// recomputeViewport is the coalesced scroll/zoom recomputation.
func (c *Controller) recomputeViewport() {
	eng, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	c.mu.Lock()
	vs := c.mgr.Viewport(sheet.ID)
	scrollRow, scrollCol := vs.ScrollRow, vs.ScrollCol
	viewW, viewH := c.viewW, c.viewH
	c.mu.Unlock()

	top := eng.RowOffset(scrollRow)
	left := eng.ColOffset(scrollCol)
	rows, cols, _ := eng.Update(top, left, viewH, viewW)

	c.mu.Lock()
	vs.RowRange, vs.ColRange = rows, cols
	c.lastRows, c.lastCols = rows, cols
	c.mu.Unlock()
}

// ScrollTo positions the viewport at a cell address, clamped to the sheet.
func (c *Controller) ScrollTo(row, col int) {
	_, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	c.mu.Lock()
	vs := c.mgr.Viewport(sheet.ID)
	vs.ScrollRow = clamp(row, 0, maxIndex(sheet.MaxRow))
	vs.ScrollCol = clamp(col, 0, maxIndex(sheet.MaxCol))
	c.mu.Unlock()
	c.scroll.Trigger()
}

// ScrollBy moves the viewport by whole cells.
func (c *Controller) ScrollBy(dRow, dCol int) {
	_, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	c.mu.Lock()
	vs := c.mgr.Viewport(sheet.ID)
	row, col := vs.ScrollRow+dRow, vs.ScrollCol+dCol
	c.mu.Unlock()
	c.ScrollTo(row, col)
}

// Select moves the selection, keeps it scrolled into view, and announces
// the new address for the live region.
func (c *Controller) Select(row, col int) {
	_, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	row = clamp(row, 0, maxIndex(sheet.MaxRow))
	col = clamp(col, 0, maxIndex(sheet.MaxCol))
	c.mu.Lock()
	c.selRow, c.selCol = row, col
	vs := c.mgr.Viewport(sheet.ID)
	// Keep the selection inside the last visible window.
	if rows := c.lastRows; rows.Len() > 0 {
		span := rows.Len()
		if row < vs.ScrollRow {
			vs.ScrollRow = row
		} else if row >= vs.ScrollRow+span {
			vs.ScrollRow = row - span + 1
		}
	} else {
		vs.ScrollRow = row
	}
	if cols := c.lastCols; cols.Len() > 0 {
		span := cols.Len()
		if col < vs.ScrollCol {
			vs.ScrollCol = col
		} else if col >= vs.ScrollCol+span {
			vs.ScrollCol = col - span + 1
		}
	} else {
		vs.ScrollCol = col
	}
	st := c.store
	c.mu.Unlock()
	c.scroll.Trigger()

	value := ""
	if st != nil {
		if cell, ok := st.GetCell(sheet.ID, row, col); ok {
			value = cell.Display
		}
	}
	c.announcer.Announce("%s", CellLabel(row, col, value))
}

// Selection returns the selected address.
func (c *Controller) Selection() (row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selRow, c.selCol
}

// MoveSelection shifts the selection by the given delta.
func (c *Controller) MoveSelection(dRow, dCol int) {
	c.mu.Lock()
	row, col := c.selRow+dRow, c.selCol+dCol
	c.mu.Unlock()
	c.Select(row, col)
}

// SetZoom applies a zoom factor to the active sheet. Zoom only rescales
// hit-testing geometry; no cell value changes.
func (c *Controller) SetZoom(z float64) {
	eng, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	eng.SetZoom(z)
	c.mu.Lock()
	c.mgr.Viewport(sheet.ID).Zoom = eng.Zoom()
	c.mu.Unlock()
	c.scroll.Trigger()
	c.announcer.Announce("Zoom %d%%", int(eng.Zoom()*100))
}

// ZoomBy multiplies the current zoom by the factor.
func (c *Controller) ZoomBy(factor float64) {
	eng, _, ok := c.activeEngine()
	if !ok {
		return
	}
	c.SetZoom(eng.Zoom() * factor)
}

// SwitchSheet activates a sheet by id, saving the old sheet's viewport and
// restoring the new one's exact scroll and zoom.
func (c *Controller) SwitchSheet(id int) error {
	c.mu.Lock()
	mgr := c.mgr
	c.mu.Unlock()
	if mgr == nil {
		return fmt.Errorf("no workbook loaded")
	}
	if err := mgr.SwitchTo(id); err != nil {
		return err
	}
	c.restoreActiveViewport()
	return nil
}

// NextSheet and PrevSheet move to the adjacent sheet without wrapping;
// the boundary sheets ignore further advance in their direction.
func (c *Controller) NextSheet() {
	c.stepSheet(func() (model.Sheet, bool) { return c.mgr.Next() })
}

func (c *Controller) PrevSheet() {
	c.stepSheet(func() (model.Sheet, bool) { return c.mgr.Prev() })
}

func (c *Controller) stepSheet(step func() (model.Sheet, bool)) {
	c.mu.Lock()
	mgr := c.mgr
	c.mu.Unlock()
	if mgr == nil {
		return
	}
	sheet, moved := step()
	if !moved {
		return
	}
	c.restoreActiveViewport()
	c.announcer.Announce("Sheet %s", sheet.Name)
}

func (c *Controller) restoreActiveViewport() {
	eng, sheet, ok := c.activeEngine()
	if !ok {
		return
	}
	c.mu.Lock()
	vs := c.mgr.Viewport(sheet.ID)
	c.selRow, c.selCol = clamp(c.selRow, 0, maxIndex(sheet.MaxRow)), clamp(c.selCol, 0, maxIndex(sheet.MaxCol))
	zoom := vs.Zoom
	c.mu.Unlock()
	if zoom > 0 {
		eng.SetZoom(zoom)
	}
	c.scroll.Trigger()
	c.recomputeViewport()
}

// Snapshot assembles the render state for the current frame.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Phase:     c.phase,
		Mode:      c.mode,
		Err:       c.err,
		Retryable: c.retryable,
		SelRow:    c.selRow,
		SelCol:    c.selCol,
		Zoom:      1.0,
		Live:      c.announcer.Last(),
		Partial:   !c.complete,
	}
	mgr := c.mgr
	st := c.store
	cursor := c.cursor
	indexer := c.indexer
	rows, cols := c.lastRows, c.lastCols
	c.mu.Unlock()

	if mgr != nil {
		all := mgr.Sheets()
		snap.SheetCount = len(all)
		if sheet, ok := mgr.Active(); ok {
			snap.SheetName = sheet.Name
			for i, s := range all {
				if s.ID == sheet.ID {
					snap.SheetIndex = i
				}
			}
			snap.Rows, snap.Cols = rows, cols
			if eng, _, ok := c.activeEngine(); ok {
				snap.Zoom = eng.Zoom()
			}
			if st != nil {
				snap.Cells = materialize(st, sheet.ID, rows, cols, snap.SelRow, snap.SelCol)
			}
		}
	}
	if cursor != nil {
		partial := indexer != nil && !indexer.Complete()
		snap.Search = searchStatus(cursor, partial)
		snap.Partial = snap.Partial || partial
	}
	return snap
}

// materialize builds the bounded cell window the renderer displays. Every
// cell in the window appears exactly once, blanks included, so the display
// layer never holds more cells than the window size.
func materialize(st cellGetter, sheetID int, rows, cols model.Range, selRow, selCol int) []CellView {
	out := make([]CellView, 0, rows.Len()*cols.Len())
	for row := rows.Start; row < rows.End; row++ {
		for col := cols.Start; col < cols.End; col++ {
			value := ""
			if cell, ok := st.GetCell(sheetID, row, col); ok {
				value = cell.Display
			}
			out = append(out, CellView{
				Row:      row,
				Col:      col,
				Value:    value,
				Label:    CellLabel(row, col, value),
				Selected: row == selRow && col == selCol,
			})
		}
	}
	return out
}

type cellGetter interface {
	GetCell(sheetID, row, col int) (model.Cell, bool)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxIndex(count int) int {
	if count <= 0 {
		return 0
	}
	return count - 1
}
