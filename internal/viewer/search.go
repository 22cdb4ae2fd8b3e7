package viewer

import (
	"fmt"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/search"
)

// OpenSearch starts a search session over the current index state. Results
// are a subset of the true matches until indexing completes; the status
// string says so.
func (c *Controller) OpenSearch(query string) {
	c.mu.Lock()
	ix := c.indexer
	if ix == nil {
		c.mu.Unlock()
		return
	}
	c.cursor = ix.NewCursor(query)
	cursor := c.cursor
	partial := !ix.Complete()
	c.mu.Unlock()
	c.announcer.Announce("%s", searchStatus(cursor, partial))
}

// CloseSearch ends the session.
func (c *Controller) CloseSearch() {
	c.mu.Lock()
	c.cursor = nil
	c.mu.Unlock()
}

// NextResult moves the selection to the next match in (sheet, row, col)
// order, crossing sheets when needed.
func (c *Controller) NextResult() {
	c.stepResult(func(cur *search.Cursor) (search.Ref, bool) { return cur.Next() })
}

// PrevResult moves to the previous match.
func (c *Controller) PrevResult() {
	c.stepResult(func(cur *search.Cursor) (search.Ref, bool) { return cur.Prev() })
}

func (c *Controller) stepResult(step func(*search.Cursor) (search.Ref, bool)) {
	c.mu.Lock()
	cursor := c.cursor
	ix := c.indexer
	c.mu.Unlock()
	if cursor == nil {
		return
	}
	ref, ok := step(cursor)
	if !ok {
		c.announcer.Announce("No results for %q", cursor.Query())
		return
	}
	if sheet, active := c.mgr.Active(); !active || sheet.ID != ref.Sheet {
		_ = c.SwitchSheet(ref.Sheet)
	}
	c.Select(ref.Row, ref.Col)
	partial := ix != nil && !ix.Complete()
	c.announcer.Announce("%s at %s", searchStatus(cursor, partial), model.CellRef(ref.Row, ref.Col))
}

// searchStatus renders the "Result N of M" cursor line; M can only grow as
// chunks finish indexing, and partial results are flagged while loading.
func searchStatus(cur *search.Cursor, partial bool) string {
	total := cur.Total()
	s := fmt.Sprintf("Result %d of %d", cur.Index(), total)
	if partial {
		s += " (partial)"
	}
	return s
}
