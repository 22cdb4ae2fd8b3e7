// Package viewer orchestrates the load lifecycle and input surface of the
// spreadsheet viewer: it owns the workbook, its cell store, the per-sheet
// viewport engines, the search indexer, and the modal render state.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/parser"
	"github.com/mjschmitt/sheetview/internal/search"
	"github.com/mjschmitt/sheetview/internal/sheets"
	"github.com/mjschmitt/sheetview/internal/store"
	"github.com/mjschmitt/sheetview/internal/task"
	"github.com/mjschmitt/sheetview/internal/viewport"
)

// Phase is the load lifecycle: Idle -> Loading -> Ready, with Error
// reachable from any of them and Retry looping Error back through Loading.
// A validation failure moves Idle directly to Error without Loading.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Mode is the modal sub-state of Ready. Fullscreen and print are mutually
// exclusive at render time; entering print forces fullscreen layout off.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFullscreen
	ModePrint
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFullscreen:
		return "fullscreen"
	case ModePrint:
		return "print"
	}
	return "unknown"
}

// Config bundles the tunables a Controller needs.
type Config struct {
	Parser       parser.Options
	Viewport     viewport.Config
	ChunkTimeout time.Duration
}

// Controller is the viewer's state machine and component owner. All methods
// are safe for concurrent use; the render loop pulls a Snapshot per frame
// rather than observing mutations directly.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	phase     Phase
	mode      Mode
	err       error
	retryable bool

	// Retained source for Retry; structural corruption re-parses from
	// scratch against these same bytes.
	srcName string
	srcData []byte

	wb       *model.Workbook
	doc      *parser.Document
	store    *store.Store
	mgr      *sheets.Manager
	indexer  *search.Indexer
	engines  map[int]*viewport.Engine
	parse    *task.Handle
	wbCtx    context.Context
	wbCancel context.CancelFunc

	scroll    *task.Coalescer
	announcer Announcer
	cursor    *search.Cursor
	warnings  []string
	complete  bool

	selRow, selCol int
	viewW, viewH   float64
	lastRows       model.Range
	lastCols       model.Range
}

// New creates an idle controller.
func New(cfg Config) *Controller {
	c := &Controller{cfg: cfg, engines: map[int]*viewport.Engine{}}
	c.scroll = task.NewCoalescer(c.recomputeViewport)
	return c
}

// Phase returns the lifecycle state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Mode returns the modal sub-state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Err returns the current error and whether retry is applicable.
func (c *Controller) Err() (error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err, c.retryable
}

// Warnings returns accumulated non-fatal warnings (macro detection).
func (c *Controller) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Load replaces any current workbook with the given file. Validation
// failures (type, size, structure) surface immediately and the controller
// lands in Error without ever entering Loading.
func (c *Controller) Load(filename string, data []byte) error {
	c.teardown()

	doc, err := parser.Open(data, filename, c.cfg.Parser)
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseError
		c.err = err
		c.retryable = errors.Is(err, parser.ErrStructuralCorruption)
		c.srcName, c.srcData = filename, data
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.srcName, c.srcData = filename, data
	c.doc = doc
	c.wb = model.NewWorkbook(filename)
	c.wb.Original = data
	c.wb.HasMacros = doc.HasMacros()
	c.store = store.New(doc, c.cfg.Parser.ChunkRows, c.cfg.Parser.ChunkCols, store.WithTimeout(c.cfg.ChunkTimeout))
	c.mgr = sheets.NewManager()
	c.indexer = search.NewIndexer()
	c.engines = map[int]*viewport.Engine{}
	c.cursor = nil
	c.warnings = nil
	c.complete = false
	c.err = nil
	c.retryable = false
	c.selRow, c.selCol = 0, 0
	c.phase = PhaseLoading
	c.wbCtx, c.wbCancel = context.WithCancel(context.Background())
	wbCtx := c.wbCtx
	c.mu.Unlock()

	c.mu.Lock()
	c.parse = task.Start(wbCtx, func(ctx context.Context) error {
		return doc.Parse(ctx, c.onEvent)
	})
	c.mu.Unlock()
	return nil
}

// Retry re-runs the load from scratch against the retained bytes. Only
// meaningful from Error with a retryable cause; the old chunk cache is
// discarded, never reused.
func (c *Controller) Retry() error {
	c.mu.Lock()
	if c.phase != PhaseError || !c.retryable || c.srcData == nil {
		c.mu.Unlock()
		return fmt.Errorf("retry not available")
	}
	name, data := c.srcName, c.srcData
	c.mu.Unlock()
	return c.Load(name, data)
}

// Close tears the viewer down to Idle, releasing chunk memory and
// cancelling in-flight parsing and indexing.
func (c *Controller) Close() {
	c.teardown()
	c.mu.Lock()
	c.phase = PhaseIdle
	c.mode = ModeNormal
	c.err = nil
	c.retryable = false
	c.srcName, c.srcData = "", nil
	c.mu.Unlock()
}

func (c *Controller) teardown() {
	c.mu.Lock()
	parse := c.parse
	cancel := c.wbCancel
	st := c.store
	ix := c.indexer
	c.parse = nil
	c.wbCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if parse != nil {
		parse.Cancel()
		parse.Wait()
	}
	if ix != nil {
		ix.Cancel()
	}
	if st != nil {
		st.Close()
	}
}

// onEvent is the parse event pump, running on the workbook's worker.
func (c *Controller) onEvent(ev parser.Event) error {
	switch e := ev.(type) {
	case parser.SheetDiscovered:
		c.mu.Lock()
		c.mgr.Discover(e.Sheet)
		eng := viewport.New(e.Sheet.MaxRow, e.Sheet.MaxCol, c.cfg.Viewport)
		c.engines[e.Sheet.ID] = eng
		sheetID := e.Sheet.ID
		eng.OnRangeChanged(func(rows, cols model.Range) {
			c.ensureRange(sheetID, rows, cols)
		})
		first := c.phase == PhaseLoading && len(c.mgr.Sheets()) == 1
		c.mu.Unlock()
		if first {
			_ = c.mgr.SwitchTo(e.Sheet.ID)
			c.mu.Lock()
			c.phase = PhaseReady
			c.mu.Unlock()
			c.announcer.Announce("Loaded %s", e.Sheet.Name)
		}
	case parser.ChunkReady:
		c.mu.Lock()
		st := c.store
		eng := c.engines[e.SheetID]
		c.mu.Unlock()
		if st == nil {
			return nil
		}
		st.ApplyChunk(e.SheetID, e.Key, e.Cells)
		maxRow, maxCol := chunkBounds(e.Cells)
		c.mgr.UpdateDims(e.SheetID, maxRow, maxCol)
		if eng != nil {
			eng.Grow(maxRow, maxCol)
		}
		c.indexer.IndexChunk(e.SheetID, e.Key, e.Cells)
	case parser.MacrosDetected:
		c.mu.Lock()
		c.warnings = append(c.warnings, "workbook contains macros; macros are not executed")
		c.mu.Unlock()
		c.announcer.Announce("Macro-enabled workbook: macros are not executed")
	case parser.ParseFailed:
		c.mu.Lock()
		c.phase = PhaseError
		c.err = e.Err
		c.retryable = e.Retryable
		c.mu.Unlock()
	case parser.ParseComplete:
		c.mu.Lock()
		c.complete = true
		c.mu.Unlock()
		c.indexer.SetComplete()
	}
	return nil
}

func chunkBounds(cells []model.Cell) (maxRow, maxCol int) {
	for _, cell := range cells {
		if cell.Row+1 > maxRow {
			maxRow = cell.Row + 1
		}
		if cell.Col+1 > maxCol {
			maxCol = cell.Col + 1
		}
	}
	return maxRow, maxCol
}

// ensureRange loads the chunks behind a new visible window in the
// background; duplicate requests collapse inside the store.
func (c *Controller) ensureRange(sheetID int, rows, cols model.Range) {
	c.mu.Lock()
	st := c.store
	ctx := c.wbCtx
	c.mu.Unlock()
	if st == nil || ctx == nil {
		return
	}
	task.Start(ctx, func(ctx context.Context) error {
		return st.EnsureRange(ctx, sheetID, rows, cols)
	})
}

// ParseComplete reports whether background ingestion has finished.
func (c *Controller) ParseComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// Workbook returns the loaded workbook, or nil.
func (c *Controller) Workbook() *model.Workbook {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wb
}

// Store exposes the cell store for export collaborators.
func (c *Controller) Store() *store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Sheets exposes the sheet manager.
func (c *Controller) Sheets() *sheets.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mgr
}

// Indexer exposes the search index.
func (c *Controller) Indexer() *search.Indexer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexer
}

// ToggleFullscreen flips fullscreen. From print mode it exits print first;
// the two modes never render together.
func (c *Controller) ToggleFullscreen() {
	c.mu.Lock()
	switch c.mode {
	case ModeFullscreen:
		c.mode = ModeNormal
	default:
		c.mode = ModeFullscreen
	}
	mode := c.mode
	c.mu.Unlock()
	c.announcer.Announce("View mode: %s", mode)
}

// TogglePrint flips print mode, forcing fullscreen layout off on entry.
func (c *Controller) TogglePrint() {
	c.mu.Lock()
	if c.mode == ModePrint {
		c.mode = ModeNormal
	} else {
		c.mode = ModePrint
	}
	mode := c.mode
	c.mu.Unlock()
	c.announcer.Announce("View mode: %s", mode)
}

// Escape exits any modal sub-state back to normal.
func (c *Controller) Escape() {
	c.mu.Lock()
	changed := c.mode != ModeNormal
	c.mode = ModeNormal
	c.mu.Unlock()
	if changed {
		c.announcer.Announce("View mode: normal")
	}
}
