// Package store holds the sparse, addressable cell grid behind the viewer.
// Cells live in fixed-size chunks that load lazily; concurrent requests for
// the same chunk share a single in-flight load.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mjschmitt/sheetview/internal/model"
)

// ErrChunkLoadTimeout marks a chunk load that exceeded its deadline. The
// chunk moves to Failed and may be retried; nothing else is torn down.
var ErrChunkLoadTimeout = errors.New("chunk load timed out")

// ErrClosed is returned once the store's workbook has been superseded.
var ErrClosed = errors.New("store is closed")

// ChunkLoader produces the cells of one tile. The parser's Document
// implements this; tests substitute counting fakes.
type ChunkLoader interface {
	ReadChunk(ctx context.Context, sheetID int, key model.ChunkKey) ([]model.Cell, error)
}

type chunk struct {
	status model.ChunkStatus
	cells  map[int64]model.Cell
	err    error
	// done is non-nil while a load is in flight; waiters block on it so that
	// at most one loader call runs per chunk key.
	done chan struct{}
}

type sheetChunks struct {
	chunks map[model.ChunkKey]*chunk
}

// Store is the CellStore for one workbook.
type Store struct {
	mu        sync.Mutex
	loader    ChunkLoader
	chunkRows int
	chunkCols int
	timeout   time.Duration
	sheets    map[int]*sheetChunks
	closed    bool
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each chunk load. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New creates an empty store backed by the given loader.
func New(loader ChunkLoader, chunkRows, chunkCols int, opts ...Option) *Store {
	if chunkRows <= 0 {
		chunkRows = model.DefaultChunkRows
	}
	if chunkCols <= 0 {
		chunkCols = model.DefaultChunkCols
	}
	s := &Store{
		loader:    loader,
		chunkRows: chunkRows,
		chunkCols: chunkCols,
		sheets:    map[int]*sheetChunks{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ChunkSize returns the tile dimensions.
func (s *Store) ChunkSize() (rows, cols int) { return s.chunkRows, s.chunkCols }

func cellKey(row, col int) int64 { return int64(row)<<20 | int64(col) }

func (s *Store) sheet(id int) *sheetChunks {
	sc, ok := s.sheets[id]
	if !ok {
		sc = &sheetChunks{chunks: map[model.ChunkKey]*chunk{}}
		s.sheets[id] = sc
	}
	return sc
}

// GetCell returns the cell at an address. ok is false when the covering chunk
// is not loaded; the call never blocks. A loaded chunk with no entry at the
// address yields a blank cell.
func (s *Store) GetCell(sheetID, row, col int) (model.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.sheets[sheetID]
	if !ok {
		return model.Cell{}, false
	}
	ch, ok := sc.chunks[model.ChunkKeyAt(row, col, s.chunkRows, s.chunkCols)]
	if !ok || ch.status != model.ChunkLoaded {
		return model.Cell{}, false
	}
	if c, ok := ch.cells[cellKey(row, col)]; ok {
		return c, true
	}
	return model.Cell{Row: row, Col: col, Type: model.CellBlank, Style: -1}, true
}

// ChunkStatus reports the state of one tile without loading it.
func (s *Store) ChunkStatus(sheetID int, key model.ChunkKey) model.ChunkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.sheets[sheetID]; ok {
		if ch, ok := sc.chunks[key]; ok {
			return ch.status
		}
	}
	return model.ChunkUnloaded
}

// ApplyChunk installs a fully parsed tile, replacing any previous cells for
// that key atomically. The parse event pump calls this as chunks stream in.
func (s *Store) ApplyChunk(sheetID int, key model.ChunkKey, cells []model.Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	sc := s.sheet(sheetID)
	ch, ok := sc.chunks[key]
	if !ok {
		ch = &chunk{}
		sc.chunks[key] = ch
	}
	m := make(map[int64]model.Cell, len(cells))
	for _, c := range cells {
		m[cellKey(c.Row, c.Col)] = c
	}
	ch.status = model.ChunkLoaded
	ch.cells = m
	ch.err = nil
}

// EnsureChunkLoaded loads a tile on demand. Callers racing on the same key
// share one loader invocation; a chunk already loaded returns immediately.
// Failed chunks transition back through Loading on retry.
func (s *Store) EnsureChunkLoaded(ctx context.Context, sheetID int, key model.ChunkKey) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	sc := s.sheet(sheetID)
	ch, ok := sc.chunks[key]
	if !ok {
		ch = &chunk{}
		sc.chunks[key] = ch
	}
	switch ch.status {
	case model.ChunkLoaded:
		s.mu.Unlock()
		return nil
	case model.ChunkLoading:
		done := ch.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		err := ch.err
		s.mu.Unlock()
		return err
	}
	ch.status = model.ChunkLoading
	ch.err = nil
	ch.done = make(chan struct{})
	done := ch.done
	s.mu.Unlock()

	lctx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		lctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	cells, err := s.loader.ReadChunk(lctx, sheetID, key)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w: sheet %d chunk (%d,%d)", ErrChunkLoadTimeout, sheetID, key.RowBand, key.ColBand)
	}

	s.mu.Lock()
	if err != nil {
		ch.status = model.ChunkFailed
		ch.err = err
	} else {
		m := make(map[int64]model.Cell, len(cells))
		for _, c := range cells {
			m[cellKey(c.Row, c.Col)] = c
		}
		ch.status = model.ChunkLoaded
		ch.cells = m
		ch.err = nil
	}
	ch.done = nil
	s.mu.Unlock()
	close(done)
	return err
}

// EnsureRange loads every chunk intersecting the given cell ranges.
func (s *Store) EnsureRange(ctx context.Context, sheetID int, rows, cols model.Range) error {
	for _, key := range model.ChunkKeysInRange(rows, cols, s.chunkRows, s.chunkCols) {
		if err := s.EnsureChunkLoaded(ctx, sheetID, key); err != nil {
			return err
		}
	}
	return nil
}

// EnsureSheet force-loads every chunk of a sheet with the given bounds,
// reporting progress per chunk. Used by full-materialization export.
func (s *Store) EnsureSheet(ctx context.Context, sheet model.Sheet, progress func(done, total int)) error {
	keys := model.ChunkKeysInRange(
		model.Range{Start: 0, End: sheet.MaxRow},
		model.Range{Start: 0, End: sheet.MaxCol},
		s.chunkRows, s.chunkCols,
	)
	for i, key := range keys {
		if err := s.EnsureChunkLoaded(ctx, sheet.ID, key); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(keys))
		}
	}
	return nil
}

// LoadedChunks snapshots the loaded tiles of a sheet, for incremental
// indexing over data that is already in memory.
func (s *Store) LoadedChunks(sheetID int) []model.ChunkKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.sheets[sheetID]
	if !ok {
		return nil
	}
	var keys []model.ChunkKey
	for k, ch := range sc.chunks {
		if ch.status == model.ChunkLoaded {
			keys = append(keys, k)
		}
	}
	return keys
}

// ChunkCells returns a copy of the cells of a loaded chunk, sorted by
// (row, col). ok is false unless the chunk is loaded.
func (s *Store) ChunkCells(sheetID int, key model.ChunkKey) ([]model.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.sheets[sheetID]
	if !ok {
		return nil, false
	}
	ch, ok := sc.chunks[key]
	if !ok || ch.status != model.ChunkLoaded {
		return nil, false
	}
	out := make([]model.Cell, 0, len(ch.cells))
	for _, c := range ch.cells {
		out = append(out, c)
	}
	sortCells(out)
	return out, true
}

// Close marks the store superseded and releases all chunk memory. Pending
// EnsureChunkLoaded calls fail; new ones return ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sheets = map[int]*sheetChunks{}
}

func sortCells(cells []model.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
}
