package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mjschmitt/sheetview/internal/model"
)

// fakeLoader counts ReadChunk calls and serves cells from a fixed map.
type fakeLoader struct {
	calls int32
	cells map[model.ChunkKey][]model.Cell
	err   error
	// block, when non-nil, holds every load until the channel closes.
	block chan struct{}
}

func (f *fakeLoader) ReadChunk(ctx context.Context, sheetID int, key model.ChunkKey) ([]model.Cell, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.cells[key], nil
}

func TestGetCellDistinguishesUnloadedFromBlank(t *testing.T) {
	loader := &fakeLoader{cells: map[model.ChunkKey][]model.Cell{
		{}: {{Row: 0, Col: 0, Display: "x", Type: model.CellString}},
	}}
	s := New(loader, 4, 4)

	if _, ok := s.GetCell(0, 0, 0); ok {
		t.Fatalf("unloaded chunk should report ok=false")
	}
	if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	c, ok := s.GetCell(0, 0, 0)
	if !ok || c.Display != "x" {
		t.Fatalf("loaded cell = %+v ok=%v", c, ok)
	}
	// Same chunk, address with no stored cell: blank, not missing.
	c, ok = s.GetCell(0, 1, 1)
	if !ok || !c.IsBlank() {
		t.Fatalf("absent cell in loaded chunk = %+v ok=%v", c, ok)
	}
}

func TestEnsureChunkLoadedDeduplicatesConcurrentLoads(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	s := New(loader, 4, 4)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{})
		}(i)
	}
	// Let the goroutines pile up on the in-flight load before releasing it.
	for atomic.LoadInt32(&loader.calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(loader.block)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
	if st := s.ChunkStatus(0, model.ChunkKey{}); st != model.ChunkLoaded {
		t.Fatalf("status = %v, want loaded", st)
	}
}

func TestEnsureChunkLoadedAlreadyLoadedSkipsLoader(t *testing.T) {
	loader := &fakeLoader{}
	s := New(loader, 4, 4)
	for i := 0; i < 3; i++ {
		if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("loader called %d times, want 1", loader.calls)
	}
}

func TestFailedChunkRetriesThroughLoading(t *testing.T) {
	loader := &fakeLoader{err: errors.New("bad band")}
	s := New(loader, 4, 4)

	if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); err == nil {
		t.Fatalf("expected load failure")
	}
	if st := s.ChunkStatus(0, model.ChunkKey{}); st != model.ChunkFailed {
		t.Fatalf("status after failure = %v", st)
	}

	loader.err = nil
	if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if st := s.ChunkStatus(0, model.ChunkKey{}); st != model.ChunkLoaded {
		t.Fatalf("status after retry = %v", st)
	}
	if loader.calls != 2 {
		t.Fatalf("loader called %d times, want 2", loader.calls)
	}
}

func TestChunkLoadTimeout(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	s := New(loader, 4, 4, WithTimeout(20*time.Millisecond))

	err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{})
	if !errors.Is(err, ErrChunkLoadTimeout) {
		t.Fatalf("expected ErrChunkLoadTimeout, got %v", err)
	}
	if st := s.ChunkStatus(0, model.ChunkKey{}); st != model.ChunkFailed {
		t.Fatalf("status after timeout = %v", st)
	}
	// The chunk stays retryable; nothing else was torn down.
	close(loader.block)
	if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); err != nil {
		t.Fatalf("retry after timeout: %v", err)
	}
}

func TestApplyChunkReplacesAtomically(t *testing.T) {
	s := New(&fakeLoader{}, 4, 4)
	s.ApplyChunk(0, model.ChunkKey{}, []model.Cell{
		{Row: 0, Col: 0, Display: "old"},
		{Row: 1, Col: 1, Display: "stale"},
	})
	s.ApplyChunk(0, model.ChunkKey{}, []model.Cell{
		{Row: 0, Col: 0, Display: "new"},
	})
	c, ok := s.GetCell(0, 0, 0)
	if !ok || c.Display != "new" {
		t.Fatalf("cell = %+v ok=%v", c, ok)
	}
	// The stale cell from the first application must be gone.
	c, ok = s.GetCell(0, 1, 1)
	if !ok || !c.IsBlank() {
		t.Fatalf("stale cell survived: %+v", c)
	}
}

func TestEnsureRangeCoversIntersectingChunks(t *testing.T) {
	loader := &fakeLoader{}
	s := New(loader, 2, 2)
	rows := model.Range{Start: 1, End: 5} // bands 0..2
	cols := model.Range{Start: 0, End: 3} // bands 0..1
	if err := s.EnsureRange(context.Background(), 0, rows, cols); err != nil {
		t.Fatalf("ensure range: %v", err)
	}
	if got := len(s.LoadedChunks(0)); got != 6 {
		t.Fatalf("loaded %d chunks, want 6", got)
	}
}

func TestChunkCellsSortedCopy(t *testing.T) {
	s := New(&fakeLoader{}, 8, 8)
	s.ApplyChunk(0, model.ChunkKey{}, []model.Cell{
		{Row: 2, Col: 1, Display: "c"},
		{Row: 0, Col: 3, Display: "a"},
		{Row: 2, Col: 0, Display: "b"},
	})
	cells, ok := s.ChunkCells(0, model.ChunkKey{})
	if !ok || len(cells) != 3 {
		t.Fatalf("cells = %v ok=%v", cells, ok)
	}
	if cells[0].Display != "a" || cells[1].Display != "b" || cells[2].Display != "c" {
		t.Fatalf("not sorted by (row, col): %v", cells)
	}
	if _, ok := s.ChunkCells(0, model.ChunkKey{RowBand: 5}); ok {
		t.Fatalf("unloaded chunk should report ok=false")
	}
}

func TestCloseRejectsNewLoads(t *testing.T) {
	s := New(&fakeLoader{}, 4, 4)
	s.ApplyChunk(0, model.ChunkKey{}, []model.Cell{{Row: 0, Col: 0, Display: "x"}})
	s.Close()
	if err := s.EnsureChunkLoaded(context.Background(), 0, model.ChunkKey{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, ok := s.GetCell(0, 0, 0); ok {
		t.Fatalf("chunk memory should be released on close")
	}
	// Applying after close is a no-op, not a panic.
	s.ApplyChunk(0, model.ChunkKey{}, []model.Cell{{Row: 0, Col: 0}})
	if _, ok := s.GetCell(0, 0, 0); ok {
		t.Fatalf("apply after close should be ignored")
	}
}
