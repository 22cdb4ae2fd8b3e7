package model

import "github.com/google/uuid"

// Default chunk tile dimensions. A chunk is the unit of lazy loading: a fixed
// 256x64 tile partitioning the sheet into non-overlapping regions. Boundaries
// are deterministic given sheet dimensions and never depend on scroll state.
const (
	DefaultChunkRows = 256
	DefaultChunkCols = 64
)

// ChunkKey addresses one tile of a sheet by its row and column band.
type ChunkKey struct {
	RowBand int
	ColBand int
}

// ChunkKeyAt returns the key of the chunk containing the given cell address.
func ChunkKeyAt(row, col, chunkRows, chunkCols int) ChunkKey {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	if chunkCols <= 0 {
		chunkCols = DefaultChunkCols
	}
	return ChunkKey{RowBand: row / chunkRows, ColBand: col / chunkCols}
}

// ChunkStatus is the load state of a single chunk. Transitions are
// forward-only except Failed -> Loading on retry.
type ChunkStatus int

const (
	ChunkUnloaded ChunkStatus = iota
	ChunkLoading
	ChunkLoaded
	ChunkFailed
)

func (s ChunkStatus) String() string {
	switch s {
	case ChunkUnloaded:
		return "unloaded"
	case ChunkLoading:
		return "loading"
	case ChunkLoaded:
		return "loaded"
	case ChunkFailed:
		return "failed"
	}
	return "unknown"
}

// Sheet describes one worksheet tab. MaxRow/MaxCol are authoritative upper
// bounds (counts, not indices) learned progressively while chunks parse; they
// may grow but never shrink until parsing completes.
type Sheet struct {
	ID     int
	Name   string
	MaxRow int
	MaxCol int
}

// Grow widens the sheet bounds to include the given address.
func (s *Sheet) Grow(row, col int) {
	if row+1 > s.MaxRow {
		s.MaxRow = row + 1
	}
	if col+1 > s.MaxCol {
		s.MaxCol = col + 1
	}
}

// Workbook is the top-level container: an ordered sequence of sheets in file
// order, plus the original container bytes for unmodified re-export.
type Workbook struct {
	ID        string
	Name      string
	Sheets    []*Sheet
	HasMacros bool
	// Original holds the source container verbatim so that XLSX export of an
	// unmodified workbook preserves the file structure byte for byte.
	Original []byte
}

// NewWorkbook allocates an empty workbook with a fresh identity.
func NewWorkbook(name string) *Workbook {
	return &Workbook{ID: uuid.NewString(), Name: name}
}

// SheetByID returns the sheet with the given id, or nil.
func (w *Workbook) SheetByID(id int) *Sheet {
	for _, s := range w.Sheets {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ViewportState is the remembered scroll/zoom position of one sheet. It is
// owned by the sheet manager, one instance per sheet, and survives sheet
// switches so that returning to a sheet restores its exact position.
type ViewportState struct {
	ScrollRow int
	ScrollCol int
	Zoom      float64
	RowRange  Range
	ColRange  Range
}

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Clamp restricts the range to [0, limit).
func (r Range) Clamp(limit int) Range {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > limit {
		r.End = limit
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}

// ChunkKeysInRange lists every chunk key whose tile intersects the given
// cell ranges. Keys tile the sheet without overlap, so the result is exact.
func ChunkKeysInRange(rows, cols Range, chunkRows, chunkCols int) []ChunkKey {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	if chunkCols <= 0 {
		chunkCols = DefaultChunkCols
	}
	if rows.Len() == 0 || cols.Len() == 0 {
		return nil
	}
	var keys []ChunkKey
	for rb := rows.Start / chunkRows; rb <= (rows.End-1)/chunkRows; rb++ {
		for cb := cols.Start / chunkCols; cb <= (cols.End-1)/chunkCols; cb++ {
			keys = append(keys, ChunkKey{RowBand: rb, ColBand: cb})
		}
	}
	return keys
}
