// Package search maintains an incremental inverted index over loaded chunks.
// Entries for unloaded chunks are absent, not wrong: results are a subset of
// the true matches until every chunk has been indexed, and Indexer.Complete
// tells the UI when to stop announcing partial results.
package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/mjschmitt/sheetview/internal/model"
)

// Ref locates one matching cell.
type Ref struct {
	Sheet int
	Row   int
	Col   int
}

func refLess(a, b Ref) bool {
	if a.Sheet != b.Sheet {
		return a.Sheet < b.Sheet
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Indexer is the inverted index for one workbook: normalized display value
// to postings list. Keying by the whole normalized value keeps substring
// queries exact (a cell matches iff its normalized value contains the query)
// while deduplicating repeated values across the sheet.
type Indexer struct {
	mu        sync.Mutex
	postings  map[string][]Ref
	indexed   map[int]map[model.ChunkKey]struct{}
	complete  bool
	cancelled bool
}

// NewIndexer creates an empty index.
func NewIndexer() *Indexer {
	return &Indexer{
		postings: map[string][]Ref{},
		indexed:  map[int]map[model.ChunkKey]struct{}{},
	}
}

// IndexChunk folds one loaded chunk into the index. Chunks index at most
// once; re-indexing a key is a no-op, as is any call after Cancel. The work
// is bounded by the chunk size, so callers can interleave it with rendering.
func (ix *Indexer) IndexChunk(sheetID int, key model.ChunkKey, cells []model.Cell) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cancelled {
		return
	}
	seen, ok := ix.indexed[sheetID]
	if !ok {
		seen = map[model.ChunkKey]struct{}{}
		ix.indexed[sheetID] = seen
	}
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}
	for _, c := range cells {
		if c.Display == "" {
			continue
		}
		term := strings.ToLower(c.Display)
		ix.postings[term] = append(ix.postings[term], Ref{Sheet: sheetID, Row: c.Row, Col: c.Col})
	}
}

// SetComplete marks the index as covering every chunk of the workbook.
func (ix *Indexer) SetComplete() {
	ix.mu.Lock()
	ix.complete = true
	ix.mu.Unlock()
}

// Complete reports whether results are final rather than partial.
func (ix *Indexer) Complete() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.complete
}

// Cancel detaches the indexer from further updates. A new file load cancels
// the superseded workbook's indexer and starts a fresh one.
func (ix *Indexer) Cancel() {
	ix.mu.Lock()
	ix.cancelled = true
	ix.postings = map[string][]Ref{}
	ix.indexed = map[int]map[model.ChunkKey]struct{}{}
	ix.mu.Unlock()
}

// Search returns every indexed cell whose display value contains the query,
// case-insensitive, ordered by (sheet, row, col) ascending. The result
// reflects index state at call time.
func (ix *Indexer) Search(query string) []Ref {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	ix.mu.Lock()
	var out []Ref
	for term, refs := range ix.postings {
		if strings.Contains(term, q) {
			out = append(out, refs...)
		}
	}
	ix.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return refLess(out[i], out[j]) })
	return out
}
