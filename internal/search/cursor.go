package search

// Cursor drives "result N of M" navigation over a live query. The match list
// refreshes against the index on every call, so M grows as chunks finish
// indexing; the reported total never shrinks mid-session.
type Cursor struct {
	ix       *Indexer
	query    string
	pos      int
	maxTotal int
}

// NewCursor starts a search session positioned before the first match.
func (ix *Indexer) NewCursor(query string) *Cursor {
	return &Cursor{ix: ix, query: query, pos: -1}
}

// Query returns the session's query string.
func (c *Cursor) Query() string { return c.query }

func (c *Cursor) matches() []Ref {
	m := c.ix.Search(c.query)
	if len(m) > c.maxTotal {
		c.maxTotal = len(m)
	}
	return m
}

// Total returns M: the highest match count observed so far.
func (c *Cursor) Total() int {
	c.matches()
	return c.maxTotal
}

// Index returns the 1-based position of the current match, 0 if none.
func (c *Cursor) Index() int {
	if c.pos < 0 {
		return 0
	}
	return c.pos + 1
}

// Next advances to the following match, stopping at the last one.
func (c *Cursor) Next() (Ref, bool) {
	m := c.matches()
	if len(m) == 0 {
		return Ref{}, false
	}
	if c.pos+1 < len(m) {
		c.pos++
	}
	return m[c.pos], true
}

// Prev steps back to the preceding match, stopping at the first one.
func (c *Cursor) Prev() (Ref, bool) {
	m := c.matches()
	if len(m) == 0 {
		return Ref{}, false
	}
	if c.pos > 0 {
		c.pos--
	} else {
		c.pos = 0
	}
	return m[c.pos], true
}

// Current returns the match under the cursor without moving it.
func (c *Cursor) Current() (Ref, bool) {
	m := c.matches()
	if c.pos < 0 || c.pos >= len(m) {
		return Ref{}, false
	}
	return m[c.pos], true
}
