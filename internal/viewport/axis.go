package viewport

import "sort"

// Axis maps between pixel offsets and row/column indices along one
// dimension. Sizes default to a uniform value with sparse per-index
// overrides, so memory stays proportional to the overrides, not the sheet.
type Axis struct {
	count     int
	def       float64
	overrides map[int]float64

	// Sorted override indices with running (size - def) sums, rebuilt lazily.
	idx   []int
	extra []float64
	dirty bool
}

// NewAxis creates an axis of count entries with the given default size.
func NewAxis(count int, def float64) *Axis {
	if def <= 0 {
		def = 1
	}
	return &Axis{count: count, def: def, overrides: map[int]float64{}}
}

// Count returns the number of entries.
func (a *Axis) Count() int { return a.count }

// Grow extends the axis to at least n entries.
func (a *Axis) Grow(n int) {
	if n > a.count {
		a.count = n
	}
}

// SetSize overrides the size of one entry.
func (a *Axis) SetSize(i int, size float64) {
	if i < 0 || size <= 0 {
		return
	}
	a.Grow(i + 1)
	a.overrides[i] = size
	a.dirty = true
}

// Size returns the size of entry i.
func (a *Axis) Size(i int) float64 {
	if s, ok := a.overrides[i]; ok {
		return s
	}
	return a.def
}

func (a *Axis) rebuild() {
	if !a.dirty && a.idx != nil {
		return
	}
	a.idx = a.idx[:0]
	for i := range a.overrides {
		a.idx = append(a.idx, i)
	}
	sort.Ints(a.idx)
	a.extra = make([]float64, len(a.idx))
	sum := 0.0
	for j, i := range a.idx {
		sum += a.overrides[i] - a.def
		a.extra[j] = sum
	}
	a.dirty = false
}

// Offset returns the pixel position of the leading edge of entry i:
// the sum of the sizes of entries [0, i).
func (a *Axis) Offset(i int) float64 {
	if i <= 0 {
		return 0
	}
	if i > a.count {
		i = a.count
	}
	a.rebuild()
	// Number of overrides strictly below i.
	j := sort.SearchInts(a.idx, i)
	off := a.def * float64(i)
	if j > 0 {
		off += a.extra[j-1]
	}
	return off
}

// Total returns the full pixel extent of the axis.
func (a *Axis) Total() float64 { return a.Offset(a.count) }

// IndexAt returns the entry containing the pixel offset px, found by binary
// search over the cumulative sizes in O(log n). Offsets past the end clamp
// to the last entry.
func (a *Axis) IndexAt(px float64) int {
	if a.count == 0 || px <= 0 {
		return 0
	}
	i := sort.Search(a.count, func(i int) bool { return a.Offset(i+1) > px })
	if i >= a.count {
		return a.count - 1
	}
	return i
}
