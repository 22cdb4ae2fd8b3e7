package viewer

import (
	"fmt"
	"sync"

	"github.com/mjschmitt/sheetview/internal/model"
)

// CellLabel is the textual label exposed for every rendered cell: its A1
// address plus value, e.g. "B7: 42" or "B7: blank".
func CellLabel(row, col int, value string) string {
	if value == "" {
		return model.CellRef(row, col) + ": blank"
	}
	return model.CellRef(row, col) + ": " + value
}

// SheetTabLabel is the accessible label for a sheet tab, exposing its
// selected state.
func SheetTabLabel(name string, selected bool) string {
	if selected {
		return fmt.Sprintf("%s (selected)", name)
	}
	return name
}

// Announcer is the live region feeding assistive technology: the latest
// announcement replaces the previous one, matching aria-live semantics.
type Announcer struct {
	mu   sync.Mutex
	last string
	seq  int
}

// Announce formats and stores a new live message.
func (a *Announcer) Announce(format string, args ...any) {
	a.mu.Lock()
	a.last = fmt.Sprintf(format, args...)
	a.seq++
	a.mu.Unlock()
}

// Last returns the current live message.
func (a *Announcer) Last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Seq increments with every announcement so pollers detect repeats.
func (a *Announcer) Seq() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}
