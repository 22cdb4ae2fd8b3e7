// Package sheets tracks the workbook's sheet list, the active sheet, and the
// per-sheet viewport state that survives sheet switches.
package sheets

import (
	"fmt"
	"sync"

	"github.com/mjschmitt/sheetview/internal/model"
)

// State is the per-workbook sheet machine: NoSheets until discovery, then
// SheetsDiscovered, then ActiveSheet once a sheet has been selected.
type State int

const (
	NoSheets State = iota
	SheetsDiscovered
	ActiveSheet
)

func (s State) String() string {
	switch s {
	case NoSheets:
		return "no-sheets"
	case SheetsDiscovered:
		return "sheets-discovered"
	case ActiveSheet:
		return "active-sheet"
	}
	return "unknown"
}

// Manager owns sheet order, the active selection, and one ViewportState per
// sheet. Switching sheets swaps states without discarding either side, so
// returning to a sheet restores its exact scroll and zoom.
type Manager struct {
	mu        sync.Mutex
	state     State
	sheets    []model.Sheet
	active    int
	viewports map[int]*model.ViewportState
}

// NewManager starts in the NoSheets state.
func NewManager() *Manager {
	return &Manager{active: -1, viewports: map[int]*model.ViewportState{}}
}

// State returns the current machine state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Discover records a sheet found during parsing, in file order.
func (m *Manager) Discover(s model.Sheet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sheets {
		if m.sheets[i].ID == s.ID {
			m.sheets[i] = s
			return
		}
	}
	m.sheets = append(m.sheets, s)
	if m.state == NoSheets {
		m.state = SheetsDiscovered
	}
}

// UpdateDims grows a sheet's recorded bounds; bounds never shrink.
func (m *Manager) UpdateDims(id, maxRow, maxCol int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sheets {
		if m.sheets[i].ID == id {
			if maxRow > m.sheets[i].MaxRow {
				m.sheets[i].MaxRow = maxRow
			}
			if maxCol > m.sheets[i].MaxCol {
				m.sheets[i].MaxCol = maxCol
			}
			return
		}
	}
}

// Sheets returns the discovered sheets in file order.
func (m *Manager) Sheets() []model.Sheet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Sheet, len(m.sheets))
	copy(out, m.sheets)
	return out
}

// Sheet returns the sheet with the given id.
func (m *Manager) Sheet(id int) (model.Sheet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sheets {
		if s.ID == id {
			return s, true
		}
	}
	return model.Sheet{}, false
}

// SwitchTo activates a sheet by id. Valid any time after discovery.
func (m *Manager) SwitchTo(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == NoSheets {
		return fmt.Errorf("no sheets discovered yet")
	}
	idx := -1
	for i, s := range m.sheets {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown sheet id %d", id)
	}
	m.active = idx
	m.state = ActiveSheet
	return nil
}

// Active returns the active sheet, if any.
func (m *Manager) Active() (model.Sheet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ActiveSheet || m.active < 0 {
		return model.Sheet{}, false
	}
	return m.sheets[m.active], true
}

// Next advances to the following sheet. The last sheet ignores further
// advance: navigation never wraps around.
func (m *Manager) Next() (model.Sheet, bool) {
	return m.step(1)
}

// Prev steps to the preceding sheet; the first sheet ignores it.
func (m *Manager) Prev() (model.Sheet, bool) {
	return m.step(-1)
}

func (m *Manager) step(delta int) (model.Sheet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ActiveSheet || m.active < 0 {
		return model.Sheet{}, false
	}
	next := m.active + delta
	if next < 0 || next >= len(m.sheets) {
		return m.sheets[m.active], false
	}
	m.active = next
	return m.sheets[m.active], true
}

// Viewport returns the sheet's viewport state, creating it on first use.
// The returned pointer stays valid for the life of the workbook.
func (m *Manager) Viewport(id int) *model.ViewportState {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.viewports[id]
	if !ok {
		vs = &model.ViewportState{Zoom: 1.0}
		m.viewports[id] = vs
	}
	return vs
}
