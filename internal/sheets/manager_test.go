package sheets

import (
	"testing"

	"github.com/mjschmitt/sheetview/internal/model"
)

func discoverThree(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	for i, name := range []string{"Summary", "Data", "Notes"} {
		m.Discover(model.Sheet{ID: i, Name: name, MaxRow: 10, MaxCol: 5})
	}
	return m
}

func TestStateProgression(t *testing.T) {
	m := NewManager()
	if m.State() != NoSheets {
		t.Fatalf("initial state = %v", m.State())
	}
	if err := m.SwitchTo(0); err == nil {
		t.Fatalf("SwitchTo before discovery should fail")
	}
	m.Discover(model.Sheet{ID: 0, Name: "Only"})
	if m.State() != SheetsDiscovered {
		t.Fatalf("state after discovery = %v", m.State())
	}
	if _, ok := m.Active(); ok {
		t.Fatalf("no sheet should be active before SwitchTo")
	}
	if err := m.SwitchTo(0); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if m.State() != ActiveSheet {
		t.Fatalf("state after switch = %v", m.State())
	}
	s, ok := m.Active()
	if !ok || s.Name != "Only" {
		t.Fatalf("active = %+v ok=%v", s, ok)
	}
}

func TestDiscoverKeepsFileOrderAndDeduplicates(t *testing.T) {
	m := discoverThree(t)
	m.Discover(model.Sheet{ID: 1, Name: "Data", MaxRow: 20, MaxCol: 5})
	sheets := m.Sheets()
	if len(sheets) != 3 {
		t.Fatalf("re-discovery duplicated sheet list: %v", sheets)
	}
	if sheets[0].Name != "Summary" || sheets[1].Name != "Data" || sheets[2].Name != "Notes" {
		t.Fatalf("order = %v", sheets)
	}
	if sheets[1].MaxRow != 20 {
		t.Fatalf("re-discovery did not refresh metadata: %+v", sheets[1])
	}
}

func TestSwitchToUnknownSheet(t *testing.T) {
	m := discoverThree(t)
	if err := m.SwitchTo(99); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestNextPrevNeverWrap(t *testing.T) {
	m := discoverThree(t)
	if err := m.SwitchTo(0); err != nil {
		t.Fatalf("switch: %v", err)
	}
	// Prev on the first sheet stays on the first sheet.
	s, moved := m.Prev()
	if moved || s.ID != 0 {
		t.Fatalf("Prev at first sheet = %+v moved=%v", s, moved)
	}
	if s, moved = m.Next(); !moved || s.ID != 1 {
		t.Fatalf("Next = %+v moved=%v", s, moved)
	}
	if s, moved = m.Next(); !moved || s.ID != 2 {
		t.Fatalf("Next = %+v moved=%v", s, moved)
	}
	// Next on the last sheet stays on the last sheet.
	s, moved = m.Next()
	if moved || s.ID != 2 {
		t.Fatalf("Next at last sheet = %+v moved=%v", s, moved)
	}
}

func TestUpdateDimsNeverShrinks(t *testing.T) {
	m := discoverThree(t)
	m.UpdateDims(1, 500, 2)
	s, _ := m.Sheet(1)
	if s.MaxRow != 500 || s.MaxCol != 5 {
		t.Fatalf("dims = %dx%d, want 500x5", s.MaxRow, s.MaxCol)
	}
	m.UpdateDims(1, 10, 1)
	s, _ = m.Sheet(1)
	if s.MaxRow != 500 || s.MaxCol != 5 {
		t.Fatalf("dims shrank to %dx%d", s.MaxRow, s.MaxCol)
	}
}

func TestViewportSurvivesSheetSwitches(t *testing.T) {
	m := discoverThree(t)
	if err := m.SwitchTo(0); err != nil {
		t.Fatalf("switch: %v", err)
	}
	vs := m.Viewport(0)
	vs.ScrollRow, vs.ScrollCol, vs.Zoom = 120, 7, 1.5

	if err := m.SwitchTo(2); err != nil {
		t.Fatalf("switch: %v", err)
	}
	other := m.Viewport(2)
	if other.ScrollRow != 0 || other.Zoom != 1.0 {
		t.Fatalf("fresh viewport = %+v", other)
	}

	if err := m.SwitchTo(0); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	back := m.Viewport(0)
	if back.ScrollRow != 120 || back.ScrollCol != 7 || back.Zoom != 1.5 {
		t.Fatalf("viewport not restored: %+v", back)
	}
}
