package viewer

import "testing"

func TestDecodeKeySequences(t *testing.T) {
	cases := []struct {
		in   string
		key  Key
		used int
	}{
		{"\x1b[A", KeyUp, 3},
		{"\x1b[B", KeyDown, 3},
		{"\x1b[C", KeyRight, 3},
		{"\x1b[D", KeyLeft, 3},
		{"\x1b[H", KeyHome, 3},
		{"\x1b[F", KeyEnd, 3},
		{"\x1b[5~", KeyPageUp, 4},
		{"\x1b[6~", KeyPageDown, 4},
		{"\x1b[1;5C", KeySheetNext, 6},
		{"\x1b[1;5D", KeySheetPrev, 6},
		{"\x1b", KeyEscape, 1},
		{"q", KeyQuit, 1},
		{"\x03", KeyQuit, 1},
		{"/", KeySearch, 1},
		{"n", KeySearchNext, 1},
		{"N", KeySearchPrev, 1},
		{"f", KeyFullscreen, 1},
		{"p", KeyPrint, 1},
		{"+", KeyZoomIn, 1},
		{"=", KeyZoomIn, 1},
		{"-", KeyZoomOut, 1},
		{"[", KeySheetPrev, 1},
		{"]", KeySheetNext, 1},
		{"h", KeyLeft, 1},
		{"j", KeyDown, 1},
		{"k", KeyUp, 1},
		{"l", KeyRight, 1},
		{"x", KeyNone, 1},
	}
	for _, c := range cases {
		key, used := DecodeKey([]byte(c.in))
		if key != c.key || used != c.used {
			t.Fatalf("DecodeKey(%q) = (%v, %d), want (%v, %d)", c.in, key, used, c.key, c.used)
		}
	}
}

func TestDecodeKeyIncompleteSequences(t *testing.T) {
	for _, in := range []string{"\x1b[", "\x1b[5", "\x1b[1;5"} {
		if key, used := DecodeKey([]byte(in)); used != 0 {
			t.Fatalf("DecodeKey(%q) = (%v, %d), want incomplete", in, key, used)
		}
	}
	if key, used := DecodeKey(nil); key != KeyNone || used != 0 {
		t.Fatalf("DecodeKey(nil) = (%v, %d)", key, used)
	}
}

func TestHandleKeyDrivesSelectionAndModes(t *testing.T) {
	data := buildTestWorkbook(t, []testSheet{{name: "S", cells: map[string]string{
		"A1": "a", "C3": "c",
	}}}, false)
	c := loadReady(t, data, "book.xlsx")
	c.SetViewportSize(400, 200)
	c.Frame()

	if !c.HandleKey(KeyDown) || !c.HandleKey(KeyRight) {
		t.Fatalf("navigation keys should keep the viewer running")
	}
	if row, col := c.Selection(); row != 1 || col != 1 {
		t.Fatalf("selection = %d,%d", row, col)
	}
	c.HandleKey(KeyEnd)
	if row, col := c.Selection(); row != 2 || col != 2 {
		t.Fatalf("End selection = %d,%d", row, col)
	}
	c.HandleKey(KeyHome)
	if row, col := c.Selection(); row != 0 || col != 0 {
		t.Fatalf("Home selection = %d,%d", row, col)
	}

	c.HandleKey(KeyFullscreen)
	c.HandleKey(KeyPrint)
	if c.Mode() != ModePrint {
		t.Fatalf("mode = %v", c.Mode())
	}
	c.HandleKey(KeyEscape)
	if c.Mode() != ModeNormal {
		t.Fatalf("mode after escape = %v", c.Mode())
	}

	if c.HandleKey(KeyQuit) {
		t.Fatalf("quit key should stop the viewer")
	}
}

func TestHandleKeyTabEnterSpace(t *testing.T) {
	data := buildTestWorkbook(t, []testSheet{{name: "S", cells: map[string]string{
		"A1": "a", "B2": "b", "C3": "c",
	}}}, false)
	c := loadReady(t, data, "book.xlsx")
	c.SetViewportSize(400, 200)
	c.Frame()

	// Tab advances a column, Enter a row, like a data-entry grid.
	c.HandleKey(KeyTab)
	if row, col := c.Selection(); row != 0 || col != 1 {
		t.Fatalf("selection after Tab = %d,%d", row, col)
	}
	c.HandleKey(KeyEnter)
	if row, col := c.Selection(); row != 1 || col != 1 {
		t.Fatalf("selection after Enter = %d,%d", row, col)
	}

	// Space re-announces the selected cell without moving it.
	seq := c.announcer.Seq()
	c.HandleKey(KeySpace)
	if row, col := c.Selection(); row != 1 || col != 1 {
		t.Fatalf("Space moved the selection to %d,%d", row, col)
	}
	if c.announcer.Seq() != seq+1 {
		t.Fatalf("Space did not announce")
	}
	if snap := c.Snapshot(); snap.Live != "B2: b" {
		t.Fatalf("live region = %q", snap.Live)
	}
}

func TestHandleKeyInteractiveInErrorPhase(t *testing.T) {
	c := New(testConfig())
	_ = c.Load("bad.txt", []byte("nope"))
	if c.Phase() != PhaseError {
		t.Fatalf("phase = %v", c.Phase())
	}
	// Input handling never shuts down just because loading failed.
	if !c.HandleKey(KeyDown) || !c.HandleKey(KeyFullscreen) {
		t.Fatalf("error phase should remain interactive")
	}
	if c.HandleKey(KeyQuit) {
		t.Fatalf("quit should still exit")
	}
}

func TestCellLabelAndSheetTabLabel(t *testing.T) {
	if got := CellLabel(6, 1, "42"); got != "B7: 42" {
		t.Fatalf("CellLabel = %q", got)
	}
	if got := CellLabel(0, 0, ""); got != "A1: blank" {
		t.Fatalf("blank CellLabel = %q", got)
	}
	if got := SheetTabLabel("Data", true); got != "Data (selected)" {
		t.Fatalf("selected tab = %q", got)
	}
	if got := SheetTabLabel("Data", false); got != "Data" {
		t.Fatalf("tab = %q", got)
	}
}
