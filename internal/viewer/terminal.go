package viewer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/viewport"
)

var termGetSize = term.GetSize

const (
	termRowNumWidth = 8
	termCellWidth   = 12
	termChromeRows  = 3 // tab bar, status line, live region
)

// Terminal renders controller snapshots into an ANSI terminal and feeds
// keyboard input back. It is deliberately thin: all viewer semantics live
// in the Controller, which keeps them testable without a tty.
type Terminal struct {
	ctrl    *Controller
	input   *os.File
	output  *os.File
	reader  *bufio.Reader
	writer  *bufio.Writer
	restore *term.State
	width   int
	height  int
}

// NewTerminal binds a controller to stdin/stdout.
func NewTerminal(ctrl *Controller) *Terminal {
	return &Terminal{
		ctrl:   ctrl,
		input:  os.Stdin,
		output: os.Stdout,
		reader: bufio.NewReader(os.Stdin),
		writer: bufio.NewWriter(os.Stdout),
	}
}

// Run owns the terminal until the user quits.
func (t *Terminal) Run() error {
	state, err := term.MakeRaw(int(t.input.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	t.restore = state
	defer func() {
		t.write("\x1b[?25h") // show cursor
		t.write("\x1b[2J\x1b[H")
		t.flush()
		_ = term.Restore(int(t.input.Fd()), t.restore)
	}()
	t.write("\x1b[?25l") // hide cursor

	for {
		t.measure()
		t.ctrl.Frame()
		t.render()
		key, ok := t.readKey()
		if !ok {
			return nil
		}
		if key == KeySearch {
			t.promptSearch()
			continue
		}
		if !t.ctrl.HandleKey(key) {
			return nil
		}
	}
}

func (t *Terminal) measure() {
	w, h, err := termGetSize(int(t.output.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		w, h = 80, 24
	}
	t.width, t.height = w, h
	gridRows := h - termChromeRows
	if t.ctrl.Mode() == ModeFullscreen {
		gridRows = h - 1
	}
	if gridRows < 1 {
		gridRows = 1
	}
	cfg := t.ctrl.cfg.Viewport
	if cfg.RowHeight <= 0 || cfg.ColWidth <= 0 {
		cfg = viewport.DefaultConfig()
	}
	t.ctrl.SetViewportSize(float64(w-termRowNumWidth)/float64(termCellWidth)*cfg.ColWidth, float64(gridRows)*cfg.RowHeight)
}

func (t *Terminal) render() {
	snap := t.ctrl.Snapshot()
	t.write("\x1b[2J\x1b[H")
	switch snap.Phase {
	case PhaseIdle:
		t.write("no file loaded\r\n")
	case PhaseLoading:
		t.write("loading…\r\n")
	case PhaseError:
		t.write(fmt.Sprintf("✗ Error: %v\r\n", snap.Err))
		if snap.Retryable {
			t.write("press r to retry, q to quit\r\n")
		}
	case PhaseReady:
		t.renderGrid(snap)
	}
	t.flush()
}

func (t *Terminal) renderGrid(snap Snapshot) {
	if snap.Mode != ModeFullscreen {
		t.renderTabs(snap)
	}
	byAddr := make(map[[2]int]string, len(snap.Cells))
	for _, cv := range snap.Cells {
		byAddr[[2]int{cv.Row, cv.Col}] = cv.Value
	}
	gridRows := t.height - termChromeRows
	if snap.Mode == ModeFullscreen {
		gridRows = t.height - 1
	}
	maxCols := (t.width - termRowNumWidth) / termCellWidth

	row := snap.Rows.Start
	for line := 0; line < gridRows && row < snap.Rows.End; line, row = line+1, row+1 {
		var b strings.Builder
		b.WriteString(runewidth.FillRight(fmt.Sprintf("%d", row+1), termRowNumWidth))
		col := snap.Cols.Start
		for n := 0; n < maxCols && col < snap.Cols.End; n, col = n+1, col+1 {
			val := byAddr[[2]int{row, col}]
			cell := runewidth.FillRight(runewidth.Truncate(val, termCellWidth-1, "…"), termCellWidth)
			if row == snap.SelRow && col == snap.SelCol {
				b.WriteString("\x1b[7m" + cell + "\x1b[0m")
			} else {
				b.WriteString(cell)
			}
		}
		t.write(b.String() + "\r\n")
	}
	t.renderStatus(snap)
}

func (t *Terminal) renderTabs(snap Snapshot) {
	mgr := t.ctrl.Sheets()
	if mgr == nil {
		return
	}
	var b strings.Builder
	for i, s := range mgr.Sheets() {
		label := SheetTabLabel(s.Name, i == snap.SheetIndex)
		if i == snap.SheetIndex {
			b.WriteString("\x1b[7m " + label + " \x1b[0m")
		} else {
			b.WriteString(" " + label + " ")
		}
	}
	t.write(runewidth.Truncate(b.String(), t.width*2, "") + "\r\n")
}

func (t *Terminal) renderStatus(snap Snapshot) {
	status := fmt.Sprintf(" %s  %s  zoom %d%%",
		snap.SheetName, model.CellRef(snap.SelRow, snap.SelCol), int(snap.Zoom*100))
	if snap.Search != "" {
		status += "  " + snap.Search
	}
	if snap.Partial {
		status += "  loading…"
	}
	t.write("\x1b[7m" + runewidth.FillRight(runewidth.Truncate(status, t.width, ""), t.width) + "\x1b[0m\r\n")
	if snap.Mode != ModeFullscreen && snap.Live != "" {
		t.write(runewidth.Truncate(snap.Live, t.width, "…"))
	}
}

// promptSearch reads a query on the status line and opens a session.
func (t *Terminal) promptSearch() {
	t.write(fmt.Sprintf("\x1b[%d;1H\x1b[2K/", t.height))
	t.flush()
	var query []byte
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case '\r', '\n':
			q := strings.TrimSpace(string(query))
			if q != "" {
				t.ctrl.OpenSearch(q)
				t.ctrl.NextResult()
			}
			return
		case 0x1b:
			t.ctrl.CloseSearch()
			return
		case 0x7f, 0x08:
			if len(query) > 0 {
				query = query[:len(query)-1]
				t.write("\b \b")
				t.flush()
			}
		default:
			query = append(query, b)
			t.write(string(b))
			t.flush()
		}
	}
}

// readKey blocks for the next decoded key. Returns ok=false on input EOF.
func (t *Terminal) readKey() (Key, bool) {
	var buf []byte
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return KeyNone, false
		}
		buf = append(buf, b)
		// Retry is handled here so the Error screen stays interactive.
		if len(buf) == 1 && b == 'r' && t.ctrl.Phase() == PhaseError {
			_ = t.ctrl.Retry()
			return KeyNone, true
		}
		key, n := DecodeKey(buf)
		if n == 0 {
			if t.reader.Buffered() == 0 && buf[0] == 0x1b && len(buf) == 1 {
				return KeyEscape, true
			}
			continue
		}
		return key, true
	}
}

func (t *Terminal) write(s string) { _, _ = t.writer.WriteString(s) }
func (t *Terminal) flush()         { _ = t.writer.Flush() }
