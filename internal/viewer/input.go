package viewer

// Key is a decoded input gesture from the host keyboard surface.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyTab
	KeyEnter
	KeySpace
	KeyEscape
	KeySheetPrev // adjacent-sheet navigation, no wrap
	KeySheetNext
	KeyFullscreen
	KeyPrint
	KeySearch
	KeySearchNext
	KeySearchPrev
	KeyZoomIn
	KeyZoomOut
	KeyQuit
)

// DecodeKey interprets a raw terminal byte sequence. It returns the decoded
// key and how many bytes were consumed (0 when the sequence is incomplete).
func DecodeKey(buf []byte) (Key, int) {
	if len(buf) == 0 {
		return KeyNone, 0
	}
	switch buf[0] {
	case 0x1b: // ESC or CSI sequence
		if len(buf) == 1 {
			return KeyEscape, 1
		}
		if buf[1] == '[' {
			if len(buf) < 3 {
				return KeyNone, 0
			}
			switch buf[2] {
			case 'A':
				return KeyUp, 3
			case 'B':
				return KeyDown, 3
			case 'C':
				return KeyRight, 3
			case 'D':
				return KeyLeft, 3
			case 'H':
				return KeyHome, 3
			case 'F':
				return KeyEnd, 3
			case '5':
				if len(buf) >= 4 && buf[3] == '~' {
					return KeyPageUp, 4
				}
				return KeyNone, 0
			case '6':
				if len(buf) >= 4 && buf[3] == '~' {
					return KeyPageDown, 4
				}
				return KeyNone, 0
			case '1':
				// Modified arrows: ESC [ 1 ; 5 C is ctrl-right.
				if len(buf) >= 6 && buf[3] == ';' && buf[4] == '5' {
					switch buf[5] {
					case 'C':
						return KeySheetNext, 6
					case 'D':
						return KeySheetPrev, 6
					}
					return KeyNone, 6
				}
				if len(buf) < 6 {
					return KeyNone, 0
				}
			}
			return KeyNone, 3
		}
		return KeyEscape, 1
	case '\t':
		return KeyTab, 1
	case '\r', '\n':
		return KeyEnter, 1
	case ' ':
		return KeySpace, 1
	case '/':
		return KeySearch, 1
	case 'n':
		return KeySearchNext, 1
	case 'N':
		return KeySearchPrev, 1
	case 'f':
		return KeyFullscreen, 1
	case 'p':
		return KeyPrint, 1
	case '+', '=':
		return KeyZoomIn, 1
	case '-':
		return KeyZoomOut, 1
	case '[':
		return KeySheetPrev, 1
	case ']':
		return KeySheetNext, 1
	case 'q', 0x03: // q or ctrl-c
		return KeyQuit, 1
	case 'h':
		return KeyLeft, 1
	case 'j':
		return KeyDown, 1
	case 'k':
		return KeyUp, 1
	case 'l':
		return KeyRight, 1
	}
	return KeyNone, 1
}

// HandleKey applies one key to the controller. It returns false when the
// viewer should exit. The viewer stays interactive in every phase,
// including Error.
func (c *Controller) HandleKey(k Key) bool {
	switch k {
	case KeyQuit:
		return false
	case KeyUp:
		c.MoveSelection(-1, 0)
	case KeyDown:
		c.MoveSelection(1, 0)
	case KeyLeft:
		c.MoveSelection(0, -1)
	case KeyRight:
		c.MoveSelection(0, 1)
	case KeyPageUp:
		c.pageSelection(-1)
	case KeyPageDown:
		c.pageSelection(1)
	case KeyTab:
		c.MoveSelection(0, 1)
	case KeyEnter:
		c.MoveSelection(1, 0)
	case KeySpace:
		// Re-announce the selected cell for the live region.
		row, col := c.Selection()
		c.Select(row, col)
	case KeyHome:
		c.Select(0, 0)
	case KeyEnd:
		if _, sheet, ok := c.activeEngine(); ok {
			c.Select(maxIndex(sheet.MaxRow), maxIndex(sheet.MaxCol))
		}
	case KeySheetPrev:
		c.PrevSheet()
	case KeySheetNext:
		c.NextSheet()
	case KeyFullscreen:
		c.ToggleFullscreen()
	case KeyPrint:
		c.TogglePrint()
	case KeyEscape:
		c.Escape()
	case KeySearchNext:
		c.NextResult()
	case KeySearchPrev:
		c.PrevResult()
	case KeyZoomIn:
		c.ZoomBy(1.25)
	case KeyZoomOut:
		c.ZoomBy(0.8)
	}
	return true
}

func (c *Controller) pageSelection(dir int) {
	c.mu.Lock()
	span := c.lastRows.Len()
	c.mu.Unlock()
	if span <= 1 {
		span = 20
	}
	c.MoveSelection(dir*span, 0)
}
