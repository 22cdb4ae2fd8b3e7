package model

// CellType tags the parsed value variant of a cell.
type CellType int

const (
	CellBlank CellType = iota
	CellNumber
	CellString
	CellFormula
	CellError
)

func (t CellType) String() string {
	switch t {
	case CellBlank:
		return "blank"
	case CellNumber:
		return "number"
	case CellString:
		return "string"
	case CellFormula:
		return "formula"
	case CellError:
		return "error"
	}
	return "unknown"
}

// Cell is a single parsed spreadsheet cell. Cells are immutable once parsed;
// re-parsing a chunk replaces the whole chunk's cells atomically.
type Cell struct {
	Row int
	Col int
	// Raw is the stored value: the literal number/string for value cells,
	// the formula text for formula cells.
	Raw string
	// Display is the value presented to the user. For formula cells this is
	// the cached computed value from the file; formulas are never evaluated.
	Display string
	Type    CellType
	// Style is the cell format record index from the source file, or -1.
	Style int
}

// IsBlank reports whether the cell holds no displayable value.
func (c Cell) IsBlank() bool {
	return c.Type == CellBlank || (c.Display == "" && c.Type != CellString)
}
