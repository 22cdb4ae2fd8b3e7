package parser

import (
	"github.com/araddon/dateparse"
	"github.com/mjschmitt/sheetview/internal/model"
)

// decodeCell folds the raw worksheet cell parts into the tagged Cell variant.
// Blank cells (no value, no formula) are dropped: the store is sparse and a
// missing cell in a loaded chunk means blank.
func decodeCell(row, col int, typ string, style int, value string, hasValue bool, formula, inline string, hasInline bool, shared []string) (model.Cell, bool) {
	cell := model.Cell{Row: row, Col: col, Style: style}

	display := value
	switch typ {
	case "s":
		idx := atoiSafe(value)
		if idx >= 0 && idx < len(shared) {
			display = shared[idx]
		} else {
			display = ""
		}
		cell.Type = model.CellString
	case "inlineStr":
		display = inline
		cell.Type = model.CellString
	case "str":
		cell.Type = model.CellString
	case "b":
		if value == "1" {
			display = "TRUE"
		} else {
			display = "FALSE"
		}
		cell.Type = model.CellString
	case "e":
		cell.Type = model.CellError
	case "d":
		display = formatISODate(value)
		cell.Type = model.CellString
	default:
		cell.Type = model.CellNumber
	}
	if !hasValue && !hasInline {
		display = ""
	}

	if formula != "" {
		// Display-only cached value; formulas are never recomputed.
		cell.Type = model.CellFormula
		cell.Raw = "=" + formula
		cell.Display = display
		return cell, true
	}
	if !hasValue && !hasInline {
		return model.Cell{}, false
	}
	cell.Raw = display
	cell.Display = display
	return cell, true
}

// formatISODate renders an ISO-8601 date cell (t="d") in a stable form:
// date-only values print as 2006-01-02, timestamps keep the time part.
func formatISODate(v string) string {
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return v
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
