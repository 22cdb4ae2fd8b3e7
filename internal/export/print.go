package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mjschmitt/sheetview/internal/model"
)

// PrintOptions shape the paginated print layout.
type PrintOptions struct {
	PageRows int
	PageCols int
	// CellWidth caps each printed column's display width.
	CellWidth int
}

// DefaultPrintOptions fits a portrait page of monospaced text.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{PageRows: 48, PageCols: 8, CellWidth: 14}
}

// WritePrint renders a sheet as paginated plain text: a header per page, a
// column-letter ruler, and fixed-width cells with no interactive chrome.
// Wide pages continue on subsequent page blocks left to right, then down.
func (e *Engine) WritePrint(ctx context.Context, w io.Writer, sheetID int, opts PrintOptions) error {
	sheet, err := e.sheet(sheetID)
	if err != nil {
		return err
	}
	if opts.PageRows <= 0 || opts.PageCols <= 0 {
		opts = DefaultPrintOptions()
	}
	if opts.CellWidth <= 0 {
		opts.CellWidth = 14
	}
	if err := e.materialize(ctx, sheet); err != nil {
		return err
	}

	page := 0
	for rowStart := 0; rowStart < sheet.MaxRow; rowStart += opts.PageRows {
		for colStart := 0; colStart < sheet.MaxCol; colStart += opts.PageCols {
			page++
			rowEnd := min(rowStart+opts.PageRows, sheet.MaxRow)
			colEnd := min(colStart+opts.PageCols, sheet.MaxCol)
			if err := e.printPage(w, sheet, page, rowStart, rowEnd, colStart, colEnd, opts.CellWidth); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrExportFailure, err)
			}
		}
	}
	return nil
}

func (e *Engine) printPage(w io.Writer, sheet model.Sheet, page, rowStart, rowEnd, colStart, colEnd, cellWidth int) error {
	var b strings.Builder
	if page > 1 {
		b.WriteString("\f")
	}
	fmt.Fprintf(&b, "%s — %s — page %d\n", e.workbook.Name, sheet.Name, page)

	// Column ruler.
	b.WriteString(strings.Repeat(" ", 8))
	for col := colStart; col < colEnd; col++ {
		b.WriteString(pad(model.ColName(col), cellWidth))
	}
	b.WriteString("\n")

	for row := rowStart; row < rowEnd; row++ {
		b.WriteString(pad(fmt.Sprintf("%d", row+1), 8))
		for col := colStart; col < colEnd; col++ {
			b.WriteString(pad(e.display(sheet.ID, row, col), cellWidth))
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// pad truncates or fills a value to exactly width display columns,
// accounting for wide runes.
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width-1 {
		s = runewidth.Truncate(s, width-1, "…")
	}
	return runewidth.FillRight(s, width)
}
