package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mjschmitt/sheetview/internal/model"
)

// WriteCSV serializes one sheet as UTF-8 CSV with RFC 4180 quoting. The
// declared dimensions drive the output: trailing blank rows and columns
// referenced by MaxRow/MaxCol are emitted as empty fields, preserving the
// sheet's declared shape.
func (e *Engine) WriteCSV(ctx context.Context, w io.Writer, sheetID int) error {
	sheet, err := e.sheet(sheetID)
	if err != nil {
		return err
	}
	if err := e.materialize(ctx, sheet); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	record := make([]string, sheet.MaxCol)
	for row := 0; row < sheet.MaxRow; row++ {
		for col := 0; col < sheet.MaxCol; col++ {
			record[col] = e.display(sheetID, row, col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: write row %d: %v", ErrExportFailure, row+1, err)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrExportFailure, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// CSVRange serializes a rectangular cell range without forcing the rest of
// the sheet, for clipboard-style host requests. Chunks intersecting the
// range load on demand.
func (e *Engine) CSVRange(ctx context.Context, w io.Writer, sheetID int, rows, cols model.Range) error {
	sheet, err := e.sheet(sheetID)
	if err != nil {
		return err
	}
	rows = rows.Clamp(sheet.MaxRow)
	cols = cols.Clamp(sheet.MaxCol)
	if err := e.store.EnsureRange(ctx, sheetID, rows, cols); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	cw := csv.NewWriter(w)
	record := make([]string, cols.Len())
	for row := rows.Start; row < rows.End; row++ {
		for i, col := 0, cols.Start; col < cols.End; i, col = i+1, col+1 {
			record[i] = e.display(sheetID, row, col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: write row %d: %v", ErrExportFailure, row+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}
