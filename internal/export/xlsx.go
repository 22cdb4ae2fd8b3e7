package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mjschmitt/sheetview/internal/model"
)

// WriteWorkbookXLSX writes the workbook as XLSX. The model never mutates
// cells, so the original container is preserved byte for byte.
func (e *Engine) WriteWorkbookXLSX(w io.Writer) error {
	if len(e.workbook.Original) == 0 {
		return fmt.Errorf("%w: original container unavailable", ErrExportFailure)
	}
	if _, err := w.Write(e.workbook.Original); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// WriteSheetXLSX rebuilds a single sheet as a standalone XLSX workbook.
// Formula cells carry both the formula and the cached display value; no
// recomputation happens.
func (e *Engine) WriteSheetXLSX(ctx context.Context, w io.Writer, sheetID int) error {
	sheet, err := e.sheet(sheetID)
	if err != nil {
		return err
	}
	if err := e.materialize(ctx, sheet); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	const defaultSheet = "Sheet1"
	if sheet.Name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
			return fmt.Errorf("%w: rename sheet: %v", ErrExportFailure, err)
		}
	}

	rows, cols := e.store.ChunkSize()
	keys := model.ChunkKeysInRange(
		model.Range{Start: 0, End: sheet.MaxRow},
		model.Range{Start: 0, End: sheet.MaxCol},
		rows, cols,
	)
	for _, key := range keys {
		cells, ok := e.store.ChunkCells(sheetID, key)
		if !ok {
			continue
		}
		for _, c := range cells {
			if err := writeCell(f, sheet.Name, c); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrExportFailure, err)
		}
	}

	// Pin the declared dimensions so trailing blank rows/columns survive.
	if sheet.MaxRow > 0 && sheet.MaxCol > 0 {
		dim := "A1:" + model.CellRef(sheet.MaxRow-1, sheet.MaxCol-1)
		if err := f.SetSheetDimension(sheet.Name, dim); err != nil {
			return fmt.Errorf("%w: set dimension: %v", ErrExportFailure, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

func writeCell(f *excelize.File, sheetName string, c model.Cell) error {
	ref, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
	if err != nil {
		return fmt.Errorf("%w: cell (%d,%d): %v", ErrExportFailure, c.Row, c.Col, err)
	}
	switch c.Type {
	case model.CellNumber:
		if n, err := strconv.ParseFloat(c.Raw, 64); err == nil {
			return wrapSet(f.SetCellValue(sheetName, ref, n), ref)
		}
		return wrapSet(f.SetCellStr(sheetName, ref, c.Display), ref)
	case model.CellFormula:
		formula := strings.TrimPrefix(c.Raw, "=")
		if err := f.SetCellFormula(sheetName, ref, formula); err != nil {
			return wrapSet(err, ref)
		}
		return wrapSet(f.SetCellValue(sheetName, ref, c.Display), ref)
	case model.CellBlank:
		return nil
	default:
		return wrapSet(f.SetCellStr(sheetName, ref, c.Display), ref)
	}
}

func wrapSet(err error, ref string) error {
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrExportFailure, ref, err)
	}
	return nil
}
