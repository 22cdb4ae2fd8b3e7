package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/parser"
	"github.com/mjschmitt/sheetview/internal/store"
	"github.com/mjschmitt/sheetview/internal/viewer"
	"github.com/mjschmitt/sheetview/internal/viewport"
)

func parserOptions() parser.Options {
	opts := parser.DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.ChunkRows > 0 {
		opts.ChunkRows = cfg.ChunkRows
	}
	if cfg.ChunkCols > 0 {
		opts.ChunkCols = cfg.ChunkCols
	}
	if cfg.MaxRows > 0 {
		opts.MaxRows = cfg.MaxRows
	}
	if cfg.MaxCols > 0 {
		opts.MaxCols = cfg.MaxCols
	}
	if cfg.MaxFileMB > 0 {
		opts.MaxFileBytes = cfg.MaxFileBytes()
	}
	return opts
}

func viewerConfig() viewer.Config {
	vc := viewer.Config{Parser: parserOptions(), Viewport: viewport.DefaultConfig()}
	if cfg != nil {
		if cfg.RowHeight > 0 {
			vc.Viewport.RowHeight = cfg.RowHeight
		}
		if cfg.ColWidth > 0 {
			vc.Viewport.ColWidth = cfg.ColWidth
		}
		if cfg.OverscanRows > 0 {
			vc.Viewport.OverscanRows = cfg.OverscanRows
		}
		if cfg.OverscanCols > 0 {
			vc.Viewport.OverscanCols = cfg.OverscanCols
		}
		vc.ChunkTimeout = cfg.ChunkTimeout()
	}
	return vc
}

// openWorkbook parses the whole file into a fresh store, returning the
// populated workbook model. Commands that need every chunk (export, search)
// use this; the interactive viewer streams lazily instead.
func openWorkbook(ctx context.Context, path string) (*model.Workbook, *store.Store, *parser.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read file: %w", err)
	}
	opts := parserOptions()
	doc, err := parser.Open(data, filepath.Base(path), opts)
	if err != nil {
		return nil, nil, nil, err
	}
	wb := model.NewWorkbook(filepath.Base(path))
	wb.Original = data
	wb.HasMacros = doc.HasMacros()
	st := store.New(doc, opts.ChunkRows, opts.ChunkCols)

	err = doc.Parse(ctx, func(ev parser.Event) error {
		switch e := ev.(type) {
		case parser.SheetDiscovered:
			s := e.Sheet
			wb.Sheets = append(wb.Sheets, &s)
		case parser.ChunkReady:
			st.ApplyChunk(e.SheetID, e.Key, e.Cells)
			if s := wb.SheetByID(e.SheetID); s != nil {
				for _, cell := range e.Cells {
					s.Grow(cell.Row, cell.Col)
				}
			}
		case parser.MacrosDetected:
			fmt.Fprintln(os.Stderr, "⚠ Warning: workbook contains macros; macros are not executed")
		case parser.ParseFailed:
			return e.Err
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return wb, st, doc, nil
}

// resolveSheet maps a --sheet flag value (name or 1-based index) to an id.
func resolveSheet(wb *model.Workbook, arg string) (int, error) {
	if arg == "" {
		if len(wb.Sheets) == 0 {
			return 0, fmt.Errorf("workbook has no sheets")
		}
		return wb.Sheets[0].ID, nil
	}
	for _, s := range wb.Sheets {
		if s.Name == arg {
			return s.ID, nil
		}
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(wb.Sheets) {
		return wb.Sheets[n-1].ID, nil
	}
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return 0, fmt.Errorf("sheet %q not found; available: %v", arg, names)
}
