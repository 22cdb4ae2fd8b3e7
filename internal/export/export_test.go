package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/mjschmitt/sheetview/internal/model"
	"github.com/mjschmitt/sheetview/internal/store"
)

// gridLoader serves a fixed cell list chunked on demand, counting loads.
type gridLoader struct {
	cells     []model.Cell
	chunkRows int
	chunkCols int
	calls     int
	err       error
}

func (g *gridLoader) ReadChunk(ctx context.Context, sheetID int, key model.ChunkKey) ([]model.Cell, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	var out []model.Cell
	for _, c := range g.cells {
		if model.ChunkKeyAt(c.Row, c.Col, g.chunkRows, g.chunkCols) == key {
			out = append(out, c)
		}
	}
	return out, nil
}

func str(row, col int, v string) model.Cell {
	return model.Cell{Row: row, Col: col, Raw: v, Display: v, Type: model.CellString}
}

func num(row, col int, v string) model.Cell {
	return model.Cell{Row: row, Col: col, Raw: v, Display: v, Type: model.CellNumber}
}

func newEngine(t *testing.T, cells []model.Cell, maxRow, maxCol int) (*Engine, *gridLoader) {
	t.Helper()
	loader := &gridLoader{cells: cells, chunkRows: 4, chunkCols: 4}
	st := store.New(loader, 4, 4)
	wb := model.NewWorkbook("book.xlsx")
	wb.Sheets = append(wb.Sheets, &model.Sheet{ID: 0, Name: "Data", MaxRow: maxRow, MaxCol: maxCol})
	return NewEngine(st, wb), loader
}

func TestWriteCSVQuotingAndShape(t *testing.T) {
	cells := []model.Cell{
		str(0, 0, "plain"),
		str(0, 1, "comma, inside"),
		str(1, 0, `quote " inside`),
		str(1, 1, "line\nbreak"),
	}
	// Declared dims larger than the data: trailing blanks must survive.
	eng, _ := newEngine(t, cells, 4, 3)
	var buf bytes.Buffer
	if err := eng.WriteCSV(context.Background(), &buf, 0); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d rows, want 4 (declared)", len(records))
	}
	for i, rec := range records {
		if len(rec) != 3 {
			t.Fatalf("row %d has %d fields, want 3 (declared)", i, len(rec))
		}
	}
	if records[0][1] != "comma, inside" || records[1][0] != `quote " inside` || records[1][1] != "line\nbreak" {
		t.Fatalf("values mangled: %v", records)
	}
	if records[3][0] != "" || records[3][2] != "" {
		t.Fatalf("trailing blanks not empty: %v", records[3])
	}
}

func TestWriteCSVUnknownSheet(t *testing.T) {
	eng, _ := newEngine(t, nil, 1, 1)
	var buf bytes.Buffer
	if err := eng.WriteCSV(context.Background(), &buf, 42); !errors.Is(err, ErrExportFailure) {
		t.Fatalf("expected ErrExportFailure, got %v", err)
	}
}

func TestWriteCSVLoaderFailureDoesNotTearDown(t *testing.T) {
	eng, loader := newEngine(t, []model.Cell{str(0, 0, "x")}, 8, 1)
	loader.err = errors.New("band unreadable")
	var buf bytes.Buffer
	if err := eng.WriteCSV(context.Background(), &buf, 0); !errors.Is(err, ErrExportFailure) {
		t.Fatalf("expected ErrExportFailure, got %v", err)
	}
	// Recover the loader: the same engine exports fine afterwards.
	loader.err = nil
	buf.Reset()
	if err := eng.WriteCSV(context.Background(), &buf, 0); err != nil {
		t.Fatalf("export after recovery: %v", err)
	}
}

func TestCSVRangeLoadsOnlyIntersectingChunks(t *testing.T) {
	var cells []model.Cell
	for row := 0; row < 16; row++ {
		cells = append(cells, num(row, 0, "1"))
	}
	eng, loader := newEngine(t, cells, 16, 1)
	var buf bytes.Buffer
	err := eng.CSVRange(context.Background(), &buf, 0, model.Range{Start: 0, End: 4}, model.Range{Start: 0, End: 1})
	if err != nil {
		t.Fatalf("csv range: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("loaded %d chunks for a one-chunk range", loader.calls)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d rows, want 4", len(lines))
	}
}

func TestWriteCSVProgressReporting(t *testing.T) {
	var cells []model.Cell
	for row := 0; row < 8; row++ {
		cells = append(cells, num(row, 0, "1"))
	}
	eng, _ := newEngine(t, cells, 8, 1)
	var steps []int
	eng.OnProgress(func(done, total int) {
		if total != 2 {
			t.Fatalf("total = %d, want 2", total)
		}
		steps = append(steps, done)
	})
	var buf bytes.Buffer
	if err := eng.WriteCSV(context.Background(), &buf, 0); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if len(steps) != 2 || steps[0] != 1 || steps[1] != 2 {
		t.Fatalf("progress steps = %v", steps)
	}
}

func TestWritePrintPagination(t *testing.T) {
	var cells []model.Cell
	for row := 0; row < 5; row++ {
		for col := 0; col < 3; col++ {
			cells = append(cells, str(row, col, model.CellRef(row, col)))
		}
	}
	eng, _ := newEngine(t, cells, 5, 3)
	var buf bytes.Buffer
	opts := PrintOptions{PageRows: 2, PageCols: 2, CellWidth: 8}
	if err := eng.WritePrint(context.Background(), &buf, 0, opts); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	// 5 rows / 2 per page = 3 row blocks, 3 cols / 2 per page = 2 col blocks.
	if got := strings.Count(out, "page "); got != 6 {
		t.Fatalf("got %d pages, want 6", got)
	}
	if got := strings.Count(out, "\f"); got != 5 {
		t.Fatalf("got %d page breaks, want 5", got)
	}
	if !strings.Contains(out, "book.xlsx — Data — page 1") {
		t.Fatalf("missing page header:\n%s", out)
	}
	// Second column block's ruler starts at column C.
	if !strings.Contains(out, "C") {
		t.Fatalf("missing continued column ruler:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("print output contains terminal escapes")
	}
}

func TestWritePrintTruncatesWideValues(t *testing.T) {
	eng, _ := newEngine(t, []model.Cell{str(0, 0, "a very long value that cannot fit")}, 1, 1)
	var buf bytes.Buffer
	if err := eng.WritePrint(context.Background(), &buf, 0, PrintOptions{PageRows: 10, PageCols: 10, CellWidth: 10}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "…") {
		t.Fatalf("long value not truncated:\n%s", buf.String())
	}
}

func TestWriteWorkbookXLSXVerbatim(t *testing.T) {
	eng, _ := newEngine(t, nil, 1, 1)
	original := []byte("PK\x03\x04 pretend container bytes")
	eng.workbook.Original = original
	var buf bytes.Buffer
	if err := eng.WriteWorkbookXLSX(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Fatalf("container not preserved byte for byte")
	}

	eng.workbook.Original = nil
	if err := eng.WriteWorkbookXLSX(&buf); !errors.Is(err, ErrExportFailure) {
		t.Fatalf("expected ErrExportFailure without original bytes, got %v", err)
	}
}

func TestWriteSheetXLSXRoundTrip(t *testing.T) {
	cells := []model.Cell{
		str(0, 0, "title"),
		num(1, 0, "42.5"),
		{Row: 2, Col: 0, Raw: "=SUM(A2:A2)", Display: "42.5", Type: model.CellFormula},
	}
	eng, _ := newEngine(t, cells, 5, 2)
	var buf bytes.Buffer
	if err := eng.WriteSheetXLSX(context.Background(), &buf, 0); err != nil {
		t.Fatalf("write sheet xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Data" {
		t.Fatalf("sheets = %v, want [Data]", got)
	}
	if v, _ := f.GetCellValue("Data", "A1"); v != "title" {
		t.Fatalf("A1 = %q", v)
	}
	if v, _ := f.GetCellValue("Data", "A2"); v != "42.5" {
		t.Fatalf("A2 = %q", v)
	}
	// The formula survives with its cached value; nothing recomputes.
	if formula, _ := f.GetCellFormula("Data", "A3"); formula != "SUM(A2:A2)" {
		t.Fatalf("A3 formula = %q", formula)
	}
	if dim, _ := f.GetSheetDimension("Data"); dim != "A1:B5" {
		t.Fatalf("dimension = %q, want A1:B5", dim)
	}
}
