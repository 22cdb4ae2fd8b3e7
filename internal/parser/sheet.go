package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/mjschmitt/sheetview/internal/model"
)

// Parse streams the whole workbook through the sink, chunk by chunk. It never
// materializes more than one row band of cells at a time; the sink is invoked
// between chunks so the caller stays responsive and can cancel cooperatively.
func (d *Document) Parse(ctx context.Context, sink Sink) error {
	for _, s := range d.sheets {
		if err := sink(SheetDiscovered{Sheet: s.Sheet}); err != nil {
			return err
		}
	}
	if d.macros {
		if err := sink(MacrosDetected{Part: vbaPart}); err != nil {
			return err
		}
	}
	for _, s := range d.sheets {
		if err := d.streamSheet(ctx, s, sink); err != nil {
			var retryable bool
			if pe, ok := err.(*ParseError); ok {
				retryable = pe.Retryable
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if serr := sink(ParseFailed{Err: err, Retryable: retryable}); serr != nil {
				return serr
			}
			return err
		}
	}
	if err := sink(ParseComplete{}); err != nil {
		return err
	}
	return nil
}

// streamSheet walks one sheet part row by row, buffering cells for the
// current row band and flushing completed bands as ChunkReady events.
func (d *Document) streamSheet(ctx context.Context, s *sheetMeta, sink Sink) error {
	rc, err := openZipPart(d.zr, s.path)
	if err != nil {
		return corruptf("missing sheet part %s", s.path)
	}
	defer rc.Close()

	sc := newCellScanner(xml.NewDecoder(rc), d.shared)
	band := -1
	buf := map[model.ChunkKey][]model.Cell{}

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		keys := make([]model.ChunkKey, 0, len(buf))
		for k := range buf {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].ColBand < keys[j].ColBand })
		for _, k := range keys {
			cells := buf[k]
			sort.Slice(cells, func(i, j int) bool {
				if cells[i].Row != cells[j].Row {
					return cells[i].Row < cells[j].Row
				}
				return cells[i].Col < cells[j].Col
			})
			if err := sink(ChunkReady{SheetID: s.ID, Key: k, Cells: cells}); err != nil {
				return err
			}
			delete(buf, k)
		}
		return ctx.Err()
	}

	for {
		cell, ok, err := sc.next()
		if err != nil {
			return corruptf("sheet %q: %v", s.Name, err)
		}
		if !ok {
			break
		}
		s.Grow(cell.Row, cell.Col)
		if err := d.checkCeiling(s.Name, s.MaxRow, s.MaxCol); err != nil {
			return err
		}
		rb := cell.Row / d.opts.ChunkRows
		if rb != band {
			if err := flush(); err != nil {
				return err
			}
			band = rb
		}
		k := model.ChunkKeyAt(cell.Row, cell.Col, d.opts.ChunkRows, d.opts.ChunkCols)
		buf[k] = append(buf[k], cell)
	}
	return flush()
}

// ReadChunk extracts the cells of a single tile. It re-scans the sheet part,
// skipping rows outside the band, and stops as soon as the band is passed.
func (d *Document) ReadChunk(ctx context.Context, sheetID int, key model.ChunkKey) ([]model.Cell, error) {
	if sheetID < 0 || sheetID >= len(d.sheets) {
		return nil, fmt.Errorf("unknown sheet id %d", sheetID)
	}
	s := d.sheets[sheetID]
	rc, err := openZipPart(d.zr, s.path)
	if err != nil {
		return nil, corruptf("missing sheet part %s", s.path)
	}
	defer rc.Close()

	rowLo := key.RowBand * d.opts.ChunkRows
	rowHi := rowLo + d.opts.ChunkRows
	colLo := key.ColBand * d.opts.ChunkCols
	colHi := colLo + d.opts.ChunkCols

	sc := newCellScanner(xml.NewDecoder(rc), d.shared)
	var cells []model.Cell
	n := 0
	for {
		cell, ok, err := sc.next()
		if err != nil {
			return nil, corruptf("sheet %q: %v", s.Name, err)
		}
		if !ok {
			break
		}
		if cell.Row >= rowHi {
			break
		}
		n++
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if cell.Row < rowLo || cell.Col < colLo || cell.Col >= colHi {
			continue
		}
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells, nil
}

// cellScanner yields parsed cells from a worksheet part in document order.
type cellScanner struct {
	dec    *xml.Decoder
	shared []string
	row    int // current 0-based row from the last <row r="..">
	col    int // next implicit column when cells omit their ref
}

func newCellScanner(dec *xml.Decoder, shared []string) *cellScanner {
	return &cellScanner{dec: dec, shared: shared, row: -1}
}

func (sc *cellScanner) next() (model.Cell, bool, error) {
	for {
		tok, err := sc.dec.Token()
		if err != nil {
			if err == io.EOF {
				return model.Cell{}, false, nil
			}
			return model.Cell{}, false, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "row":
			sc.row++
			sc.col = 0
			for _, a := range se.Attr {
				if a.Name.Local == "r" {
					if n := atoiSafe(a.Value); n > 0 {
						sc.row = n - 1
					}
				}
			}
		case "c":
			cell, keep, err := sc.readCell(se)
			if err != nil {
				return model.Cell{}, false, err
			}
			if keep {
				return cell, true, nil
			}
		}
	}
}

// readCell consumes one <c> element including its children.
func (sc *cellScanner) readCell(se xml.StartElement) (model.Cell, bool, error) {
	var refAttr, typAttr string
	style := -1
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "r":
			refAttr = a.Value
		case "t":
			typAttr = a.Value
		case "s":
			style = atoiSafe(a.Value)
		}
	}
	row, col := sc.row, sc.col
	if refAttr != "" {
		if r, c, ok := model.ParseRef(refAttr); ok {
			row, col = r, c
		}
	}
	sc.col = col + 1

	var value, formula, inline string
	var hasValue, hasInline bool
	for {
		tok, err := sc.dec.Token()
		if err != nil {
			return model.Cell{}, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				value, err = sc.readText("v")
				hasValue = true
			case "f":
				formula, err = sc.readText("f")
			case "t":
				// Rich-text inline strings carry one <t> per run.
				var run string
				run, err = sc.readText("t")
				inline += run
				hasInline = true
			}
			if err != nil {
				return model.Cell{}, false, err
			}
		case xml.EndElement:
			if t.Name.Local == "c" {
				cell, keep := decodeCell(row, col, typAttr, style, value, hasValue, formula, inline, hasInline, sc.shared)
				return cell, keep, nil
			}
		}
	}
}

func (sc *cellScanner) readText(tag string) (string, error) {
	var b []byte
	for {
		tok, err := sc.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b = append(b, t...)
		case xml.EndElement:
			if t.Name.Local == tag {
				return string(b), nil
			}
		}
	}
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
