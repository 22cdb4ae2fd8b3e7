package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mjschmitt/sheetview/internal/model"
)

// Options bound what the parser is willing to ingest. Zero values fall back
// to the defaults below.
type Options struct {
	ChunkRows int
	ChunkCols int
	// MaxRows/MaxCols are the dimension ceiling: a sheet declaring more is
	// rejected with ErrOversizedFile before any cell ingestion is attempted.
	MaxRows int
	MaxCols int
	// MaxFileBytes caps the accepted container size. 0 means unlimited.
	MaxFileBytes int64
}

// DefaultOptions uses the standard Excel sheet limits as the ceiling.
func DefaultOptions() Options {
	return Options{
		ChunkRows: model.DefaultChunkRows,
		ChunkCols: model.DefaultChunkCols,
		MaxRows:   1048576,
		MaxCols:   16384,
	}
}

func (o Options) normalized() Options {
	if o.ChunkRows <= 0 {
		o.ChunkRows = model.DefaultChunkRows
	}
	if o.ChunkCols <= 0 {
		o.ChunkCols = model.DefaultChunkCols
	}
	if o.MaxRows <= 0 {
		o.MaxRows = 1048576
	}
	if o.MaxCols <= 0 {
		o.MaxCols = 16384
	}
	return o
}

const (
	relNSSheet = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	vbaPart    = "xl/vbaProject.bin"
)

type sheetMeta struct {
	model.Sheet
	path string // zip entry holding the sheet XML
}

// Document is an opened workbook container. Opening validates structure and
// reads the small global parts (workbook, relationships, shared strings); the
// per-sheet cell data stays compressed in the zip until chunks are requested.
type Document struct {
	filename string
	zr       *zip.Reader
	opts     Options
	sheets   []*sheetMeta
	shared   []string
	macros   bool
}

// Open validates the container and reads the workbook skeleton. The blob is
// not decompressed beyond the workbook/rels/sharedStrings parts.
func Open(data []byte, filename string, opts Options) (*Document, error) {
	opts = opts.normalized()
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if opts.MaxFileBytes > 0 && int64(len(data)) > opts.MaxFileBytes {
		return nil, fmt.Errorf("%w: file is %d bytes (limit %d)", ErrOversizedFile, len(data), opts.MaxFileBytes)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corruptf("open container: %v", err)
	}
	d := &Document{filename: filename, zr: zr, opts: opts}

	wb := readZipPart(zr, "xl/workbook.xml")
	if wb == nil {
		return nil, corruptf("missing xl/workbook.xml")
	}
	entries, err := parseWorkbookPart(wb)
	if err != nil {
		return nil, corruptf("workbook part: %v", err)
	}
	if len(entries) == 0 {
		return nil, corruptf("workbook declares no sheets")
	}
	rels := parseRelationshipsPart(readZipPart(zr, "xl/_rels/workbook.xml.rels"))
	for i, e := range entries {
		path := ""
		if rel, ok := rels[e.rid]; ok {
			path = normalizeRelPath(rel)
		}
		if path == "" {
			path = fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		}
		sm := &sheetMeta{Sheet: model.Sheet{ID: i, Name: e.name}, path: path}
		rows, cols, err := d.readDeclaredDims(path)
		if err != nil {
			return nil, err
		}
		sm.MaxRow, sm.MaxCol = rows, cols
		if err := d.checkCeiling(sm.Name, rows, cols); err != nil {
			return nil, err
		}
		d.sheets = append(d.sheets, sm)
	}
	d.shared = parseSharedStringsPart(readZipPart(zr, "xl/sharedStrings.xml"))
	if readZipPart(zr, vbaPart) != nil || ext == ".xlsm" {
		d.macros = true
	}
	return d, nil
}

// Filename returns the declared name the document was opened with.
func (d *Document) Filename() string { return d.filename }

// HasMacros reports whether the container carries a VBA project or was
// declared macro-enabled by extension.
func (d *Document) HasMacros() bool { return d.macros }

// Sheets returns the discovered sheet list in file order. Dimensions reflect
// the declared bounds, which streaming may still grow.
func (d *Document) Sheets() []model.Sheet {
	out := make([]model.Sheet, len(d.sheets))
	for i, s := range d.sheets {
		out[i] = s.Sheet
	}
	return out
}

// ChunkSize returns the tile dimensions the document was opened with.
func (d *Document) ChunkSize() (rows, cols int) {
	return d.opts.ChunkRows, d.opts.ChunkCols
}

func (d *Document) checkCeiling(sheet string, rows, cols int) error {
	if rows > d.opts.MaxRows || cols > d.opts.MaxCols {
		return fmt.Errorf("%w: sheet %q declares %dx%d (ceiling %dx%d)",
			ErrOversizedFile, sheet, rows, cols, d.opts.MaxRows, d.opts.MaxCols)
	}
	return nil
}

// readDeclaredDims scans a sheet part only as far as its <dimension> element
// so oversized sheets are rejected before any cell data is decompressed.
func (d *Document) readDeclaredDims(path string) (rows, cols int, err error) {
	rc, err := openZipPart(d.zr, path)
	if err != nil {
		return 0, 0, corruptf("missing sheet part %s", path)
	}
	defer rc.Close()
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return 0, 0, nil
			}
			return 0, 0, corruptf("sheet part %s: %v", path, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "dimension":
			for _, a := range se.Attr {
				if a.Name.Local == "ref" {
					return dimsFromRef(a.Value)
				}
			}
			return 0, 0, nil
		case "sheetData":
			// No dimension element; bounds are learned while streaming.
			return 0, 0, nil
		}
	}
}

// dimsFromRef converts a dimension ref like "A1:F100" into (rows, cols).
func dimsFromRef(ref string) (rows, cols int, err error) {
	parts := strings.Split(ref, ":")
	last := parts[len(parts)-1]
	row, col, ok := model.ParseRef(last)
	if !ok {
		return 0, 0, nil
	}
	return row + 1, col + 1, nil
}

type wbEntry struct {
	name string
	rid  string
}

func parseWorkbookPart(data []byte) ([]wbEntry, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []wbEntry
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var e wbEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				e.name = a.Value
			case "id":
				e.rid = a.Value // r: namespace
			}
		}
		out = append(out, e)
	}
}

func parseRelationshipsPart(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func parseSharedStringsPart(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write([]byte(se))
			}
		}
	}
}

func readZipPart(zr *zip.Reader, name string) []byte {
	rc, err := openZipPart(zr, name)
	if err != nil {
		return nil
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return b
}

func openZipPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, io.EOF
}

// normalizeRelPath converts relationship targets to zip entry paths.
// Targets may carry a leading slash or be relative to the xl/ directory.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}
