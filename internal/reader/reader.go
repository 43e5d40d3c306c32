// Package reader decodes raw purchase-order extracts into untyped tables.
// Spreadsheet input is tried first; delimited text is the fallback.
package reader

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/polog/internal/model"
)

// Options configures decoding of a single source.
type Options struct {
	SheetIndex int    // xlsx sheet to read, default 0
	SheetName  string // if set, overrides SheetIndex
	Delimiter  rune   // delimited-text separator; 0 = auto-detect
}

// Decode parses one (name, bytes) source into a RawTable. XLSX is the
// primary format; anything that is not a valid workbook falls back to the
// delimited-text parser. The first non-blank row is the header.
func Decode(src model.Source, opts Options) (*model.RawTable, error) {
	if len(src.Data) == 0 {
		return nil, eris.Errorf("reader: %s: empty input", src.Name)
	}

	if f, err := xlsx.OpenBinary(src.Data); err == nil {
		return decodeSheet(src.Name, f, opts)
	}

	return decodeDelimited(src.Name, src.Data, opts)
}

// DecodeAll decodes every source. Sources that cannot be read are skipped
// and reported in the returned error slice; they are not fatal to the batch.
func DecodeAll(sources []model.Source, opts Options) ([]*model.RawTable, []error) {
	var tables []*model.RawTable
	var errs []error
	for _, src := range sources {
		t, err := Decode(src, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, t)
	}
	return tables, errs
}

func decodeSheet(name string, f *xlsx.File, opts Options) (*model.RawTable, error) {
	sheet, err := pickSheet(name, f, opts)
	if err != nil {
		return nil, err
	}

	var header []string
	var rows [][]string
	for _, row := range sheet.Rows {
		cells := rowToStrings(row)
		if allBlank(cells) {
			continue
		}
		if header == nil {
			header = trimAll(cells)
			continue
		}
		rows = append(rows, cells)
	}
	if header == nil {
		return nil, eris.Errorf("reader: %s: sheet has no header row", name)
	}

	return &model.RawTable{Source: name, Header: header, Rows: rows}, nil
}

func pickSheet(name string, f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("reader: %s: sheet %q not found", name, opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("reader: %s: sheet index %d out of range (file has %d sheets)", name, opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func decodeDelimited(name string, data []byte, opts Options) (*model.RawTable, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(data)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // allow variable fields

	var header []string
	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "reader: %s: read delimited row", name)
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		if allBlank(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}
	if header == nil {
		return nil, eris.Errorf("reader: %s: no header row", name)
	}

	return &model.RawTable{Source: name, Header: header, Rows: rows}, nil
}

// detectDelimiter picks the candidate separator that occurs most often in
// the first line.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		n := bytes.Count(line, []byte(string(c)))
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
