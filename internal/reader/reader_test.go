package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/polog/internal/model"
)

func xlsxBytes(t *testing.T, sheetName string, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	t.Parallel()
	data := xlsxBytes(t, "Orders", [][]string{
		{"OrderDate", "PONumber", "Total"},
		{"2023-01-01", "PO1", "100"},
		{"", "", ""},
		{"2023-01-02", "PO2", "200"},
	})

	tbl, err := Decode(model.Source{Name: "orders.xlsx", Data: data}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "orders.xlsx", tbl.Source)
	assert.Equal(t, []string{"OrderDate", "PONumber", "Total"}, tbl.Header)
	// Blank rows are skipped.
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"2023-01-01", "PO1", "100"}, tbl.Rows[0])
}

func TestDecodeXLSXSheetSelection(t *testing.T) {
	t.Parallel()
	f := xlsx.NewFile()
	for _, name := range []string{"First", "Second"} {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		row := sheet.AddRow()
		row.AddCell().SetString("Header")
		row = sheet.AddRow()
		row.AddCell().SetString(name)
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	src := model.Source{Name: "multi.xlsx", Data: buf.Bytes()}

	tbl, err := Decode(src, Options{SheetName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "Second", tbl.Rows[0][0])

	tbl, err = Decode(src, Options{SheetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, "Second", tbl.Rows[0][0])

	_, err = Decode(src, Options{SheetName: "Missing"})
	assert.Error(t, err)

	_, err = Decode(src, Options{SheetIndex: 5})
	assert.Error(t, err)
}

func TestDecodeDelimited(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{"comma", "OrderDate,PONumber,Total\n2023-01-01,PO1,100\n"},
		{"semicolon", "OrderDate;PONumber;Total\n2023-01-01;PO1;100\n"},
		{"tab", "OrderDate\tPONumber\tTotal\n2023-01-01\tPO1\t100\n"},
		{"pipe", "OrderDate|PONumber|Total\n2023-01-01|PO1|100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl, err := Decode(model.Source{Name: tt.name, Data: []byte(tt.data)}, Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{"OrderDate", "PONumber", "Total"}, tbl.Header)
			require.Len(t, tbl.Rows, 1)
			assert.Equal(t, []string{"2023-01-01", "PO1", "100"}, tbl.Rows[0])
		})
	}
}

func TestDecodeDelimitedRaggedRows(t *testing.T) {
	t.Parallel()
	data := "A,B,C\n1,2\n3,4,5,6\n"

	tbl, err := Decode(model.Source{Name: "ragged.csv", Data: []byte(data)}, Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows[0])
	assert.Equal(t, []string{"3", "4", "5", "6"}, tbl.Rows[1])
}

func TestDecodeEmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Decode(model.Source{Name: "empty.csv", Data: nil}, Options{})
	assert.Error(t, err)

	_, err = Decode(model.Source{Name: "blank.csv", Data: []byte("\n\n")}, Options{})
	assert.Error(t, err)
}

func TestDecodeAllSkipsBadSources(t *testing.T) {
	t.Parallel()
	sources := []model.Source{
		{Name: "good.csv", Data: []byte("A,B\n1,2\n")},
		{Name: "empty.csv", Data: nil},
		{Name: "also-good.csv", Data: []byte("A,B\n3,4\n")},
	}

	tables, errs := DecodeAll(sources, Options{})
	assert.Len(t, tables, 2)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "empty.csv")
}

func TestDetectDelimiter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc\n")))
	assert.Equal(t, '|', detectDelimiter([]byte("a|b|c\n")))
	// No separator at all defaults to comma.
	assert.Equal(t, ',', detectDelimiter([]byte("justoneword\n")))
}
