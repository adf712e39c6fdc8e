package table

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Basic(t *testing.T) {
	input := `region,month,kwh
north,1,10.5
south,1,7
north,2,3.25
`
	tbl, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)

	rows, cols := tbl.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"region", "month", "kwh"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Index("kwh"))
	assert.Equal(t, -1, tbl.Index("missing"))

	v, err := tbl.Number(0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.5, v, 1e-9)
}

func TestRead_SemicolonDecimalComma(t *testing.T) {
	input := "Giorno;F1\n01/01/2023;1,23\n02/01/2023;\n"
	tbl, err := Read(strings.NewReader(input), Options{Delimiter: ';', Decimal: ','})
	require.NoError(t, err)

	v, err := tbl.Number(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.23, v, 1e-9)

	v, err = tbl.Number(1, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestRead_ShortRowPadded(t *testing.T) {
	tbl, err := Read(strings.NewReader("a,b,c\n1\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", ""}, tbl.Rows[0])
}

func TestRead_LongRowRejected(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2,3\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNumber_Invalid(t *testing.T) {
	tbl, err := Read(strings.NewReader("name,value\nx,abc\n"), Options{})
	require.NoError(t, err)

	_, err = tbl.Number(0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"value"`)
}

func TestHeadTail(t *testing.T) {
	tbl := &Table{Columns: []string{"n"}}
	for _, s := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		tbl.Rows = append(tbl.Rows, []string{s})
	}

	assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, tbl.Head(3))
	assert.Equal(t, [][]string{{"6"}, {"7"}}, tbl.Tail(2))
	assert.Len(t, tbl.Head(100), 7)
	assert.Len(t, tbl.Tail(100), 7)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0o644))

	tbl, err := ReadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.Rows)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, []string{"day", "kwh"}, [][]string{{"2023-01-01", "13.8"}, {"2023-01-02", "18.14"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2023-01-01")
	assert.Contains(t, out, "18.14")
	assert.Contains(t, strings.ToUpper(out), "KWH")
}
