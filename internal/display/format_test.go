package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatrix() puzzle.Matrix {
	return puzzle.Matrix{
		{{1, 0}, {1, 0}, {2, 1}, {2, -1}},
		{{1, 0}, {3, 1}, {2, 0}, {10, -1}},
	}
}

func TestFormatMatrix(t *testing.T) {
	var buf bytes.Buffer
	FormatMatrix(&buf, sampleMatrix(), false)
	assert.Equal(t, " 1  1  2  2\n 1  3  2 10\n", buf.String())
}

func TestFormatMatrix_Indices(t *testing.T) {
	var buf bytes.Buffer
	FormatMatrix(&buf, puzzle.Matrix{{{1, 0}, {2, 0}}, {{2, 0}, {1, 0}}}, true)

	want := "   0 1\n" +
		"   ---\n" +
		" 0| 1 2\n" +
		" 1| 2 1\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatMatrixState(t *testing.T) {
	var buf bytes.Buffer
	FormatMatrixState(&buf, puzzle.Matrix{{{1, 0}, {2, 1}}, {{2, -1}, {1, 5}}}, false)
	assert.Equal(t, "1o 2q\n2x 1?\n", buf.String())
}

func TestFormatMatrix_Empty(t *testing.T) {
	var buf bytes.Buffer
	FormatMatrix(&buf, puzzle.Matrix{}, true)
	FormatMatrixState(&buf, nil, false)
	assert.Equal(t, "Empty matrix\nEmpty matrix\n", buf.String())
}

func TestMatrixString(t *testing.T) {
	assert.Equal(t, "1 2\n2 1", MatrixString(puzzle.Matrix{{{1, 0}, {2, 0}}, {{2, 0}, {1, 0}}}))
}

func TestFormatLedgerTable(t *testing.T) {
	var buf bytes.Buffer
	n, err := FormatLedgerTable(&buf, []puzzle.LedgerEntry{
		{ID: 1, ImagePath: "levels/images/puzzle1.png", StructuredPath: "levels/structured/puzzle1.json", GridSize: "8 by 8"},
		{ID: 2, ImagePath: "levels/images/puzzle2.png", StructuredPath: "levels/structured/puzzle2.json"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := buf.String()
	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "8 by 8")
	assert.Contains(t, out, "levels/structured/puzzle2.json")
	assert.True(t, strings.HasSuffix(out, "2 puzzles recorded\n"))
}

func TestFormatLedgerTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := FormatLedgerTable(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "No puzzles recorded in the ledger\n", buf.String())
}

func TestFormatLedgerJSONL(t *testing.T) {
	var buf bytes.Buffer
	entries := []puzzle.LedgerEntry{
		{ID: 1, ImagePath: "a.png", StructuredPath: "a.json", GridSize: "2 by 2"},
		{ID: 4, ImagePath: "b.png", StructuredPath: "b.json"},
	}
	require.NoError(t, FormatLedgerJSONL(&buf, entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"level":1,"image_path":"a.png","json_path":"a.json","grid_size":"2 by 2"}`, lines[0])

	var back puzzle.LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &back))
	assert.Equal(t, entries[1], back)
}

func TestFormatRecordJSON(t *testing.T) {
	var buf bytes.Buffer
	rec := &puzzle.Record{ID: 3, Matrix: puzzle.Matrix{{{1, 0}}}, ColorMap: puzzle.ColorMap{"#fff": 1}}
	require.NoError(t, FormatRecordJSON(&buf, rec))
	assert.Contains(t, buf.String(), "\"id\": 3")
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}

func TestFormatCatalog(t *testing.T) {
	var buf bytes.Buffer
	FormatCatalog(&buf, []int{1, 2, 3, 7}, map[int]struct{}{2: {}, 9: {}})
	out := buf.String()
	assert.Contains(t, out, "Remote catalog: 4 levels (1-7)")
	assert.Contains(t, out, "Downloaded:     1\n")
	assert.Contains(t, out, "Missing:        3 [1, 3, 7]\n")

	buf.Reset()
	FormatCatalog(&buf, []int{1}, map[int]struct{}{1: {}})
	assert.Contains(t, buf.String(), "Missing:        none")

	buf.Reset()
	FormatCatalog(&buf, nil, nil)
	assert.Equal(t, "No levels found in the remote catalog\n", buf.String())
}

func TestFormatRecordSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatRecordSummary(&buf, &puzzle.Record{ID: 4, Matrix: sampleMatrix()})
	FormatRecordSummary(&buf, &puzzle.Record{ID: 5, Matrix: puzzle.Matrix{}})
	assert.Equal(t, "Level 4: 2 by 4, 4 colors\nLevel 5: empty grid, 0 colors\n", buf.String())
}

func TestFormatCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCells(&buf, []puzzle.CellRecord{
		{Row: 0, Col: 0, Color: "rgb(1, 2, 3)", Borders: []string{"border-r", "border-b"}},
		{Row: 0, Col: 1, Color: "rgb(4, 5, 6)"},
	}))

	out := buf.String()
	assert.Contains(t, out, "BORDERS")
	assert.Contains(t, out, "border-r border-b")
	assert.Contains(t, out, "rgb(4, 5, 6)")
	assert.True(t, strings.HasSuffix(out, "2 cells\n"))

	buf.Reset()
	require.NoError(t, FormatCells(&buf, nil))
	assert.Equal(t, "No cells recorded\n", buf.String())
}
