// Package parser defines the in-memory table shape shared by the csv and
// xlsx readers. Uploads are modest (thousands of rows), so readers
// materialize the whole sheet; the importer owns batching.
package parser

// Table is one parsed sheet: a header row plus data rows. Cells are raw
// strings exactly as entered apart from edge-space trimming; the import
// layer decides what empty means.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the index of the column whose header matches name
// exactly, or -1. Header text is matched byte-for-byte: the import
// contracts are exact, with no fuzzy matching or case folding.
func (t Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// At returns the cell at (row, col), or "" when the row is ragged and col
// is past its end.
func (t Table) At(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}
