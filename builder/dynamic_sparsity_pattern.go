package builder

import (
	"fmt"
	"slices"
)

// DynamicSparsityPattern accumulates the nonzero structure of a sparse
// matrix without capacity hints: each row grows as entries arrive. It is the
// intermediate callers fill while the final entry counts are still unknown,
// then convert into a fixed-structure pattern via
// pattern.ChunkSparsityPattern.CopyFrom (it satisfies pattern.RowAccessor).
type DynamicSparsityPattern struct {
	rows, cols int

	// entries[i] holds the column indices of row i, sorted ascending.
	entries [][]int
}

// NewDynamicSparsityPattern returns an m x n pattern with no entries.
func NewDynamicSparsityPattern(m, n int) *DynamicSparsityPattern {
	d := &DynamicSparsityPattern{}
	d.Reinit(m, n)
	return d
}

// Reinit resizes the pattern to m rows and n columns, discarding all
// entries.
func (d *DynamicSparsityPattern) Reinit(m, n int) {
	if m < 0 || n < 0 {
		panic(fmt.Sprintf("builder: invalid dimensions %dx%d", m, n))
	}
	d.rows = m
	d.cols = n
	d.entries = make([][]int, m)
}

// Add records entry (i, j), keeping the row sorted. Duplicates are ignored.
func (d *DynamicSparsityPattern) Add(i, j int) {
	d.checkIndex(i, j)
	row := d.entries[i]
	k, found := slices.BinarySearch(row, j)
	if found {
		return
	}
	d.entries[i] = slices.Insert(row, k, j)
}

// Exists reports whether entry (i, j) has been recorded.
func (d *DynamicSparsityPattern) Exists(i, j int) bool {
	d.checkIndex(i, j)
	_, found := slices.BinarySearch(d.entries[i], j)
	return found
}

// RowLength returns the number of entries in the given row.
func (d *DynamicSparsityPattern) RowLength(row int) int {
	d.checkRow(row)
	return len(d.entries[row])
}

// ColumnNumber returns the index-th column of the given row in ascending
// order.
func (d *DynamicSparsityPattern) ColumnNumber(row, index int) int {
	d.checkRow(row)
	if index < 0 || index >= len(d.entries[row]) {
		panic(fmt.Sprintf("builder: entry %d out of range in row %d (%d entries)",
			index, row, len(d.entries[row])))
	}
	return d.entries[row][index]
}

// Symmetrize adds the transposed entry for every recorded one. The pattern
// must be square.
func (d *DynamicSparsityPattern) Symmetrize() {
	if d.rows != d.cols {
		panic(fmt.Sprintf("builder: Symmetrize requires a square pattern, have %dx%d", d.rows, d.cols))
	}
	for i := 0; i < d.rows; i++ {
		for _, j := range slices.Clone(d.entries[i]) {
			d.Add(j, i)
		}
	}
}

// Bandwidth returns the maximum |j-i| over all recorded entries.
func (d *DynamicSparsityPattern) Bandwidth() int {
	b := 0
	for i, row := range d.entries {
		for _, j := range row {
			if v := j - i; v > b {
				b = v
			} else if v := i - j; v > b {
				b = v
			}
		}
	}
	return b
}

// NumNonzeroElements returns the total entry count.
func (d *DynamicSparsityPattern) NumNonzeroElements() int {
	n := 0
	for _, row := range d.entries {
		n += len(row)
	}
	return n
}

// MaxRowLength returns the largest entry count of any row.
func (d *DynamicSparsityPattern) MaxRowLength() int {
	m := 0
	for _, row := range d.entries {
		if len(row) > m {
			m = len(row)
		}
	}
	return m
}

// NRows returns the number of rows.
func (d *DynamicSparsityPattern) NRows() int { return d.rows }

// NCols returns the number of columns.
func (d *DynamicSparsityPattern) NCols() int { return d.cols }

func (d *DynamicSparsityPattern) checkRow(row int) {
	if row < 0 || row >= d.rows {
		panic(fmt.Sprintf("builder: row %d out of range [0,%d)", row, d.rows))
	}
}

func (d *DynamicSparsityPattern) checkIndex(i, j int) {
	d.checkRow(i)
	if j < 0 || j >= d.cols {
		panic(fmt.Sprintf("builder: column index %d out of range [0,%d)", j, d.cols))
	}
}
