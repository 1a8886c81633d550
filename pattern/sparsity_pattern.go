package pattern

import (
	"fmt"
	"slices"
	"unsafe"
)

// invalidEntry marks an unused slot in colnums before compression
const invalidEntry = -1

// CheckBounds guards the per-call index range checks in Add and Exists.
// Structural preconditions (dimension mismatches, use-after-compress) are
// always enforced regardless of this setting.
var CheckBounds = true

// SparsityPattern stores the nonzero structure of a sparse matrix in
// compressed row format. The pattern is sized once via Reinit with per-row
// capacity hints, populated with Add, and finalized with Compress. After
// Compress the column indices of each row are sorted and the structure is
// read-only.
type SparsityPattern struct {
	rows, cols int

	// rowstart[i] is the offset of row i's entries in colnums.
	// Before compression the extent rowstart[i+1]-rowstart[i] is the
	// reserved capacity of row i; afterwards it is the exact entry count.
	rowstart []int
	colnums  []int

	compressed bool

	// When true the diagonal entry of each row is stored first in that
	// row, ahead of the sorted off-diagonal columns. Only possible for
	// square patterns.
	storeDiagonalFirst bool
}

// NewSparsityPattern returns an empty pattern. Call Reinit before use.
func NewSparsityPattern() *SparsityPattern {
	sp := &SparsityPattern{}
	sp.Reinit(0, 0, nil, false)
	return sp
}

// Reinit sizes the pattern to m rows and n columns, reserving capacity per
// row from rowLengths. A nil rowLengths is treated as all-zero. Capacities
// are clamped to n, and raised to 1 where a stored diagonal requires a slot.
// Any previous contents are discarded.
func (sp *SparsityPattern) Reinit(m, n int, rowLengths []int, optimizeDiag bool) {
	if rowLengths != nil && len(rowLengths) != m {
		panic(fmt.Sprintf("pattern: row length vector has %d entries, want %d", len(rowLengths), m))
	}

	sp.rows = m
	sp.cols = n
	sp.compressed = false
	sp.storeDiagonalFirst = optimizeDiag && m == n

	if m == 0 || n == 0 {
		sp.rowstart = make([]int, m+1)
		sp.colnums = nil
		return
	}

	sp.rowstart = make([]int, m+1)
	for i := 0; i < m; i++ {
		length := 0
		if rowLengths != nil {
			length = rowLengths[i]
		}
		if sp.storeDiagonalFirst && length == 0 {
			length = 1
		}
		if length > n {
			length = n
		}
		sp.rowstart[i+1] = sp.rowstart[i] + length
	}

	sp.colnums = make([]int, sp.rowstart[m])
	for k := range sp.colnums {
		sp.colnums[k] = invalidEntry
	}
	if sp.storeDiagonalFirst {
		for i := 0; i < m; i++ {
			sp.colnums[sp.rowstart[i]] = i
		}
	}
}

// ReinitUniform sizes the pattern with the same capacity for every row.
func (sp *SparsityPattern) ReinitUniform(m, n, maxPerRow int, optimizeDiag bool) {
	rowLengths := make([]int, m)
	for i := range rowLengths {
		rowLengths[i] = maxPerRow
	}
	sp.Reinit(m, n, rowLengths, optimizeDiag)
}

// Add records entry (i, j). Adding an entry twice is a no-op. Panics when the
// row's reserved capacity is exhausted or the pattern is already compressed.
func (sp *SparsityPattern) Add(i, j int) {
	if CheckBounds {
		sp.checkIndex(i, j)
	}
	if sp.compressed {
		panic("pattern: Add called on a compressed SparsityPattern")
	}

	for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
		if sp.colnums[k] == j {
			return
		}
		if sp.colnums[k] == invalidEntry {
			sp.colnums[k] = j
			return
		}
	}
	panic(fmt.Sprintf("pattern: row %d is full (capacity %d), raise the row length hint",
		i, sp.rowstart[i+1]-sp.rowstart[i]))
}

// Exists reports whether entry (i, j) has been recorded.
func (sp *SparsityPattern) Exists(i, j int) bool {
	if CheckBounds {
		sp.checkIndex(i, j)
	}
	for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
		if sp.colnums[k] == j {
			return true
		}
	}
	return false
}

// Compress finalizes the pattern: unused slots are squeezed out, each row's
// columns are sorted (diagonal first where stored), and further mutation is
// forbidden. Panics if called twice.
func (sp *SparsityPattern) Compress() {
	if sp.compressed {
		panic("pattern: Compress called twice on the same SparsityPattern")
	}

	newRowstart := make([]int, sp.rows+1)
	newColnums := make([]int, 0, len(sp.colnums))
	for i := 0; i < sp.rows; i++ {
		row := sp.validRow(i)
		if sp.storeDiagonalFirst {
			// keep the diagonal ahead of the sorted remainder
			for k, c := range row {
				if c == i {
					row[0], row[k] = row[k], row[0]
					break
				}
			}
			slices.Sort(row[1:])
		} else {
			slices.Sort(row)
		}
		newColnums = append(newColnums, row...)
		newRowstart[i+1] = len(newColnums)
	}

	sp.rowstart = newRowstart
	sp.colnums = newColnums
	sp.compressed = true
}

// Symmetrize adds the transposed entry (j, i) for every recorded (i, j).
// The pattern must be square and not yet compressed, and each row must have
// enough spare capacity for the mirrored entries.
func (sp *SparsityPattern) Symmetrize() {
	if sp.compressed {
		panic("pattern: Symmetrize called on a compressed SparsityPattern")
	}
	if sp.rows != sp.cols {
		panic(fmt.Sprintf("pattern: Symmetrize requires a square pattern, have %dx%d", sp.rows, sp.cols))
	}

	for i := 0; i < sp.rows; i++ {
		for _, j := range sp.validRow(i) {
			sp.Add(j, i)
		}
	}
}

// Bandwidth returns the maximum |j-i| over all recorded entries.
func (sp *SparsityPattern) Bandwidth() int {
	b := 0
	for i := 0; i < sp.rows; i++ {
		for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
			j := sp.colnums[k]
			if j == invalidEntry {
				continue
			}
			if d := j - i; d > b {
				b = d
			} else if d := i - j; d > b {
				b = d
			}
		}
	}
	return b
}

// MaxEntriesPerRow returns the largest row extent: the reserved capacity
// before compression, the exact entry count afterwards.
func (sp *SparsityPattern) MaxEntriesPerRow() int {
	m := 0
	for i := 0; i < sp.rows; i++ {
		if l := sp.rowstart[i+1] - sp.rowstart[i]; l > m {
			m = l
		}
	}
	return m
}

// RowLength returns the number of entries recorded in the given row.
func (sp *SparsityPattern) RowLength(row int) int {
	if row < 0 || row >= sp.rows {
		panic(fmt.Sprintf("pattern: row %d out of range [0,%d)", row, sp.rows))
	}
	if sp.compressed {
		return sp.rowstart[row+1] - sp.rowstart[row]
	}
	n := 0
	for k := sp.rowstart[row]; k < sp.rowstart[row+1]; k++ {
		if sp.colnums[k] != invalidEntry {
			n++
		}
	}
	return n
}

// ColumnNumber returns the column of the index-th entry in the given row,
// counting in storage order.
func (sp *SparsityPattern) ColumnNumber(row, index int) int {
	if row < 0 || row >= sp.rows {
		panic(fmt.Sprintf("pattern: row %d out of range [0,%d)", row, sp.rows))
	}
	seen := 0
	for k := sp.rowstart[row]; k < sp.rowstart[row+1]; k++ {
		if sp.colnums[k] == invalidEntry {
			continue
		}
		if seen == index {
			return sp.colnums[k]
		}
		seen++
	}
	panic(fmt.Sprintf("pattern: entry %d out of range in row %d (%d entries)", index, row, seen))
}

// NumNonzeroElements returns the total entry count of a compressed pattern.
func (sp *SparsityPattern) NumNonzeroElements() int {
	if !sp.compressed {
		panic("pattern: NumNonzeroElements requires a compressed SparsityPattern")
	}
	return len(sp.colnums)
}

// Assign copies the state of an empty pattern into sp. Assigning from a
// populated pattern is rejected: deep-copying an arbitrary pattern is an
// O(entries) operation callers must request explicitly via Reinit and Add.
func (sp *SparsityPattern) Assign(other *SparsityPattern) {
	if !other.Empty() {
		panic("pattern: Assign from a non-empty SparsityPattern")
	}
	sp.Reinit(0, 0, nil, other.storeDiagonalFirst)
}

// Empty reports whether the pattern has zero size.
func (sp *SparsityPattern) Empty() bool { return sp.rows == 0 && sp.cols == 0 }

// IsCompressed reports whether Compress has been called.
func (sp *SparsityPattern) IsCompressed() bool { return sp.compressed }

// NRows returns the number of rows.
func (sp *SparsityPattern) NRows() int { return sp.rows }

// NCols returns the number of columns.
func (sp *SparsityPattern) NCols() int { return sp.cols }

// StoresDiagonalFirst reports whether the diagonal entry of each row is kept
// ahead of the sorted off-diagonal columns.
func (sp *SparsityPattern) StoresDiagonalFirst() bool { return sp.storeDiagonalFirst }

// MemoryConsumption estimates the memory footprint in bytes.
func (sp *SparsityPattern) MemoryConsumption() int {
	const intSize = int(unsafe.Sizeof(int(0)))
	return int(unsafe.Sizeof(*sp)) + intSize*(len(sp.rowstart)+len(sp.colnums))
}

// validRow returns the recorded columns of row i in storage order.
func (sp *SparsityPattern) validRow(i int) []int {
	row := make([]int, 0, sp.rowstart[i+1]-sp.rowstart[i])
	for k := sp.rowstart[i]; k < sp.rowstart[i+1]; k++ {
		if sp.colnums[k] != invalidEntry {
			row = append(row, sp.colnums[k])
		}
	}
	return row
}

func (sp *SparsityPattern) checkIndex(i, j int) {
	if i < 0 || i >= sp.rows {
		panic(fmt.Sprintf("pattern: row index %d out of range [0,%d)", i, sp.rows))
	}
	if j < 0 || j >= sp.cols {
		panic(fmt.Sprintf("pattern: column index %d out of range [0,%d)", j, sp.cols))
	}
}
