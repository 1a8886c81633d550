package builder

import (
	"fmt"
	"slices"
)

// SetSparsityPattern accumulates nonzero structure with set semantics: each
// row is an unordered set of column indices, iterated in ascending order on
// demand. Compared to DynamicSparsityPattern it trades memory and iteration
// cost for O(1) inserts, which wins when rows are filled in highly random
// order with many repeats. It satisfies pattern.RowSetAccessor.
type SetSparsityPattern struct {
	rows, cols int
	sets       []map[int]struct{}
}

// NewSetSparsityPattern returns an m x n pattern with no entries.
func NewSetSparsityPattern(m, n int) *SetSparsityPattern {
	s := &SetSparsityPattern{}
	s.Reinit(m, n)
	return s
}

// Reinit resizes the pattern to m rows and n columns, discarding all
// entries.
func (s *SetSparsityPattern) Reinit(m, n int) {
	if m < 0 || n < 0 {
		panic(fmt.Sprintf("builder: invalid dimensions %dx%d", m, n))
	}
	s.rows = m
	s.cols = n
	s.sets = make([]map[int]struct{}, m)
	for i := range s.sets {
		s.sets[i] = make(map[int]struct{})
	}
}

// Add records entry (i, j). Duplicates are ignored.
func (s *SetSparsityPattern) Add(i, j int) {
	s.checkIndex(i, j)
	s.sets[i][j] = struct{}{}
}

// Exists reports whether entry (i, j) has been recorded.
func (s *SetSparsityPattern) Exists(i, j int) bool {
	s.checkIndex(i, j)
	_, ok := s.sets[i][j]
	return ok
}

// RowLength returns the number of entries in the given row.
func (s *SetSparsityPattern) RowLength(row int) int {
	s.checkRow(row)
	return len(s.sets[row])
}

// EachRowColumn calls fn for every column of the given row in ascending
// order.
func (s *SetSparsityPattern) EachRowColumn(row int, fn func(col int)) {
	s.checkRow(row)
	cols := make([]int, 0, len(s.sets[row]))
	for j := range s.sets[row] {
		cols = append(cols, j)
	}
	slices.Sort(cols)
	for _, j := range cols {
		fn(j)
	}
}

// NumNonzeroElements returns the total entry count.
func (s *SetSparsityPattern) NumNonzeroElements() int {
	n := 0
	for _, set := range s.sets {
		n += len(set)
	}
	return n
}

// NRows returns the number of rows.
func (s *SetSparsityPattern) NRows() int { return s.rows }

// NCols returns the number of columns.
func (s *SetSparsityPattern) NCols() int { return s.cols }

func (s *SetSparsityPattern) checkRow(row int) {
	if row < 0 || row >= s.rows {
		panic(fmt.Sprintf("builder: row %d out of range [0,%d)", row, s.rows))
	}
}

func (s *SetSparsityPattern) checkIndex(i, j int) {
	s.checkRow(i)
	if j < 0 || j >= s.cols {
		panic(fmt.Sprintf("builder: column index %d out of range [0,%d)", j, s.cols))
	}
}
