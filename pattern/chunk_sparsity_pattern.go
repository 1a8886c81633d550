package pattern

import (
	"fmt"
	"io"
	"unsafe"

	"gonum.org/v1/gonum/mat"
)

// RowAccessor provides random access to the column indices of a sparsity
// structure, row by row. builder.DynamicSparsityPattern implements it.
type RowAccessor interface {
	NRows() int
	NCols() int
	RowLength(row int) int
	ColumnNumber(row, index int) int
}

// RowSetAccessor provides ordered iteration over the column indices of a
// sparsity structure, row by row. builder.SetSparsityPattern implements it.
type RowSetAccessor interface {
	NRows() int
	NCols() int
	EachRowColumn(row int, fn func(col int))
}

// ChunkSparsityPattern stores the nonzero structure of a rows x cols matrix
// at the granularity of square chunkSize x chunkSize blocks. Entry (i, j)
// maps to block (i/chunkSize, j/chunkSize) of an owned SparsityPattern over
// the coarse block grid; all storage, compression and existence queries are
// delegated to that pattern after index translation.
//
// Blocking trades resolution for locality: a matrix whose nonzeros cluster
// can be stored and traversed chunk-wise, at the cost of Exists answering
// only "could (i, j) be nonzero" at block granularity.
type ChunkSparsityPattern struct {
	rows, cols int

	// Edge length of the square blocks. Zero only in the empty state.
	chunkSize int

	pattern SparsityPattern
}

// NewChunkSparsityPattern returns an empty pattern. Call Reinit, a Reinit
// variant or one of the CopyFrom conversions before use.
func NewChunkSparsityPattern() *ChunkSparsityPattern {
	c := &ChunkSparsityPattern{}
	c.Reinit(0, 0, 0, 0, false)
	return c
}

// Reinit sizes the pattern to m rows and n columns with the same capacity
// hint for every row. See ReinitRowLengths.
func (c *ChunkSparsityPattern) Reinit(m, n, maxPerRow, chunkSize int, optimizeDiag bool) {
	rowLengths := make([]int, m)
	for i := range rowLengths {
		rowLengths[i] = maxPerRow
	}
	c.ReinitRowLengths(m, n, rowLengths, chunkSize, optimizeDiag)
}

// ReinitSquare sizes the pattern to n x n with diagonal optimization.
func (c *ChunkSparsityPattern) ReinitSquare(n, maxPerRow, chunkSize int) {
	c.Reinit(n, n, maxPerRow, chunkSize, true)
}

// ReinitRowLengths sizes the pattern to m rows and n columns, reserving
// capacity per logical row from rowLengths. The capacity reserved for a
// block row is the maximum, not the sum, of the hints of the logical rows
// folding into it: nonzeros of neighboring rows tend to land in the same
// chunks, so summing would over-allocate badly.
func (c *ChunkSparsityPattern) ReinitRowLengths(m, n int, rowLengths []int, chunkSize int, optimizeDiag bool) {
	if len(rowLengths) != m {
		panic(fmt.Sprintf("pattern: row length vector has %d entries, want %d", len(rowLengths), m))
	}
	if chunkSize < 1 && !(m == 0 && n == 0) {
		panic(fmt.Sprintf("pattern: chunk size must be at least 1, got %d", chunkSize))
	}

	c.rows = m
	c.cols = n
	c.chunkSize = chunkSize

	if m == 0 && n == 0 {
		c.pattern.Reinit(0, 0, nil, optimizeDiag)
		return
	}

	// Block grid dimensions. This keeps the (m+chunkSize)/chunkSize
	// rounding of the original storage layout, which allocates one chunk
	// row beyond ceil(m/chunkSize) when chunkSize divides m exactly;
	// serialized patterns and existing callers depend on that count.
	mChunks := (m + chunkSize) / chunkSize
	nChunks := (n + chunkSize) / chunkSize

	chunkRowLengths := make([]int, mChunks)
	for i := 0; i < m; i++ {
		if rowLengths[i] > chunkRowLengths[i/chunkSize] {
			chunkRowLengths[i/chunkSize] = rowLengths[i]
		}
	}

	c.pattern.Reinit(mChunks, nChunks, chunkRowLengths, optimizeDiag)
}

// Add records entry (i, j), marking its owning block occupied. Must not be
// called after Compress.
func (c *ChunkSparsityPattern) Add(i, j int) {
	if CheckBounds {
		c.checkIndex(i, j)
	}
	c.pattern.Add(i/c.chunkSize, j/c.chunkSize)
}

// Exists reports whether the block owning (i, j) is occupied. The answer is
// block-granular: a true result means some entry in the same chunk was
// added, not necessarily (i, j) itself.
func (c *ChunkSparsityPattern) Exists(i, j int) bool {
	if CheckBounds {
		c.checkIndex(i, j)
	}
	return c.pattern.Exists(i/c.chunkSize, j/c.chunkSize)
}

// Compress finalizes the underlying block pattern. The structure is
// read-only afterwards.
func (c *ChunkSparsityPattern) Compress() {
	c.pattern.Compress()
}

// CopyFrom rebuilds the pattern from a random-access sparsity source,
// rasterized at the given chunk size. Conversion is two-pass: entries per
// source row are counted first so Reinit can reserve exact capacities, then
// the same positions are replayed through Add, then the result is
// compressed. Capacities cannot grow after Reinit, so count-then-fill is
// the only safe discipline.
func (c *ChunkSparsityPattern) CopyFrom(src RowAccessor, chunkSize int, optimizeDiag bool) {
	m, n := src.NRows(), src.NCols()

	entriesPerRow := make([]int, m)
	for row := 0; row < m; row++ {
		entriesPerRow[row] = src.RowLength(row)
	}
	c.ReinitRowLengths(m, n, entriesPerRow, chunkSize, optimizeDiag)

	for row := 0; row < m; row++ {
		for j := 0; j < entriesPerRow[row]; j++ {
			c.Add(row, src.ColumnNumber(row, j))
		}
	}
	c.Compress()
}

// CopyFromSets rebuilds the pattern from an iteration-only sparsity source.
// Same two-pass discipline as CopyFrom.
func (c *ChunkSparsityPattern) CopyFromSets(src RowSetAccessor, chunkSize int, optimizeDiag bool) {
	m, n := src.NRows(), src.NCols()

	entriesPerRow := make([]int, m)
	for row := 0; row < m; row++ {
		src.EachRowColumn(row, func(int) {
			entriesPerRow[row]++
		})
	}
	c.ReinitRowLengths(m, n, entriesPerRow, chunkSize, optimizeDiag)

	for row := 0; row < m; row++ {
		src.EachRowColumn(row, func(col int) {
			c.Add(row, col)
		})
	}
	c.Compress()
}

// CopyFromMatrix rebuilds the pattern from the nonzero entries of a gonum
// matrix. Same two-pass discipline as CopyFrom.
func (c *ChunkSparsityPattern) CopyFromMatrix(a mat.Matrix, chunkSize int, optimizeDiag bool) {
	m, n := a.Dims()

	entriesPerRow := make([]int, m)
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if a.At(row, col) != 0 {
				entriesPerRow[row]++
			}
		}
	}
	c.ReinitRowLengths(m, n, entriesPerRow, chunkSize, optimizeDiag)

	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if a.At(row, col) != 0 {
				c.Add(row, col)
			}
		}
	}
	c.Compress()
}

// Symmetrize mirrors all entries across the diagonal. The logical shape
// must be square. Note the block grid can still be non-square (e.g. 10x10
// with chunk size 4); symmetrization is delegated to the block pattern and
// is only meaningful when chunkSize is consistent with the dimensions —
// callers own that discipline.
func (c *ChunkSparsityPattern) Symmetrize() {
	if c.rows != c.cols {
		panic(fmt.Sprintf("pattern: Symmetrize requires a square pattern, have %dx%d", c.rows, c.cols))
	}
	c.pattern.Symmetrize()
}

// Bandwidth returns the maximum |j-i| any recorded entry can have. A block
// at block bandwidth b may hold an entry displaced by up to b*chunkSize +
// (chunkSize-1) logical columns, capped at the matrix extent.
func (c *ChunkSparsityPattern) Bandwidth() int {
	if c.rows == 0 && c.cols == 0 {
		return 0
	}
	b := c.pattern.Bandwidth()*c.chunkSize + (c.chunkSize - 1)
	if m := max(c.rows, c.cols); b > m {
		return m
	}
	return b
}

// MaxEntriesPerRow returns an upper bound on the entries of any logical
// row: each occupied block accounts for up to chunkSize columns.
func (c *ChunkSparsityPattern) MaxEntriesPerRow() int {
	return c.pattern.MaxEntriesPerRow() * c.chunkSize
}

// Assign copies the state of an empty pattern into c. Assigning from a
// populated pattern is rejected rather than deep-copied.
func (c *ChunkSparsityPattern) Assign(other *ChunkSparsityPattern) {
	if other.rows != 0 || other.cols != 0 {
		panic("pattern: Assign from a non-empty ChunkSparsityPattern")
	}
	c.pattern.Assign(&other.pattern)
	c.rows = 0
	c.cols = 0
	c.chunkSize = other.chunkSize
}

// Empty reports whether the underlying block pattern has zero size.
func (c *ChunkSparsityPattern) Empty() bool { return c.pattern.Empty() }

// IsCompressed reports whether Compress has been called.
func (c *ChunkSparsityPattern) IsCompressed() bool { return c.pattern.IsCompressed() }

// NRows returns the number of logical rows.
func (c *ChunkSparsityPattern) NRows() int { return c.rows }

// NCols returns the number of logical columns.
func (c *ChunkSparsityPattern) NCols() int { return c.cols }

// ChunkSize returns the block edge length.
func (c *ChunkSparsityPattern) ChunkSize() int { return c.chunkSize }

// BlockPattern exposes the underlying block-granular pattern for read-only
// inspection.
func (c *ChunkSparsityPattern) BlockPattern() *SparsityPattern { return &c.pattern }

// MemoryConsumption estimates the memory footprint in bytes: the fixed
// fields plus the underlying pattern, one level deep.
func (c *ChunkSparsityPattern) MemoryConsumption() int {
	return int(unsafe.Sizeof(*c)) + c.pattern.MemoryConsumption()
}

// Print is not implemented for chunked patterns; use BlockPattern().Print
// for the block-granular structure.
func (c *ChunkSparsityPattern) Print(io.Writer) error {
	panic("pattern: ChunkSparsityPattern.Print is not implemented")
}

// PrintGnuplot is not implemented for chunked patterns.
func (c *ChunkSparsityPattern) PrintGnuplot(io.Writer) error {
	panic("pattern: ChunkSparsityPattern.PrintGnuplot is not implemented")
}

func (c *ChunkSparsityPattern) checkIndex(i, j int) {
	if i < 0 || i >= c.rows {
		panic(fmt.Sprintf("pattern: row index %d out of range [0,%d)", i, c.rows))
	}
	if j < 0 || j >= c.cols {
		panic(fmt.Sprintf("pattern: column index %d out of range [0,%d)", j, c.cols))
	}
}
