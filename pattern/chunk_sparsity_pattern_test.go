package pattern

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func uniformLengths(m, v int) []int {
	lengths := make([]int, m)
	for i := range lengths {
		lengths[i] = v
	}
	return lengths
}

// The block grid dimension keeps the historical (m+chunkSize)/chunkSize
// rounding, which yields one extra chunk row when chunkSize divides m
// exactly. Serialized data depends on the exact count, so pin it.
func TestChunkSparsityPattern_BlockGridDimensions(t *testing.T) {
	cases := []struct {
		m, n, chunkSize  int
		mChunks, nChunks int
	}{
		{8, 8, 4, 3, 3},   // exact multiple: one chunk beyond ceil(8/4)=2
		{10, 10, 3, 4, 4}, // (10+3)/3 = 4 = ceil(10/3)
		{10, 11, 4, 3, 3}, // (10+4)/4=3, (11+4)/4=3
		{1, 1, 1, 2, 2},   // exact multiple again
		{7, 5, 3, 3, 2},   // (7+3)/3=3=ceil, (5+3)/3=2=ceil
	}
	for _, tc := range cases {
		c := NewChunkSparsityPattern()
		c.Reinit(tc.m, tc.n, 1, tc.chunkSize, false)
		if got := c.BlockPattern().NRows(); got != tc.mChunks {
			t.Errorf("reinit(%d,%d,cs=%d): mChunks=%d, want %d", tc.m, tc.n, tc.chunkSize, got, tc.mChunks)
		}
		if got := c.BlockPattern().NCols(); got != tc.nChunks {
			t.Errorf("reinit(%d,%d,cs=%d): nChunks=%d, want %d", tc.m, tc.n, tc.chunkSize, got, tc.nChunks)
		}
	}
}

// Concrete scenario: 10x10, chunk size 3, per-row hint 2. One added entry
// makes its whole chunk visible; other chunks stay empty.
func TestChunkSparsityPattern_ChunkGranularExists(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.ReinitRowLengths(10, 10, uniformLengths(10, 2), 3, false)

	if c.BlockPattern().NRows() != 4 || c.BlockPattern().NCols() != 4 {
		t.Fatalf("expected 4x4 block grid, got %dx%d",
			c.BlockPattern().NRows(), c.BlockPattern().NCols())
	}

	c.Add(0, 0)
	c.Compress()

	if !c.Exists(0, 0) {
		t.Error("added entry must exist")
	}
	if !c.Exists(1, 2) {
		t.Error("(1,2) shares the chunk of (0,0) and must exist")
	}
	if !c.Exists(2, 2) {
		t.Error("(2,2) is the far corner of the chunk of (0,0) and must exist")
	}
	if c.Exists(3, 3) {
		t.Error("(3,3) lies in an untouched chunk")
	}
	if c.Exists(0, 3) {
		t.Error("(0,3) lies in an untouched chunk")
	}
}

func TestChunkSparsityPattern_WholeChunkVisible(t *testing.T) {
	const m, n, cs = 12, 9, 4
	c := NewChunkSparsityPattern()
	c.Reinit(m, n, 3, cs, false)
	c.Add(5, 7)
	c.Compress()

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sameChunk := i/cs == 5/cs && j/cs == 7/cs
			if c.Exists(i, j) != sameChunk {
				t.Errorf("Exists(%d,%d)=%v, want %v", i, j, c.Exists(i, j), sameChunk)
			}
		}
	}
}

func TestChunkSparsityPattern_Preconditions(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.Reinit(6, 6, 2, 2, false)

	mustPanic(t, "row out of range", func() { c.Add(6, 0) })
	mustPanic(t, "column out of range", func() { c.Add(0, 6) })
	mustPanic(t, "row length vector mismatch", func() {
		NewChunkSparsityPattern().ReinitRowLengths(4, 4, []int{1, 1}, 2, false)
	})
	mustPanic(t, "zero chunk size", func() {
		NewChunkSparsityPattern().Reinit(4, 4, 1, 0, false)
	})

	c.Compress()
	mustPanic(t, "add after compress", func() { c.Add(0, 0) })
	mustPanic(t, "double compress", func() { c.Compress() })
}

func TestChunkSparsityPattern_ChunkRowCapacityIsMax(t *testing.T) {
	// rows 0..2 fold into chunk row 0 with hints 1, 5, 2: the chunk row
	// gets capacity 5, not 8
	c := NewChunkSparsityPattern()
	c.ReinitRowLengths(3, 9, []int{1, 5, 2}, 3, false)

	// 5 distinct chunks fit in the block row
	for _, j := range []int{0, 3, 6} {
		c.Add(1, j)
	}
	c.Add(0, 1) // same chunk as (1,0), collapses
	c.Compress()

	if got := c.BlockPattern().RowLength(0); got != 3 {
		t.Errorf("block row 0: expected 3 occupied chunks, got %d", got)
	}
}

func TestChunkSparsityPattern_Bandwidth(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.Reinit(10, 10, 2, 3, false)
	c.Add(0, 0)
	c.Compress()

	// single diagonal block: block bandwidth 0, worst corner offset 2
	if got := c.Bandwidth(); got != 2 {
		t.Errorf("expected bandwidth 2, got %d", got)
	}

	wide := NewChunkSparsityPattern()
	wide.Reinit(4, 4, 2, 3, false)
	wide.Add(0, 3)
	wide.Compress()
	// block bandwidth 1 gives 1*3+2=5, capped at max(4,4)
	if got := wide.Bandwidth(); got != 4 {
		t.Errorf("expected capped bandwidth 4, got %d", got)
	}

	empty := NewChunkSparsityPattern()
	if got := empty.Bandwidth(); got != 0 {
		t.Errorf("empty pattern bandwidth: expected 0, got %d", got)
	}
}

func TestChunkSparsityPattern_MaxEntriesPerRowIsUpperBound(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.Reinit(9, 9, 4, 3, false)

	added := map[[2]int]bool{}
	for _, e := range [][2]int{{0, 0}, {0, 4}, {0, 8}, {1, 2}, {4, 4}} {
		c.Add(e[0], e[1])
		added[e] = true
	}
	c.Compress()

	maxTrue := 0
	for i := 0; i < 9; i++ {
		count := 0
		for j := 0; j < 9; j++ {
			if added[[2]int{i, j}] {
				count++
			}
		}
		if count > maxTrue {
			maxTrue = count
		}
	}
	if c.MaxEntriesPerRow() < maxTrue {
		t.Errorf("MaxEntriesPerRow()=%d below true maximum %d", c.MaxEntriesPerRow(), maxTrue)
	}
}

func TestChunkSparsityPattern_Symmetrize(t *testing.T) {
	// chunk size divides the dimension, so the mirrored block indices stay
	// in range
	c := NewChunkSparsityPattern()
	c.Reinit(8, 8, 4, 4, false)
	c.Add(0, 5)
	c.Add(7, 2)
	c.Symmetrize()
	c.Compress()

	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if c.Exists(i, j) != c.Exists(j, i) {
				t.Errorf("asymmetry at (%d,%d)", i, j)
			}
		}
	}

	rect := NewChunkSparsityPattern()
	rect.Reinit(4, 6, 2, 2, false)
	mustPanic(t, "symmetrize non-square", func() { rect.Symmetrize() })
}

func TestChunkSparsityPattern_RoundTrip(t *testing.T) {
	const chunkSize = 3
	c := NewChunkSparsityPattern()
	c.Reinit(10, 10, 4, chunkSize, false)
	entries := [][2]int{{0, 0}, {4, 7}, {9, 9}, {2, 8}}
	for _, e := range entries {
		c.Add(e[0], e[1])
	}
	c.Compress()

	var buf bytes.Buffer
	if err := c.BlockWrite(&buf); err != nil {
		t.Fatalf("BlockWrite: %v", err)
	}

	// chunk size is not persisted: the reader must supply it
	restored := NewChunkSparsityPattern()
	restored.Reinit(0, 0, 0, chunkSize, false)
	if err := restored.BlockRead(&buf); err != nil {
		t.Fatalf("BlockRead: %v", err)
	}

	if restored.NRows() != 10 || restored.NCols() != 10 {
		t.Fatalf("restored dimensions %dx%d, want 10x10", restored.NRows(), restored.NCols())
	}
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			if restored.Exists(i, j) != c.Exists(i, j) {
				t.Errorf("Exists(%d,%d) differs after round trip", i, j)
			}
		}
	}
}

func TestChunkSparsityPattern_BlockReadErrors(t *testing.T) {
	cases := map[string]string{
		"missing opening bracket": "10 10 ][...]",
		"bad dimension":           "[x 10 ][...]",
		"missing separator":       "[10 10 [...]",
		"truncated":               "[10 10 ][",
		"empty":                   "",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewChunkSparsityPattern()
			err := c.BlockRead(strings.NewReader(data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestChunkSparsityPattern_AssignRequiresEmpty(t *testing.T) {
	dst := NewChunkSparsityPattern()
	dst.Assign(NewChunkSparsityPattern()) // fine

	populated := NewChunkSparsityPattern()
	populated.Reinit(4, 4, 1, 2, false)
	mustPanic(t, "assign from populated", func() { dst.Assign(populated) })
}

func TestChunkSparsityPattern_PrintUnimplemented(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.Reinit(4, 4, 1, 2, false)
	mustPanic(t, "Print", func() { _ = c.Print(&bytes.Buffer{}) })
	mustPanic(t, "PrintGnuplot", func() { _ = c.PrintGnuplot(&bytes.Buffer{}) })
}

func TestChunkSparsityPattern_ReinitSquare(t *testing.T) {
	c := NewChunkSparsityPattern()
	c.ReinitSquare(6, 2, 2)

	if c.NRows() != 6 || c.NCols() != 6 {
		t.Errorf("expected 6x6, got %dx%d", c.NRows(), c.NCols())
	}
	// diagonal optimization preseeds the block diagonal
	if !c.Exists(0, 0) || !c.Exists(5, 5) {
		t.Error("diagonal chunks should be preseeded")
	}
}

func TestChunkSparsityPattern_MemoryConsumption(t *testing.T) {
	small := NewChunkSparsityPattern()
	small.Reinit(4, 4, 1, 2, false)
	large := NewChunkSparsityPattern()
	large.Reinit(400, 400, 8, 2, false)

	if large.MemoryConsumption() <= small.MemoryConsumption() {
		t.Error("larger pattern should report more memory")
	}
}
