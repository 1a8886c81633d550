package partitions

import (
	"fmt"

	"github.com/notargets/sparsekit/pattern"
)

// PartitionStrategy defines how matrix rows are grouped into partitions
type PartitionStrategy int

const (
	// BlockPartition assigns consecutive row ranges
	BlockPartition PartitionStrategy = iota
	// RoundRobin distributes rows cyclically
	RoundRobin
	// GraphGreedy grows partitions along the pattern's row connectivity,
	// keeping coupled rows together to reduce cross-partition entries
	GraphGreedy
)

// RowPartitioner assigns the rows of a compressed sparsity pattern to
// partitions for parallel assembly or matrix-vector products.
type RowPartitioner struct {
	NumPartitions int
	Strategy      PartitionStrategy
}

// Partition returns a row-to-partition map of length sp.NRows(). The
// pattern must be compressed, since GraphGreedy walks its rows as an
// adjacency structure.
func (rp *RowPartitioner) Partition(sp *pattern.SparsityPattern) ([]int, error) {
	if rp.NumPartitions <= 0 {
		return nil, fmt.Errorf("invalid partition count %d", rp.NumPartitions)
	}
	if !sp.IsCompressed() {
		return nil, fmt.Errorf("pattern must be compressed before partitioning")
	}

	K := sp.NRows()
	if K < rp.NumPartitions {
		return nil, fmt.Errorf("cannot split %d rows into %d partitions", K, rp.NumPartitions)
	}

	switch rp.Strategy {
	case BlockPartition:
		return rp.blockPartition(K), nil
	case RoundRobin:
		return rp.roundRobin(K), nil
	case GraphGreedy:
		return rp.graphGreedy(sp), nil
	default:
		return nil, fmt.Errorf("unknown partition strategy %d", rp.Strategy)
	}
}

func (rp *RowPartitioner) blockPartition(K int) []int {
	part := make([]int, K)
	base := K / rp.NumPartitions
	extra := K % rp.NumPartitions

	row := 0
	for p := 0; p < rp.NumPartitions; p++ {
		count := base
		if p < extra {
			count++
		}
		for i := 0; i < count; i++ {
			part[row] = p
			row++
		}
	}
	return part
}

func (rp *RowPartitioner) roundRobin(K int) []int {
	part := make([]int, K)
	for row := 0; row < K; row++ {
		part[row] = row % rp.NumPartitions
	}
	return part
}

// graphGreedy grows each partition breadth-first from the lowest unassigned
// row, following column indices as graph edges, until the partition reaches
// its target size. Columns beyond the row count (rectangular patterns) are
// not edges.
func (rp *RowPartitioner) graphGreedy(sp *pattern.SparsityPattern) []int {
	K := sp.NRows()
	part := make([]int, K)
	for i := range part {
		part[i] = -1
	}

	next := 0
	remaining := K

	for p := 0; p < rp.NumPartitions; p++ {
		// rebalance the quota over the partitions still to fill, so the
		// last ones cannot come up empty
		target := (remaining + rp.NumPartitions - p - 1) / (rp.NumPartitions - p)
		size := 0
		queue := make([]int, 0, target)

		for size < target {
			if len(queue) == 0 {
				// refill from the lowest unassigned row
				for next < K && part[next] != -1 {
					next++
				}
				if next == K {
					break
				}
				queue = append(queue, next)
				part[next] = p
			}

			row := queue[0]
			queue = queue[1:]
			size++

			for idx := 0; idx < sp.RowLength(row); idx++ {
				nb := sp.ColumnNumber(row, idx)
				if nb >= K || part[nb] != -1 {
					continue
				}
				if size+len(queue) >= target {
					break
				}
				part[nb] = p
				queue = append(queue, nb)
			}
		}
		remaining -= size + len(queue)
	}

	// any stragglers (disconnected rows past the last refill) join the
	// final partition
	for i := range part {
		if part[i] == -1 {
			part[i] = rp.NumPartitions - 1
		}
	}
	return part
}

// ValidatePartition checks a row-to-partition map for full coverage, index
// validity, and that no partition is empty.
func ValidatePartition(part []int, numPartitions int) error {
	counts := make([]int, numPartitions)
	for row, p := range part {
		if p < 0 || p >= numPartitions {
			return fmt.Errorf("row %d assigned to invalid partition %d (have %d)", row, p, numPartitions)
		}
		counts[p]++
	}
	for p, c := range counts {
		if c == 0 {
			return fmt.Errorf("partition %d has no rows", p)
		}
	}
	return nil
}

// CutEntries counts the entries of sp whose row and column fall in
// different partitions, a proxy for communication volume.
func CutEntries(sp *pattern.SparsityPattern, part []int) int {
	cut := 0
	for row := 0; row < sp.NRows(); row++ {
		for idx := 0; idx < sp.RowLength(row); idx++ {
			col := sp.ColumnNumber(row, idx)
			if col < len(part) && part[col] != part[row] {
				cut++
			}
		}
	}
	return cut
}
