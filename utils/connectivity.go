package utils

import (
	"fmt"

	"github.com/notargets/sparsekit/builder"
)

// BuildElementAdjacency builds the element-coupling sparsity of a mesh from
// its element-to-element connectivity: row e holds e itself plus every
// neighbor in EToE[e]. Boundary faces conventionally self-connect
// (EToE[e][f] == e), which the self entry absorbs.
func BuildElementAdjacency(K int, EToE [][]int) (*builder.DynamicSparsityPattern, error) {
	if K <= 0 {
		return nil, fmt.Errorf("invalid element count K=%d", K)
	}
	if len(EToE) != K {
		return nil, fmt.Errorf("EToE length %d does not match K=%d", len(EToE), K)
	}

	d := builder.NewDynamicSparsityPattern(K, K)
	for e := 0; e < K; e++ {
		d.Add(e, e)
		for f, nb := range EToE[e] {
			if nb < 0 || nb >= K {
				return nil, fmt.Errorf("EToE[%d][%d]=%d out of range [0,%d)", e, f, nb, K)
			}
			d.Add(e, nb)
		}
	}
	return d, nil
}

// BuildDOFCoupling expands element adjacency to node-level coupling for a
// discontinuous basis with Np nodes per element: node e*Np+a couples to all
// Np nodes of element e and of each face neighbor. The result is the
// assembly stencil a DG stiffness matrix fills, and the natural input for
// chunked storage with chunk size Np.
func BuildDOFCoupling(K, Np int, EToE [][]int) (*builder.DynamicSparsityPattern, error) {
	if Np <= 0 {
		return nil, fmt.Errorf("invalid nodes per element Np=%d", Np)
	}
	adjacency, err := BuildElementAdjacency(K, EToE)
	if err != nil {
		return nil, err
	}

	d := builder.NewDynamicSparsityPattern(K*Np, K*Np)
	for e := 0; e < K; e++ {
		for idx := 0; idx < adjacency.RowLength(e); idx++ {
			nb := adjacency.ColumnNumber(e, idx)
			for a := 0; a < Np; a++ {
				for b := 0; b < Np; b++ {
					d.Add(e*Np+a, nb*Np+b)
				}
			}
		}
	}
	return d, nil
}

// CouplingRowLengths returns the per-row entry counts of a built pattern,
// in the form ChunkSparsityPattern.ReinitRowLengths consumes.
func CouplingRowLengths(d *builder.DynamicSparsityPattern) []int {
	lengths := make([]int, d.NRows())
	for i := range lengths {
		lengths[i] = d.RowLength(i)
	}
	return lengths
}
