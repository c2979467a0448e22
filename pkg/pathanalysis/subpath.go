package pathanalysis

import (
	"fmt"
	"math"
)

// SubPath is the interior of a path record: every node except the true source
// and the true destination, with cumulative distances from its first node.
type SubPath struct {
	IDs       []NodeID
	Distances []float64 // Distances[i] is IDs[i] -> IDs[i+1]
	Prefix    []float64 // Prefix[i] is the distance from IDs[0] to IDs[i]
}

// NewSubPath extracts the interior sub-path of rec. Records with fewer than
// three nodes produce an empty or single-node sub-path.
func NewSubPath(rec PathRecord) (SubPath, error) {
	if len(rec.Nodes) == 0 {
		return SubPath{}, fmt.Errorf("%w: %d->%d has no nodes", ErrMalformedRecord, rec.Source, rec.Destination)
	}
	for i, hop := range rec.Nodes {
		d := hop.DistanceToNext
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return SubPath{}, fmt.Errorf("%w: %d->%d hop %d (node %d) has distance %v",
				ErrMalformedRecord, rec.Source, rec.Destination, i, hop.ID, d)
		}
	}

	m := len(rec.Nodes) - 2
	if m <= 0 {
		return SubPath{}, nil
	}

	sp := SubPath{
		IDs:       make([]NodeID, m),
		Distances: make([]float64, m-1),
		Prefix:    make([]float64, m),
	}
	for i := 0; i < m; i++ {
		sp.IDs[i] = rec.Nodes[i+1].ID
	}
	for i := 0; i < m-1; i++ {
		sp.Distances[i] = rec.Nodes[i+1].DistanceToNext
		sp.Prefix[i+1] = sp.Prefix[i] + sp.Distances[i]
	}
	return sp, nil
}

// Len returns M, the number of interior nodes.
func (sp SubPath) Len() int {
	return len(sp.IDs)
}

// Total returns the summed distance of the interior sub-path.
func (sp SubPath) Total() float64 {
	if len(sp.Prefix) == 0 {
		return 0
	}
	return sp.Prefix[len(sp.Prefix)-1]
}

// IsValidSite reports whether index i may host a regenerator or an OPC. The
// two ends of the interior sub-path are excluded.
func (sp SubPath) IsValidSite(i int) bool {
	return i >= 1 && i <= sp.Len()-2
}

// Span returns the distance between sub-path indices i and j.
func (sp SubPath) Span(i, j int) float64 {
	return math.Abs(sp.Prefix[j] - sp.Prefix[i])
}
