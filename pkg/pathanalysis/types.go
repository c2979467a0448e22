package pathanalysis

import (
	"errors"
	"math"
)

// DefaultReachThresholdKm is the reach limit used when no threshold is configured.
const DefaultReachThresholdKm = 1500.0

// Sentinel errors returned by the analyzer.
var (
	// ErrBadThreshold indicates a reach threshold that is zero, negative, NaN or infinite.
	ErrBadThreshold = errors.New("pathanalysis: reach threshold must be a positive finite number")

	// ErrMalformedRecord indicates a record that breaks the structural contract
	// the parser is expected to enforce.
	ErrMalformedRecord = errors.New("pathanalysis: malformed path record")
)

// NodeID identifies a network element in the simulator output.
type NodeID uint64

// Hop is one element of a path together with the distance to its successor.
type Hop struct {
	ID             NodeID  `json:"id" yaml:"id"`
	DistanceToNext float64 `json:"distanceToNext" yaml:"distanceToNext" validate:"gte=0"`
}

// PathRecord is a single simulated path. The last hop has no successor and
// carries a zero distance.
type PathRecord struct {
	Source      NodeID `json:"source" yaml:"source"`
	Destination NodeID `json:"destination" yaml:"destination"`
	Nodes       []Hop  `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`

	// Simulator metadata; zero when the line did not carry it.
	Cost      float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	LinkCount int     `json:"linkCount,omitempty" yaml:"linkCount,omitempty"`
}

// Status is the terminal outcome of an analysis.
type Status string

const (
	StatusOK          Status = "OK"
	StatusUnreachable Status = "UNREACHABLE"
)

// Section is an inclusive index range [Start, End] of the interior sub-path.
type Section struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of nodes in the section, both anchors included.
func (s Section) Len() int {
	return s.End - s.Start + 1
}

// Contains reports whether idx lies strictly between the section anchors.
func (s Section) Contains(idx int) bool {
	return idx > s.Start && idx < s.End
}

// AnalysisResult is the outcome of analyzing one PathRecord. Regenerators and
// OPCs are never nil so that serialized output is empty-safe.
type AnalysisResult struct {
	Source           NodeID   `json:"source" yaml:"source"`
	Destination      NodeID   `json:"destination" yaml:"destination"`
	TotalDistance    float64  `json:"totalDistance" yaml:"totalDistance"`
	Regenerators     []NodeID `json:"regenerators" yaml:"regenerators"`
	OPCs             []NodeID `json:"opcs" yaml:"opcs"`
	ResidualDistance float64  `json:"residualDistance" yaml:"residualDistance"`
	Status           Status   `json:"status" yaml:"status"`

	// Positions in the interior sub-path, parallel to Regenerators and OPCs.
	RegeneratorIndices []int     `json:"regeneratorIndices,omitempty" yaml:"regeneratorIndices,omitempty"`
	OPCIndices         []int     `json:"opcIndices,omitempty" yaml:"opcIndices,omitempty"`
	Sections           []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	Stage              Stage     `json:"stage" yaml:"stage"`
}

// Placement is an ordered list of chosen sites, each id carried with its
// sub-path index so positions are never re-derived from ids.
type Placement struct {
	IDs     []NodeID
	Indices []int
}

// Len returns the number of placed sites.
func (p Placement) Len() int {
	return len(p.Indices)
}

// Last returns the index of the last placed site.
func (p Placement) Last() (int, bool) {
	if len(p.Indices) == 0 {
		return 0, false
	}
	return p.Indices[len(p.Indices)-1], true
}

func (p *Placement) add(id NodeID, idx int) {
	p.IDs = append(p.IDs, id)
	p.Indices = append(p.Indices, idx)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
