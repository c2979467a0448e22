package pathanalysis

import (
	"fmt"
	"math"
	"strings"
)

// ResidualPolicy selects how the trailing span after the last regenerator is
// counted once OPCs are placed.
type ResidualPolicy int

const (
	// ResidualCanonical adds the trailing span whenever regenerators exist,
	// even if the final section already contributed an OPC imbalance.
	ResidualCanonical ResidualPolicy = iota

	// ResidualSkipCompensatedTail adds the trailing span only when the final
	// section holds no OPC.
	ResidualSkipCompensatedTail
)

// String returns the policy name used in configuration.
func (p ResidualPolicy) String() string {
	switch p {
	case ResidualCanonical:
		return "canonical"
	case ResidualSkipCompensatedTail:
		return "skip-compensated-tail"
	default:
		return fmt.Sprintf("ResidualPolicy(%d)", int(p))
	}
}

// ParseResidualPolicy converts a configuration name to a policy. The empty
// string selects ResidualCanonical.
func ParseResidualPolicy(s string) (ResidualPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical":
		return ResidualCanonical, nil
	case "skip-compensated-tail":
		return ResidualSkipCompensatedTail, nil
	default:
		return ResidualCanonical, fmt.Errorf("unknown residual policy %q", s)
	}
}

// ResidualDistance returns the uncompensated distance left after placement,
// rounded to two decimals. sections must come from Partition over the same
// regenerators; with no regenerators that is the single whole-path section.
//
// Without OPCs it is the whole sub-path, or the span from the last regenerator
// to the end when regenerators exist. With OPCs it is the sum of |left-right|
// over every section holding an OPC, plus that same trailing span.
func ResidualDistance(sp SubPath, sections []Section, regens, opcs Placement, policy ResidualPolicy) float64 {
	tail := trailingSpan(sp, regens)

	if opcs.Len() == 0 {
		if regens.Len() == 0 {
			return round2(sp.Total())
		}
		return round2(tail)
	}

	imbalance := 0.0
	lastCompensated := false
	for i, sec := range sections {
		opc, ok := opcIn(sec, opcs)
		if !ok {
			continue
		}
		left := sp.Span(sec.Start, opc)
		right := sp.Span(opc, sec.End)
		imbalance += math.Abs(left - right)
		if i == len(sections)-1 {
			lastCompensated = true
		}
	}

	if policy == ResidualSkipCompensatedTail && lastCompensated {
		tail = 0
	}
	return round2(imbalance + tail)
}

// trailingSpan is the distance from the last regenerator to the end of the
// sub-path, or zero when there are no regenerators.
func trailingSpan(sp SubPath, regens Placement) float64 {
	last, ok := regens.Last()
	if !ok {
		return 0
	}
	return sp.Span(last, sp.Len()-1)
}

// opcIn returns the first OPC strictly inside sec.
func opcIn(sec Section, opcs Placement) (int, bool) {
	for _, idx := range opcs.Indices {
		if sec.Contains(idx) {
			return idx, true
		}
	}
	return 0, false
}
