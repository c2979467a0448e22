package pathanalysis

import "math"

// minOPCSectionLen is the smallest section, anchors included, that leaves an
// interior candidate for an OPC.
const minOPCSectionLen = 3

// PlaceOPCs puts at most one OPC in each section. When regens is empty the
// whole sub-path is one section, and it only gets an OPC if the sub-path fits
// within threshold and holds at least three nodes.
func PlaceOPCs(sp SubPath, sections []Section, regens Placement, threshold float64) Placement {
	var opcs Placement

	if regens.Len() == 0 {
		m := sp.Len()
		if m < minOPCSectionLen || sp.Total() > threshold {
			return opcs
		}
		if idx, ok := opcSite(sp, Section{Start: 0, End: m - 1}); ok {
			opcs.add(sp.IDs[idx], idx)
		}
		return opcs
	}

	for _, sec := range sections {
		if idx, ok := opcSite(sp, sec); ok {
			opcs.add(sp.IDs[idx], idx)
		}
	}
	return opcs
}

// opcSite returns the valid interior index of sec whose cumulative distance is
// closest to the section midpoint. Ties go to the lowest index.
func opcSite(sp SubPath, sec Section) (int, bool) {
	if sec.Len() < minOPCSectionLen {
		return 0, false
	}
	secDist := sp.Span(sec.Start, sec.End)
	if secDist <= 0 {
		return 0, false
	}
	midpoint := sp.Prefix[sec.Start] + secDist/2

	best, bestDiff := -1, math.Inf(1)
	for idx := sec.Start + 1; idx < sec.End; idx++ {
		if !sp.IsValidSite(idx) {
			continue
		}
		if diff := math.Abs(sp.Prefix[idx] - midpoint); diff < bestDiff {
			best, bestDiff = idx, diff
		}
	}
	return best, best >= 0
}
