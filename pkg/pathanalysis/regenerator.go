package pathanalysis

// PlaceRegenerators scans the interior sub-path from its first node and
// inserts a regenerator whenever the running span exceeds threshold. The
// regenerator goes on the node before the link that overflowed the span, and
// the new span starts with that link.
//
// The second return value is false when the path is unreachable: either the
// required site is not a valid placement site, or a single link is longer
// than threshold. An unreachable scan returns an empty placement.
func PlaceRegenerators(sp SubPath, threshold float64) (Placement, bool) {
	if sp.Total() <= threshold {
		return Placement{}, true
	}

	var regens Placement
	local := 0.0
	for i := 1; i < sp.Len(); i++ {
		link := sp.Distances[i-1]
		local += link
		if local <= threshold {
			continue
		}

		site := i - 1
		if !sp.IsValidSite(site) {
			return Placement{}, false
		}
		regens.add(sp.IDs[site], site)

		local = link
		if local > threshold {
			return Placement{}, false
		}
	}
	return regens, true
}
