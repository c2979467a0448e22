package pathanalysis

import "sort"

// Partition splits an interior sub-path of m nodes into sections bounded by
// its first node, each regenerator and its last node. Sub-paths shorter than
// two nodes have no sections.
func Partition(m int, regenIndices []int) []Section {
	if m < 2 {
		return nil
	}

	anchors := make([]int, 0, len(regenIndices)+2)
	anchors = append(anchors, 0)
	anchors = append(anchors, regenIndices...)
	anchors = append(anchors, m-1)
	sort.Ints(anchors)

	// dedupe in place
	uniq := anchors[:1]
	for _, a := range anchors[1:] {
		if a != uniq[len(uniq)-1] {
			uniq = append(uniq, a)
		}
	}

	sections := make([]Section, 0, len(uniq)-1)
	for i := 0; i+1 < len(uniq); i++ {
		sections = append(sections, Section{Start: uniq[i], End: uniq[i+1]})
	}
	return sections
}
