package pathanalysis

// record builds a PathRecord whose interior sub-path has the given ids and
// link distances. The source and destination legs carry distances that must
// never show up in any result.
func record(ids []NodeID, links []float64) PathRecord {
	nodes := make([]Hop, 0, len(ids)+2)
	nodes = append(nodes, Hop{ID: 1000, DistanceToNext: 777})
	for i, id := range ids {
		d := 999.0
		if i < len(links) {
			d = links[i]
		}
		nodes = append(nodes, Hop{ID: id, DistanceToNext: d})
	}
	nodes = append(nodes, Hop{ID: 2000})
	return PathRecord{Source: 1000, Destination: 2000, Nodes: nodes}
}

func ids(n int) []NodeID {
	out := make([]NodeID, n)
	for i := range out {
		out[i] = NodeID(i + 2)
	}
	return out
}

func mustSubPath(rec PathRecord) SubPath {
	sp, err := NewSubPath(rec)
	if err != nil {
		panic(err)
	}
	return sp
}
