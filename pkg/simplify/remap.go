package simplify

// VertexRemap maps pre-compaction vertex indices to post-compaction ones.
// A vertex that is no longer referenced has no mapping; Lookup reports
// that through its second return value, so a removed vertex can never be
// mistaken for a valid index.
type VertexRemap struct {
	to       []int32 // -1 marks a removed vertex; only Lookup sees this
	newCount int
}

// Lookup returns the post-compaction index for old, or ok == false if the
// vertex was removed.
func (r VertexRemap) Lookup(old uint32) (uint32, bool) {
	if int(old) >= len(r.to) || r.to[old] < 0 {
		return 0, false
	}
	return uint32(r.to[old]), true
}

// NewCount returns the number of vertices that survived compaction.
func (r VertexRemap) NewCount() int { return r.newCount }

// computeRemap assigns new contiguous indices to exactly the vertices the
// index buffer still references, in first-fetch order.
func computeRemap(indices []uint32, oldCount int) VertexRemap {
	r := VertexRemap{to: make([]int32, oldCount)}
	for i := range r.to {
		r.to[i] = -1
	}
	for _, idx := range indices {
		if r.to[idx] < 0 {
			r.to[idx] = int32(r.newCount)
			r.newCount++
		}
	}
	return r
}

// identityRemap maps every vertex to itself.
func identityRemap(count int) VertexRemap {
	r := VertexRemap{to: make([]int32, count), newCount: count}
	for i := range r.to {
		r.to[i] = int32(i)
	}
	return r
}

// compactRecords gathers the surviving records into their new slots.
func compactRecords(verts []vertexRecord, remap VertexRemap) []vertexRecord {
	out := make([]vertexRecord, remap.newCount)
	for old := range verts {
		if idx, ok := remap.Lookup(uint32(old)); ok {
			out[idx] = verts[old]
		}
	}
	return out
}
