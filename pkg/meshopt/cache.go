package meshopt

// OptimizeVertexCache reorders triangles for post-transform vertex cache
// locality (tipsify-style greedy fanning). Only the triangle order
// changes; the referenced vertex set and each triangle's corner order are
// preserved.
func OptimizeVertexCache(indices []uint32, vertexCount int) []uint32 {
	triCount := len(indices) / 3
	if triCount == 0 {
		return append([]uint32(nil), indices...)
	}

	// Per-vertex adjacency: which triangles use each vertex.
	adjCount := make([]int, vertexCount)
	for _, idx := range indices {
		adjCount[idx]++
	}
	adjOffset := make([]int, vertexCount+1)
	for v := 0; v < vertexCount; v++ {
		adjOffset[v+1] = adjOffset[v] + adjCount[v]
	}
	adj := make([]int, len(indices))
	fill := append([]int(nil), adjOffset[:vertexCount]...)
	for t := 0; t < triCount; t++ {
		for k := 0; k < 3; k++ {
			v := indices[t*3+k]
			adj[fill[v]] = t
			fill[v]++
		}
	}

	liveTris := append([]int(nil), adjCount...)
	emitted := make([]bool, triCount)
	cacheTime := make([]int, vertexCount) // 0 = never in cache
	timestamp := CacheSize + 1

	out := make([]uint32, 0, len(indices))
	var deadEnd []uint32
	cursor := 0 // scan position for finding the next never-emitted triangle

	fanning := int64(-1) // current fanning vertex, -1 = none

	emit := func(t int) {
		emitted[t] = true
		for k := 0; k < 3; k++ {
			v := indices[t*3+k]
			out = append(out, v)
			deadEnd = append(deadEnd, v)
			liveTris[v]--
			if timestamp-cacheTime[v] > CacheSize {
				cacheTime[v] = timestamp
				timestamp++
			}
		}
	}

	nextVertex := func() int64 {
		// Prefer recently used vertices from the dead-end stack.
		for len(deadEnd) > 0 {
			v := deadEnd[len(deadEnd)-1]
			deadEnd = deadEnd[:len(deadEnd)-1]
			if liveTris[v] > 0 {
				return int64(v)
			}
		}
		// Fall back to input order.
		for cursor < triCount {
			if !emitted[cursor] {
				return int64(indices[cursor*3])
			}
			cursor++
		}
		return -1
	}

	for emittedCount := 0; emittedCount < triCount; {
		if fanning < 0 {
			fanning = nextVertex()
			if fanning < 0 {
				break
			}
		}
		progressed := false
		for _, t := range adj[adjOffset[fanning]:adjOffset[fanning+1]] {
			if emitted[t] {
				continue
			}
			emit(t)
			emittedCount++
			progressed = true
		}
		if !progressed {
			fanning = -1
			continue
		}
		// Pick the next fanning vertex: the live neighbor most recently
		// brought into the cache.
		var best int64 = -1
		bestTime := -1
		for _, t := range adj[adjOffset[fanning]:adjOffset[fanning+1]] {
			for k := 0; k < 3; k++ {
				v := indices[t*3+k]
				if liveTris[v] > 0 && cacheTime[v] > bestTime {
					best = int64(v)
					bestTime = cacheTime[v]
				}
			}
		}
		fanning = best
	}

	// Anything the fanning walk missed goes out in input order; the result
	// must be a permutation of the input triangles.
	for t := 0; t < triCount; t++ {
		if !emitted[t] {
			out = append(out, indices[t*3], indices[t*3+1], indices[t*3+2])
		}
	}
	return out
}
