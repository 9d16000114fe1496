package meshopt

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Simplify reduces the triangle list to at most targetIndexCount indices
// using greedy edge collapse on positions alone. The returned error value
// is the largest collapsed edge cost relative to the mesh extent.
//
// targetError is the error the caller considers acceptable, relative to
// the mesh extent. Collapses under that threshold are taken freely; the
// routine keeps collapsing past it if needed, so the result always
// satisfies len(result) <= targetIndexCount.
func Simplify(indices []uint32, positions [][3]float32, targetIndexCount int, targetError float32) ([]uint32, float32) {
	return SimplifyWithAttributes(indices, positions, nil, 0, nil, targetIndexCount, targetError)
}

// SimplifyWithAttributes is Simplify with extra per-vertex attribute
// streams influencing the collapse order. attributes holds attrStride
// float32 components per vertex; weights holds one importance weight per
// component. Attribute differences across an edge raise its collapse cost
// in proportion to the squared weight, steering collapses away from
// attribute discontinuities.
//
// Panics if the attribute inputs exceed MaxAttributes components or
// MaxStrideBytes bytes per vertex, matching the documented ceilings.
func SimplifyWithAttributes(indices []uint32, positions [][3]float32, attributes []float32, attrStride int, weights []float32, targetIndexCount int, targetError float32) ([]uint32, float32) {
	if attrStride > MaxAttributes || attrStride*4 > MaxStrideBytes {
		panic("meshopt: attribute stride exceeds documented ceiling")
	}
	if attrStride > 0 && len(weights) != attrStride {
		panic("meshopt: weights length must match attribute stride")
	}
	if targetIndexCount < 0 {
		targetIndexCount = 0
	}
	targetIndexCount -= targetIndexCount % 3

	// Vertex collapse chains: parent[v] == v means v is live.
	parent := make([]uint32, len(positions))
	for i := range parent {
		parent[i] = uint32(i)
	}
	resolve := func(v uint32) uint32 {
		for parent[v] != v {
			parent[v] = parent[parent[v]] // path halving
			v = parent[v]
		}
		return v
	}

	extent := meshExtent(positions)
	if extent == 0 {
		extent = 1
	}

	tris := liveTriangles(indices, resolve)
	var maxCost float64

	for len(tris)*3 > targetIndexCount {
		edges := collectEdges(tris, positions, attributes, attrStride, weights)
		if len(edges) == 0 {
			break
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].cost != edges[j].cost {
				return edges[i].cost < edges[j].cost
			}
			if edges[i].from != edges[j].from {
				return edges[i].from < edges[j].from
			}
			return edges[i].to < edges[j].to
		})

		// One pass: collapse cheapest edges with untouched endpoints until
		// enough triangles are gone, then re-derive the live triangle list.
		touched := make(map[uint32]bool)
		collapsed := 0
		for _, e := range edges {
			if len(tris)*3-collapsed*6 <= targetIndexCount && collapsed > 0 {
				break
			}
			u, v := resolve(e.from), resolve(e.to)
			if u == v || touched[u] || touched[v] {
				continue
			}
			parent[u] = v
			touched[u], touched[v] = true, true
			collapsed++
			if c := float64(e.cost); c > maxCost {
				maxCost = c
			}
		}
		if collapsed == 0 {
			break
		}
		next := liveTriangles(trianglesToIndices(tris), resolve)
		if len(next) == len(tris) {
			break // collapses produced no degenerate triangles; cannot reach target
		}
		tris = next
	}

	// The per-pass batching can overshoot the triangle budget boundary by a
	// pass; trim whole triangles if still above target.
	if targetIndexCount >= 3 && len(tris)*3 > targetIndexCount {
		tris = tris[:targetIndexCount/3]
	} else if targetIndexCount == 0 {
		tris = tris[:0]
	}

	return trianglesToIndices(tris), float32(math.Sqrt(maxCost)) / extent
}

type edge struct {
	from, to uint32
	cost     float32
}

type triangle [3]uint32

func meshExtent(positions [][3]float32) float32 {
	if len(positions) == 0 {
		return 0
	}
	min, max := positions[0], positions[0]
	for _, p := range positions {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	d := mgl32.Vec3{max[0] - min[0], max[1] - min[1], max[2] - min[2]}
	return d.Len()
}

// liveTriangles resolves every index through the collapse chains and drops
// triangles that became degenerate.
func liveTriangles(indices []uint32, resolve func(uint32) uint32) []triangle {
	tris := make([]triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := resolve(indices[i]), resolve(indices[i+1]), resolve(indices[i+2])
		if a == b || b == c || a == c {
			continue
		}
		tris = append(tris, triangle{a, b, c})
	}
	return tris
}

func trianglesToIndices(tris []triangle) []uint32 {
	out := make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

// collectEdges gathers each undirected edge once with its collapse cost.
func collectEdges(tris []triangle, positions [][3]float32, attributes []float32, attrStride int, weights []float32) []edge {
	seen := make(map[uint64]bool, len(tris)*3)
	edges := make([]edge, 0, len(tris)*3)
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			u, v := t[k], t[(k+1)%3]
			if u > v {
				u, v = v, u
			}
			key := uint64(u)<<32 | uint64(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, edge{from: u, to: v,
				cost: collapseCost(u, v, positions, attributes, attrStride, weights)})
		}
	}
	return edges
}

func collapseCost(u, v uint32, positions [][3]float32, attributes []float32, attrStride int, weights []float32) float32 {
	pu, pv := positions[u], positions[v]
	d := mgl32.Vec3{pu[0] - pv[0], pu[1] - pv[1], pu[2] - pv[2]}
	cost := d.LenSqr()
	if attrStride > 0 {
		au := attributes[int(u)*attrStride : int(u+1)*attrStride]
		av := attributes[int(v)*attrStride : int(v+1)*attrStride]
		for k := 0; k < attrStride; k++ {
			diff := (au[k] - av[k]) * weights[k]
			cost += diff * diff
		}
	}
	return cost
}
