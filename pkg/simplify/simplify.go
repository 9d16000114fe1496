package simplify

import (
	"github.com/Faultbox/lodgen/pkg/meshopt"
	"github.com/Faultbox/lodgen/pkg/scene"
)

const (
	// errorTolerance is the relative geometric error handed to the
	// decimation routine.
	errorTolerance = 0.01
	// overdrawThreshold is the cache/overdraw trade-off for the overdraw
	// pass.
	overdrawThreshold = 1.05
)

// Result reports what one simplification pass did to a mesh.
type Result struct {
	OriginalTriangles   int
	SimplifiedTriangles int
	Error               float32
}

// Mesh simplifies m in place to roughly ratio times its triangle count.
// Ratio is clamped to (0, 1]; the target index count is always a multiple
// of 3 and at least 3, so a mesh never degenerates to zero triangles.
//
// Meshes whose primitive kind is not a pure triangle list pass through
// untouched: the result reports the original count as the simplified
// count and this is not an error.
func Mesh(m *scene.Mesh, ratio float32) Result {
	result := Result{
		OriginalTriangles:   len(m.Indices) / 3,
		SimplifiedTriangles: len(m.Indices) / 3,
	}
	if m.Primitive != scene.Triangles || len(m.Indices) == 0 {
		if m.Primitive != scene.Triangles {
			result.OriginalTriangles = 0
			result.SimplifiedTriangles = 0
		}
		return result
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	layout := detectLayout(m)
	verts := pack(m, layout)

	target := int(float64(len(m.Indices))*float64(ratio)) / 3 * 3
	if target < 3 {
		target = 3
	}

	// The decimation routine sees tightly packed positions plus the
	// budgeted attribute streams; the full interleaved records are only
	// used for compaction afterwards.
	budget := allocateBudget(layout)
	attrs, weights := buildAttributes(verts, budget)

	var simplified []uint32
	if budget.components > 0 {
		simplified, result.Error = meshopt.SimplifyWithAttributes(
			m.Indices, m.Positions, attrs, budget.components, weights, target, errorTolerance)
	} else {
		simplified, result.Error = meshopt.Simplify(m.Indices, m.Positions, target, errorTolerance)
	}

	// Index-buffer-only post passes: vertex data is untouched and the
	// referenced vertex set stays the same.
	simplified = meshopt.OptimizeVertexCache(simplified, len(verts))
	simplified = meshopt.OptimizeOverdraw(simplified, m.Positions, overdrawThreshold)

	// Compaction: one remap drives the index rewrite, the record
	// compaction and the bone weight rewrite. Using anything but this
	// remap instance for any of the three corrupts the mesh.
	remap := computeRemap(simplified, len(verts))
	for i, idx := range simplified {
		// Every index in simplified has a mapping by construction.
		newIdx, _ := remap.Lookup(idx)
		simplified[i] = newIdx
	}

	remapBones(m, remap)
	unpack(m, compactRecords(verts, remap), layout)
	m.Indices = simplified

	result.SimplifiedTriangles = len(m.Indices) / 3
	return result
}

// remapBones rewrites every bone's vertex bindings through the compaction
// remap, dropping bindings whose vertex was removed and compacting each
// weight list in place.
func remapBones(m *scene.Mesh, remap VertexRemap) {
	for b := range m.Bones {
		weights := m.Bones[b].Weights
		out := weights[:0]
		for _, w := range weights {
			if newIdx, ok := remap.Lookup(w.Vertex); ok {
				w.Vertex = newIdx
				out = append(out, w)
			}
		}
		m.Bones[b].Weights = out
	}
}
