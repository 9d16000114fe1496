package simplify

import (
	"testing"

	"github.com/Faultbox/lodgen/pkg/scene"
)

// gridMesh builds an n x n vertex triangle grid with one UV channel and a
// single bone weighting every vertex.
func gridMesh(n int) *scene.Mesh {
	m := &scene.Mesh{
		Name:      "grid",
		Primitive: scene.Triangles,
		Skin:      -1,
	}
	uv := make([][3]float32, 0, n*n)
	var weights []scene.VertexWeight
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Positions = append(m.Positions, [3]float32{float32(x), float32(y), 0})
			m.Normals = append(m.Normals, [3]float32{0, 0, 1})
			uv = append(uv, [3]float32{float32(x) / float32(n-1), float32(y) / float32(n-1), 0})
			weights = append(weights, scene.VertexWeight{Vertex: uint32(y*n + x), Weight: 1})
		}
	}
	m.UVs = [][][3]float32{uv}
	m.Bones = []scene.Bone{{Name: "root", Joint: 0, Weights: weights}}
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			a := uint32(y*n + x)
			b := a + 1
			c := a + uint32(n)
			d := c + 1
			m.Indices = append(m.Indices, a, b, c, b, d, c)
		}
	}
	return m
}

func TestMesh_RatioBounds(t *testing.T) {
	tests := []struct {
		name  string
		ratio float32
	}{
		{"half", 0.5},
		{"quarter", 0.25},
		{"tenth", 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := gridMesh(16)
			origIndices := len(m.Indices)

			result := Mesh(m, tt.ratio)

			maxIndices := int(float64(origIndices)*float64(tt.ratio)) / 3 * 3
			if len(m.Indices) > maxIndices {
				t.Errorf("simplified to %d indices, budget was %d", len(m.Indices), maxIndices)
			}
			if len(m.Indices)%3 != 0 {
				t.Errorf("index count %d not a multiple of 3", len(m.Indices))
			}
			if len(m.Indices) < 3 {
				t.Errorf("mesh degenerated to %d indices, minimum is one triangle", len(m.Indices))
			}
			if result.SimplifiedTriangles != len(m.Indices)/3 {
				t.Errorf("result reports %d triangles, mesh has %d", result.SimplifiedTriangles, len(m.Indices)/3)
			}
			if result.OriginalTriangles != origIndices/3 {
				t.Errorf("result reports %d original triangles, want %d", result.OriginalTriangles, origIndices/3)
			}
		})
	}
}

func TestMesh_StreamsStayConsistent(t *testing.T) {
	m := gridMesh(12)
	Mesh(m, 0.5)

	n := len(m.Positions)
	if len(m.Normals) != n {
		t.Errorf("normals length %d != vertex count %d", len(m.Normals), n)
	}
	if len(m.UVs) != 1 || len(m.UVs[0]) != n {
		t.Errorf("uv channel length mismatch with %d vertices", n)
	}
	for _, idx := range m.Indices {
		if int(idx) >= n {
			t.Fatalf("index %d out of range after compaction (%d vertices)", idx, n)
		}
	}
}

func TestMesh_BoneWeightsRemapped(t *testing.T) {
	m := gridMesh(12)
	Mesh(m, 0.25)

	n := len(m.Positions)
	for _, bone := range m.Bones {
		for _, w := range bone.Weights {
			if int(w.Vertex) >= n {
				t.Fatalf("bone %q references vertex %d, only %d remain", bone.Name, w.Vertex, n)
			}
		}
	}
	// Every surviving vertex was weighted in the input, so the compacted
	// list must cover all of them exactly once.
	if len(m.Bones[0].Weights) != n {
		t.Errorf("bone weight count %d != surviving vertex count %d", len(m.Bones[0].Weights), n)
	}
}

func TestMesh_NonTriangleIsNoOp(t *testing.T) {
	m := &scene.Mesh{
		Name:      "lines",
		Primitive: scene.Lines,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		Indices:   []uint32{0, 1, 1, 2},
		Skin:      -1,
	}
	result := Mesh(m, 0.5)

	if result.OriginalTriangles != 0 || result.SimplifiedTriangles != 0 {
		t.Errorf("non-triangle mesh reported %d -> %d triangles, want 0 -> 0",
			result.OriginalTriangles, result.SimplifiedTriangles)
	}
	if len(m.Indices) != 4 {
		t.Errorf("line indices modified: %d entries left", len(m.Indices))
	}
	if len(m.Positions) != 3 {
		t.Errorf("line vertices modified: %d entries left", len(m.Positions))
	}
}

func TestMesh_EmptyMesh(t *testing.T) {
	m := &scene.Mesh{Primitive: scene.Triangles, Skin: -1}
	result := Mesh(m, 0.5)
	if result.OriginalTriangles != 0 || result.SimplifiedTriangles != 0 {
		t.Errorf("empty mesh reported %+v", result)
	}
}

func TestMesh_InvalidRatioClampsToOne(t *testing.T) {
	m := gridMesh(6)
	orig := len(m.Indices)
	result := Mesh(m, 0)
	if result.SimplifiedTriangles > orig/3 {
		t.Errorf("ratio 0 grew the mesh: %d -> %d triangles", orig/3, result.SimplifiedTriangles)
	}
}

func TestVertexRemap_RemovedIsNotAnIndex(t *testing.T) {
	remap := computeRemap([]uint32{2, 4, 2}, 6)

	if remap.NewCount() != 2 {
		t.Fatalf("NewCount = %d, want 2", remap.NewCount())
	}
	if idx, ok := remap.Lookup(2); !ok || idx != 0 {
		t.Errorf("Lookup(2) = (%d, %v), want (0, true)", idx, ok)
	}
	if idx, ok := remap.Lookup(4); !ok || idx != 1 {
		t.Errorf("Lookup(4) = (%d, %v), want (1, true)", idx, ok)
	}
	for _, removed := range []uint32{0, 1, 3, 5, 99} {
		if _, ok := remap.Lookup(removed); ok {
			t.Errorf("Lookup(%d) reported a mapping for a removed vertex", removed)
		}
	}
}
