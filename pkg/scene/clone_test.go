package scene

import "testing"

func testScene() *Scene {
	mesh := &Mesh{
		Name:      "quad",
		Primitive: Triangles,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs: [][][3]float32{
			{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		},
		Indices:       []uint32{0, 1, 2, 2, 3, 0},
		MaterialIndex: 0,
		Skin:          -1,
		Bones: []Bone{
			{Name: "root", Joint: 0, Weights: []VertexWeight{{Vertex: 0, Weight: 1}}},
		},
	}
	mat := NewMaterial("mat0")
	mat.Textures[RoleBaseColor] = []TextureRef{{URI: "diffuse.png", Image: -1}}
	return &Scene{
		Meshes:    []*Mesh{mesh},
		Materials: []*Material{mat},
		Images:    []*Image{{Name: "blob", MimeType: "image/png", Data: []byte{1, 2, 3}}},
		Nodes:     []*Node{{Name: "root", Scale: [3]float32{1, 1, 1}, Mesh: 0, Skin: -1}},
		Roots:     []int{0},
	}
}

func TestClone_Independent(t *testing.T) {
	src := testScene()
	dst := src.Clone()

	// Mutate every copied slice and make sure the source is untouched.
	dst.Meshes[0].Positions[0] = [3]float32{9, 9, 9}
	dst.Meshes[0].Indices[0] = 99
	dst.Meshes[0].UVs[0][0] = [3]float32{9, 9, 9}
	dst.Meshes[0].Bones[0].Weights[0].Weight = 0
	dst.Materials[0].Textures[RoleBaseColor][0].URI = "other.png"
	dst.Images[0].Data[0] = 0xFF
	dst.Nodes[0].Name = "changed"

	if src.Meshes[0].Positions[0] != ([3]float32{0, 0, 0}) {
		t.Error("mesh positions shared between clone and source")
	}
	if src.Meshes[0].Indices[0] != 0 {
		t.Error("mesh indices shared between clone and source")
	}
	if src.Meshes[0].UVs[0][0] != ([3]float32{0, 0, 0}) {
		t.Error("mesh UVs shared between clone and source")
	}
	if src.Meshes[0].Bones[0].Weights[0].Weight != 1 {
		t.Error("bone weights shared between clone and source")
	}
	if src.Materials[0].Textures[RoleBaseColor][0].URI != "diffuse.png" {
		t.Error("material texture refs shared between clone and source")
	}
	if src.Images[0].Data[0] != 1 {
		t.Error("image data shared between clone and source")
	}
	if src.Nodes[0].Name != "root" {
		t.Error("nodes shared between clone and source")
	}
}

func TestClone_PreservesContent(t *testing.T) {
	src := testScene()
	dst := src.Clone()

	if len(dst.Meshes) != 1 || len(dst.Materials) != 1 || len(dst.Images) != 1 {
		t.Fatalf("clone lost top-level entries: %d meshes, %d materials, %d images",
			len(dst.Meshes), len(dst.Materials), len(dst.Images))
	}
	m := dst.Meshes[0]
	if m.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.TriangleCount())
	}
	if len(m.Positions) != 4 || len(m.Normals) != 4 {
		t.Errorf("vertex streams truncated: %d positions, %d normals", len(m.Positions), len(m.Normals))
	}
}

func TestTriangleCount_NonTriangle(t *testing.T) {
	m := &Mesh{Primitive: Lines, Indices: []uint32{0, 1, 1, 2}}
	if got := m.TriangleCount(); got != 0 {
		t.Errorf("line mesh triangle count = %d, want 0", got)
	}
}

func TestTextureRefKey(t *testing.T) {
	tests := []struct {
		name string
		ref  TextureRef
		want string
	}{
		{"external", TextureRef{URI: "albedo.png", Image: -1}, "albedo.png"},
		{"embedded", TextureRef{URI: "albedo.png", Image: 2}, "*2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
