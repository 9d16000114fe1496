// Package scene defines the in-memory scene graph shared by the LOD
// pipeline: meshes, materials, embedded images, nodes and skins.
package scene

// Channel limits for per-vertex attribute streams.
const (
	MaxUVChannels    = 8
	MaxColorChannels = 8
)

// Primitive is the primitive kind of a mesh. Only triangle lists are
// simplified; everything else passes through the pipeline untouched.
type Primitive int

const (
	Triangles Primitive = iota
	Lines
	Points
)

// String returns a human-readable primitive kind name.
func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	case Points:
		return "points"
	}
	return "unknown"
}

// Scene owns ordered lists of meshes, materials and embedded images, plus
// the node hierarchy and skins needed to round-trip a model through export.
type Scene struct {
	Meshes    []*Mesh
	Materials []*Material
	Images    []*Image
	Nodes     []*Node
	Roots     []int // indices into Nodes
	Skins     []*Skin
}

// Mesh holds one mesh's vertex streams and triangle list. Positions are
// required; every other stream is optional. Tangents and Bitangents are
// paired: both present or both absent. All present streams have exactly
// len(Positions) entries.
type Mesh struct {
	Name      string
	Primitive Primitive

	Positions  [][3]float32
	Normals    [][3]float32
	Tangents   [][3]float32
	Bitangents [][3]float32
	UVs        [][][3]float32 // per channel, up to MaxUVChannels
	Colors     [][][4]float32 // per channel, up to MaxColorChannels

	// Indices always holds len%3 == 0 entries for triangle meshes,
	// pairs for lines and single indices for points.
	Indices []uint32

	MaterialIndex int // index into Scene.Materials, -1 if none
	Skin          int // index into Scene.Skins, -1 if none
	Bones         []Bone
}

// VertexWeight binds one vertex to a bone with the given influence.
type VertexWeight struct {
	Vertex uint32
	Weight float32
}

// Bone owns an ordered list of vertex weights. Joint is the bone's slot in
// the mesh's skin (index into Skin.Joints).
type Bone struct {
	Name    string
	Joint   int
	Weights []VertexWeight
}

// TriangleCount returns the number of triangles for triangle meshes and 0
// for any other primitive kind.
func (m *Mesh) TriangleCount() int {
	if m.Primitive != Triangles {
		return 0
	}
	return len(m.Indices) / 3
}

// Image is an embedded image blob (undecoded file bytes).
type Image struct {
	Name     string
	MimeType string // "image/png", "image/jpeg"
	Data     []byte
}

// Node is one element of the scene hierarchy.
type Node struct {
	Name        string
	Translation [3]float32
	Rotation    [4]float32 // quaternion x, y, z, w
	Scale       [3]float32
	Mesh        int // index into Scene.Meshes, -1 if none
	Skin        int // index into Scene.Skins, -1 if none
	Children    []int
}

// Skin binds a mesh to a set of joint nodes.
type Skin struct {
	Name                string
	Joints              []int // indices into Scene.Nodes
	InverseBindMatrices [][16]float32
}
