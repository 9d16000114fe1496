package scene

import "strconv"

// Role is the functional slot a texture fills on a material.
type Role int

const (
	RoleBaseColor Role = iota
	RoleNormal
	RoleMetalRough
	RoleOcclusion
	RoleEmissive
)

// Roles lists every texture role in processing order. Base color comes
// first: atlas UV remapping uses the first processed role as its reference.
var Roles = []Role{RoleBaseColor, RoleNormal, RoleMetalRough, RoleOcclusion, RoleEmissive}

// String returns the role suffix used in atlas filenames.
func (r Role) String() string {
	switch r {
	case RoleBaseColor:
		return "basecolor"
	case RoleNormal:
		return "normal"
	case RoleMetalRough:
		return "metalrough"
	case RoleOcclusion:
		return "occlusion"
	case RoleEmissive:
		return "emissive"
	}
	return "unknown"
}

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// TextureRef is one material texture reference: either an external file
// (URI set, Image == -1) or an embedded image (Image set, URI used as the
// display name).
type TextureRef struct {
	URI   string
	Image int // index into Scene.Images, -1 if external
	Wrap  Wrap
}

// Embedded reports whether the reference points at an embedded image.
func (t TextureRef) Embedded() bool { return t.Image >= 0 }

// Key returns the dedup key for this reference: the raw URI for external
// files, or a "*N" style marker for embedded images. Two references with
// the same key always resolve to the same decoded pixels.
func (t TextureRef) Key() string {
	if t.Embedded() {
		return "*" + strconv.Itoa(t.Image)
	}
	return t.URI
}

// Material references textures by role and slot. Most glTF materials have
// at most one slot per role; the slice keeps the (role, slot) addressing
// of the data model.
type Material struct {
	Name     string
	Textures map[Role][]TextureRef

	BaseColorFactor [4]float32
	MetallicFactor  float32
	RoughnessFactor float32
}

// NewMaterial returns a material with neutral factors and no textures.
func NewMaterial(name string) *Material {
	return &Material{
		Name:            name,
		Textures:        make(map[Role][]TextureRef),
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
	}
}
