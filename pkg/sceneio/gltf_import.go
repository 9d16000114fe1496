package sceneio

import (
	"fmt"
	"net/http"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/lodgen/pkg/scene"
)

// imageSlot maps one glTF image to its scene representation: an embedded
// blob index, or the relative URI of an external file.
type imageSlot struct {
	embedded int // index into Scene.Images, -1 when external
	uri      string
}

type importer struct {
	doc    *gltf.Document
	out    *scene.Scene
	images []imageSlot
}

func importDocument(doc *gltf.Document) (*scene.Scene, error) {
	imp := &importer{doc: doc, out: &scene.Scene{}}
	if err := imp.importImages(); err != nil {
		return nil, err
	}
	imp.importMaterials()
	if err := imp.importNodes(); err != nil {
		return nil, err
	}
	if err := imp.importSkins(); err != nil {
		return nil, err
	}
	return imp.out, nil
}

func (imp *importer) importImages() error {
	d := imp.doc
	imp.images = make([]imageSlot, len(d.Images))
	for i, img := range d.Images {
		slot := imageSlot{embedded: -1}
		switch {
		case img.BufferView != nil:
			raw, err := modeler.ReadBufferView(d, d.BufferViews[*img.BufferView])
			if err != nil {
				return fmt.Errorf("%w: image %d: %v", ErrImportFailed, i, err)
			}
			slot.embedded = imp.addEmbedded(i, img, raw)
		case img.IsEmbeddedResource():
			raw, err := img.MarshalData()
			if err != nil {
				return fmt.Errorf("%w: image %d: %v", ErrImportFailed, i, err)
			}
			slot.embedded = imp.addEmbedded(i, img, raw)
		case img.URI != "":
			slot.uri = img.URI
		}
		imp.images[i] = slot
	}
	return nil
}

func (imp *importer) addEmbedded(idx int, img *gltf.Image, raw []byte) int {
	mime := img.MimeType
	if mime == "" {
		mime = http.DetectContentType(raw)
	}
	name := img.Name
	if name == "" {
		ext := "png"
		if mime == "image/jpeg" {
			ext = "jpg"
		}
		name = fmt.Sprintf("image_%d.%s", idx, ext)
	}
	imp.out.Images = append(imp.out.Images, &scene.Image{
		Name:     name,
		MimeType: mime,
		Data:     raw,
	})
	return len(imp.out.Images) - 1
}

// textureRef resolves a glTF texture index to a material texture reference.
func (imp *importer) textureRef(texIdx int) (scene.TextureRef, bool) {
	d := imp.doc
	if texIdx < 0 || texIdx >= len(d.Textures) {
		return scene.TextureRef{}, false
	}
	tex := d.Textures[texIdx]
	if tex.Source == nil || *tex.Source >= len(imp.images) {
		return scene.TextureRef{}, false
	}
	slot := imp.images[*tex.Source]
	if slot.embedded < 0 && slot.uri == "" {
		return scene.TextureRef{}, false
	}

	ref := scene.TextureRef{URI: slot.uri, Image: slot.embedded}
	if ref.Embedded() {
		ref.URI = imp.out.Images[ref.Image].Name
	}
	if tex.Sampler != nil && *tex.Sampler < len(d.Samplers) {
		s := d.Samplers[*tex.Sampler]
		if s.WrapS == gltf.WrapClampToEdge || s.WrapT == gltf.WrapClampToEdge {
			ref.Wrap = scene.WrapClamp
		}
	}
	return ref, true
}

func (imp *importer) importMaterials() {
	for _, gm := range imp.doc.Materials {
		mat := scene.NewMaterial(gm.Name)
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.BaseColorFactor = [4]float32{
				float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3]),
			}
			mat.MetallicFactor = float32(pbr.MetallicFactorOrDefault())
			mat.RoughnessFactor = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				imp.addRef(mat, scene.RoleBaseColor, pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				imp.addRef(mat, scene.RoleMetalRough, pbr.MetallicRoughnessTexture.Index)
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			imp.addRef(mat, scene.RoleNormal, *gm.NormalTexture.Index)
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			imp.addRef(mat, scene.RoleOcclusion, *gm.OcclusionTexture.Index)
		}
		if gm.EmissiveTexture != nil {
			imp.addRef(mat, scene.RoleEmissive, gm.EmissiveTexture.Index)
		}
		imp.out.Materials = append(imp.out.Materials, mat)
	}
}

func (imp *importer) addRef(mat *scene.Material, role scene.Role, texIdx int) {
	if ref, ok := imp.textureRef(texIdx); ok {
		mat.Textures[role] = append(mat.Textures[role], ref)
	}
}

func (imp *importer) importNodes() error {
	d := imp.doc
	nodes := make([]*scene.Node, len(d.Nodes))
	for i, gn := range d.Nodes {
		n := &scene.Node{
			Name:     gn.Name,
			Mesh:     -1,
			Skin:     -1,
			Children: append([]int(nil), gn.Children...),
		}
		t := gn.TranslationOrDefault()
		n.Translation = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
		r := gn.RotationOrDefault()
		n.Rotation = [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])}
		sc := gn.ScaleOrDefault()
		n.Scale = [3]float32{float32(sc[0]), float32(sc[1]), float32(sc[2])}
		if gn.Skin != nil {
			n.Skin = *gn.Skin
		}
		nodes[i] = n
	}
	imp.out.Nodes = nodes

	// Attach meshes. A glTF mesh holds one or more primitives; each
	// primitive becomes its own scene mesh, and a multi-primitive mesh
	// hangs one synthetic child node per primitive off the glTF node.
	type meshKey struct{ mesh, skin int }
	cache := make(map[meshKey][]int)
	for i, gn := range d.Nodes {
		if gn.Mesh == nil || *gn.Mesh >= len(d.Meshes) {
			continue
		}
		n := imp.out.Nodes[i]
		key := meshKey{*gn.Mesh, n.Skin}
		meshIdxs, ok := cache[key]
		if !ok {
			gm := d.Meshes[*gn.Mesh]
			for pi, prim := range gm.Primitives {
				name := gm.Name
				if len(gm.Primitives) > 1 {
					name = fmt.Sprintf("%s_prim%d", gm.Name, pi)
				}
				m, err := imp.importPrimitive(name, prim, n.Skin)
				if err != nil {
					return err
				}
				meshIdxs = append(meshIdxs, len(imp.out.Meshes))
				imp.out.Meshes = append(imp.out.Meshes, m)
			}
			cache[key] = meshIdxs
		}
		switch len(meshIdxs) {
		case 0:
		case 1:
			n.Mesh = meshIdxs[0]
		default:
			for pi, mi := range meshIdxs {
				child := &scene.Node{
					Name:     fmt.Sprintf("%s_prim%d", n.Name, pi),
					Rotation: [4]float32{0, 0, 0, 1},
					Scale:    [3]float32{1, 1, 1},
					Mesh:     mi,
					Skin:     n.Skin,
				}
				n.Children = append(n.Children, len(imp.out.Nodes))
				imp.out.Nodes = append(imp.out.Nodes, child)
			}
		}
	}

	if d.Scene != nil && *d.Scene < len(d.Scenes) {
		imp.out.Roots = append([]int(nil), d.Scenes[*d.Scene].Nodes...)
		return nil
	}
	hasParent := make([]bool, len(d.Nodes))
	for _, gn := range d.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	for i := range d.Nodes {
		if !hasParent[i] {
			imp.out.Roots = append(imp.out.Roots, i)
		}
	}
	return nil
}

func (imp *importer) importPrimitive(name string, prim *gltf.Primitive, skinIdx int) (*scene.Mesh, error) {
	d := imp.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: primitive %q has no positions", ErrImportFailed, name)
	}
	positions, err := modeler.ReadPosition(d, d.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: primitive %q positions: %v", ErrImportFailed, name, err)
	}

	m := &scene.Mesh{
		Name:          name,
		Positions:     positions,
		MaterialIndex: -1,
		Skin:          skinIdx,
	}
	if prim.Material != nil {
		m.MaterialIndex = *prim.Material
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if m.Normals, err = modeler.ReadNormal(d, d.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("%w: primitive %q normals: %v", ErrImportFailed, name, err)
		}
	}
	// Tangent reconstruction needs the normal to recover the bitangent.
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok && len(m.Normals) == len(positions) {
		tans, err := modeler.ReadTangent(d, d.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %q tangents: %v", ErrImportFailed, name, err)
		}
		m.Tangents, m.Bitangents = splitTangents(m.Normals, tans)
	}
	for ch := 0; ch < scene.MaxUVChannels; ch++ {
		idx, ok := prim.Attributes[fmt.Sprintf("TEXCOORD_%d", ch)]
		if !ok {
			break
		}
		uv, err := modeler.ReadTextureCoord(d, d.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %q uv %d: %v", ErrImportFailed, name, ch, err)
		}
		out := make([][3]float32, len(uv))
		for i, t := range uv {
			out[i] = [3]float32{t[0], t[1], 0}
		}
		m.UVs = append(m.UVs, out)
	}
	for ch := 0; ch < scene.MaxColorChannels; ch++ {
		idx, ok := prim.Attributes[fmt.Sprintf("COLOR_%d", ch)]
		if !ok {
			break
		}
		col, err := readColors(d, d.Accessors[idx])
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %q color %d: %v", ErrImportFailed, name, ch, err)
		}
		m.Colors = append(m.Colors, col)
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(d, d.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %q indices: %v", ErrImportFailed, name, err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		m.Primitive, m.Indices = scene.Triangles, indices
	case gltf.PrimitiveTriangleStrip:
		m.Primitive, m.Indices = scene.Triangles, triangulateStrip(indices)
	case gltf.PrimitiveTriangleFan:
		m.Primitive, m.Indices = scene.Triangles, triangulateFan(indices)
	case gltf.PrimitiveLines:
		m.Primitive, m.Indices = scene.Lines, indices
	case gltf.PrimitiveLineStrip:
		m.Primitive, m.Indices = scene.Lines, segmentStrip(indices, false)
	case gltf.PrimitiveLineLoop:
		m.Primitive, m.Indices = scene.Lines, segmentStrip(indices, true)
	case gltf.PrimitivePoints:
		m.Primitive, m.Indices = scene.Points, indices
	default:
		return nil, fmt.Errorf("%w: primitive %q: unsupported mode %v", ErrImportFailed, name, prim.Mode)
	}

	if skinIdx >= 0 && skinIdx < len(d.Skins) {
		if err := imp.importWeights(m, prim, skinIdx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// readColors accepts any of the accessor layouts glTF allows for vertex
// colors and widens them to RGBA float.
func readColors(d *gltf.Document, acc *gltf.Accessor) ([][4]float32, error) {
	data, err := modeler.ReadAccessor(d, acc, nil)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case [][4]float32:
		return append([][4]float32(nil), v...), nil
	case [][3]float32:
		out := make([][4]float32, len(v))
		for i, c := range v {
			out[i] = [4]float32{c[0], c[1], c[2], 1}
		}
		return out, nil
	case [][4]uint8:
		out := make([][4]float32, len(v))
		for i, c := range v {
			out[i] = [4]float32{
				float32(c[0]) / 255, float32(c[1]) / 255,
				float32(c[2]) / 255, float32(c[3]) / 255,
			}
		}
		return out, nil
	case [][3]uint8:
		out := make([][4]float32, len(v))
		for i, c := range v {
			out[i] = [4]float32{
				float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, 1,
			}
		}
		return out, nil
	case [][4]uint16:
		out := make([][4]float32, len(v))
		for i, c := range v {
			out[i] = [4]float32{
				float32(c[0]) / 65535, float32(c[1]) / 65535,
				float32(c[2]) / 65535, float32(c[3]) / 65535,
			}
		}
		return out, nil
	case [][3]uint16:
		out := make([][4]float32, len(v))
		for i, c := range v {
			out[i] = [4]float32{
				float32(c[0]) / 65535, float32(c[1]) / 65535, float32(c[2]) / 65535, 1,
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported color layout %T", data)
}

func (imp *importer) importWeights(m *scene.Mesh, prim *gltf.Primitive, skinIdx int) error {
	d := imp.doc
	joIdx, okJ := prim.Attributes[gltf.JOINTS_0]
	weIdx, okW := prim.Attributes[gltf.WEIGHTS_0]
	if !okJ || !okW {
		return nil
	}
	joints, err := modeler.ReadJoints(d, d.Accessors[joIdx], nil)
	if err != nil {
		return fmt.Errorf("%w: mesh %q joints: %v", ErrImportFailed, m.Name, err)
	}
	weights, err := modeler.ReadWeights(d, d.Accessors[weIdx], nil)
	if err != nil {
		return fmt.Errorf("%w: mesh %q weights: %v", ErrImportFailed, m.Name, err)
	}
	if len(weights) < len(joints) {
		joints = joints[:len(weights)]
	}

	sk := d.Skins[skinIdx]
	perJoint := make([][]scene.VertexWeight, len(sk.Joints))
	for v := range joints {
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			if w <= 0 {
				continue
			}
			j := int(joints[v][k])
			if j >= len(perJoint) {
				continue
			}
			perJoint[j] = append(perJoint[j], scene.VertexWeight{Vertex: uint32(v), Weight: w})
		}
	}
	for j, ws := range perJoint {
		if len(ws) == 0 {
			continue
		}
		name := ""
		if nodeIdx := sk.Joints[j]; nodeIdx < len(d.Nodes) {
			name = d.Nodes[nodeIdx].Name
		}
		m.Bones = append(m.Bones, scene.Bone{Name: name, Joint: j, Weights: ws})
	}
	return nil
}

func (imp *importer) importSkins() error {
	d := imp.doc
	for i, gs := range d.Skins {
		sk := &scene.Skin{
			Name:   gs.Name,
			Joints: append([]int(nil), gs.Joints...),
		}
		if gs.InverseBindMatrices != nil {
			data, err := modeler.ReadAccessor(d, d.Accessors[*gs.InverseBindMatrices], nil)
			if err != nil {
				return fmt.Errorf("%w: skin %d bind matrices: %v", ErrImportFailed, i, err)
			}
			mats, ok := data.([][4][4]float32)
			if !ok {
				return fmt.Errorf("%w: skin %d: bind matrix layout %T", ErrImportFailed, i, data)
			}
			sk.InverseBindMatrices = make([][16]float32, len(mats))
			for mi, mat := range mats {
				for a := 0; a < 4; a++ {
					for b := 0; b < 4; b++ {
						sk.InverseBindMatrices[mi][a*4+b] = mat[a][b]
					}
				}
			}
		}
		imp.out.Skins = append(imp.out.Skins, sk)
	}
	return nil
}

// splitTangents separates vec4 tangents into a tangent/bitangent pair,
// with the bitangent recovered as cross(normal, tangent) * w.
func splitTangents(normals [][3]float32, tangents [][4]float32) ([][3]float32, [][3]float32) {
	tan := make([][3]float32, len(tangents))
	bitan := make([][3]float32, len(tangents))
	for i, t := range tangents {
		n := mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		tv := mgl32.Vec3{t[0], t[1], t[2]}
		b := n.Cross(tv).Mul(t[3])
		tan[i] = [3]float32{t[0], t[1], t[2]}
		bitan[i] = [3]float32{b[0], b[1], b[2]}
	}
	return tan, bitan
}

// triangulateStrip expands a triangle strip into a triangle list,
// alternating winding so every triangle faces the same way.
func triangulateStrip(idx []uint32) []uint32 {
	if len(idx) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(idx)-2)*3)
	for i := 0; i+2 < len(idx); i++ {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if i%2 == 1 {
			a, b = b, a
		}
		out = append(out, a, b, c)
	}
	return out
}

// triangulateFan expands a triangle fan into a triangle list.
func triangulateFan(idx []uint32) []uint32 {
	if len(idx) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(idx)-2)*3)
	for i := 1; i+1 < len(idx); i++ {
		out = append(out, idx[0], idx[i], idx[i+1])
	}
	return out
}

// segmentStrip expands a line strip into segment pairs, closing the
// strip back to its first vertex when loop is set.
func segmentStrip(idx []uint32, loop bool) []uint32 {
	if len(idx) < 2 {
		return nil
	}
	out := make([]uint32, 0, len(idx)*2)
	for i := 0; i+1 < len(idx); i++ {
		out = append(out, idx[i], idx[i+1])
	}
	if loop {
		out = append(out, idx[len(idx)-1], idx[0])
	}
	return out
}
