package sceneio

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/lodgen/pkg/scene"
)

type texKey struct {
	key  string
	wrap scene.Wrap
}

type exporter struct {
	doc      *gltf.Document
	s        *scene.Scene
	imageIdx []int // scene image index -> document image index
	imgCache map[string]int
	texCache map[texKey]int
	samplers map[scene.Wrap]int
}

func exportDocument(s *scene.Scene) (*gltf.Document, error) {
	e := &exporter{
		doc:      gltf.NewDocument(),
		s:        s,
		imgCache: make(map[string]int),
		texCache: make(map[texKey]int),
		samplers: make(map[scene.Wrap]int),
	}
	if err := e.exportImages(); err != nil {
		return nil, err
	}
	e.exportMaterials()
	if err := e.exportNodes(); err != nil {
		return nil, err
	}
	e.exportSkins()
	return e.doc, nil
}

func (e *exporter) exportImages() error {
	for _, img := range e.s.Images {
		idx, err := modeler.WriteImage(e.doc, img.Name, img.MimeType, bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("%w: image %q: %v", ErrExportFailed, img.Name, err)
		}
		e.imageIdx = append(e.imageIdx, idx)
	}
	return nil
}

// texture returns the document texture index for a material reference,
// creating the image, sampler and texture entries on first use.
func (e *exporter) texture(ref scene.TextureRef) (int, bool) {
	if !ref.Embedded() && ref.URI == "" {
		return 0, false
	}
	k := texKey{key: ref.Key(), wrap: ref.Wrap}
	if idx, ok := e.texCache[k]; ok {
		return idx, true
	}

	var imgIdx int
	if ref.Embedded() {
		if ref.Image >= len(e.imageIdx) {
			return 0, false
		}
		imgIdx = e.imageIdx[ref.Image]
	} else if idx, ok := e.imgCache[ref.URI]; ok {
		imgIdx = idx
	} else {
		imgIdx = len(e.doc.Images)
		e.doc.Images = append(e.doc.Images, &gltf.Image{Name: ref.URI, URI: ref.URI})
		e.imgCache[ref.URI] = imgIdx
	}

	texIdx := len(e.doc.Textures)
	e.doc.Textures = append(e.doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(e.samplerFor(ref.Wrap)),
		Source:  gltf.Index(imgIdx),
	})
	e.texCache[k] = texIdx
	return texIdx, true
}

func (e *exporter) samplerFor(w scene.Wrap) int {
	if idx, ok := e.samplers[w]; ok {
		return idx
	}
	mode := gltf.WrapRepeat
	if w == scene.WrapClamp {
		mode = gltf.WrapClampToEdge
	}
	idx := len(e.doc.Samplers)
	e.doc.Samplers = append(e.doc.Samplers, &gltf.Sampler{WrapS: mode, WrapT: mode})
	e.samplers[w] = idx
	return idx
}

// roleTexture resolves a material role to a document texture. glTF binds
// one texture per role, so only the first slot is exported.
func (e *exporter) roleTexture(mat *scene.Material, role scene.Role) (int, bool) {
	refs := mat.Textures[role]
	if len(refs) == 0 {
		return 0, false
	}
	return e.texture(refs[0])
}

func (e *exporter) exportMaterials() {
	for _, mat := range e.s.Materials {
		pbr := &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{
				float64(mat.BaseColorFactor[0]), float64(mat.BaseColorFactor[1]),
				float64(mat.BaseColorFactor[2]), float64(mat.BaseColorFactor[3]),
			},
			MetallicFactor:  gltf.Float(float64(mat.MetallicFactor)),
			RoughnessFactor: gltf.Float(float64(mat.RoughnessFactor)),
		}
		gm := &gltf.Material{Name: mat.Name, PBRMetallicRoughness: pbr}
		if idx, ok := e.roleTexture(mat, scene.RoleBaseColor); ok {
			pbr.BaseColorTexture = &gltf.TextureInfo{Index: idx}
		}
		if idx, ok := e.roleTexture(mat, scene.RoleMetalRough); ok {
			pbr.MetallicRoughnessTexture = &gltf.TextureInfo{Index: idx}
		}
		if idx, ok := e.roleTexture(mat, scene.RoleNormal); ok {
			gm.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(idx)}
		}
		if idx, ok := e.roleTexture(mat, scene.RoleOcclusion); ok {
			gm.OcclusionTexture = &gltf.OcclusionTexture{Index: gltf.Index(idx)}
		}
		if idx, ok := e.roleTexture(mat, scene.RoleEmissive); ok {
			gm.EmissiveTexture = &gltf.TextureInfo{Index: idx}
			// The default emissive factor is black, which would zero out
			// the texture.
			gm.EmissiveFactor = [3]float64{1, 1, 1}
		}
		e.doc.Materials = append(e.doc.Materials, gm)
	}
}

func (e *exporter) exportNodes() error {
	for _, n := range e.s.Nodes {
		gn := &gltf.Node{
			Name: n.Name,
			Translation: [3]float64{
				float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2]),
			},
			Rotation: [4]float64{
				float64(n.Rotation[0]), float64(n.Rotation[1]),
				float64(n.Rotation[2]), float64(n.Rotation[3]),
			},
			Scale: [3]float64{
				float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2]),
			},
			Children: append([]int(nil), n.Children...),
		}
		if n.Mesh >= 0 && n.Mesh < len(e.s.Meshes) {
			meshIdx, err := e.exportMesh(e.s.Meshes[n.Mesh])
			if err != nil {
				return err
			}
			gn.Mesh = gltf.Index(meshIdx)
		}
		if n.Skin >= 0 && n.Skin < len(e.s.Skins) {
			gn.Skin = gltf.Index(n.Skin)
		}
		e.doc.Nodes = append(e.doc.Nodes, gn)
	}
	e.doc.Scenes[0].Nodes = append([]int(nil), e.s.Roots...)
	return nil
}

func (e *exporter) exportMesh(m *scene.Mesh) (int, error) {
	if len(m.Positions) == 0 {
		return 0, fmt.Errorf("%w: mesh %q has no vertices", ErrExportFailed, m.Name)
	}

	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(e.doc, m.Positions),
	}
	if len(m.Normals) == len(m.Positions) {
		attrs[gltf.NORMAL] = modeler.WriteNormal(e.doc, m.Normals)
	}
	if len(m.Tangents) == len(m.Positions) {
		attrs[gltf.TANGENT] = modeler.WriteTangent(e.doc, mergeTangents(m))
	}
	for ch, uv := range m.UVs {
		flat := make([][2]float32, len(uv))
		for i, t := range uv {
			flat[i] = [2]float32{t[0], t[1]}
		}
		attrs[fmt.Sprintf("TEXCOORD_%d", ch)] = modeler.WriteTextureCoord(e.doc, flat)
	}
	for ch, col := range m.Colors {
		attrs[fmt.Sprintf("COLOR_%d", ch)] = modeler.WriteColor(e.doc, col)
	}
	if len(m.Bones) > 0 {
		joints, weights := packWeights(m)
		attrs[gltf.JOINTS_0] = modeler.WriteJoints(e.doc, joints)
		attrs[gltf.WEIGHTS_0] = modeler.WriteWeights(e.doc, weights)
	}

	prim := &gltf.Primitive{Attributes: attrs}
	if len(m.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(e.doc, m.Indices))
	}
	switch m.Primitive {
	case scene.Triangles:
		prim.Mode = gltf.PrimitiveTriangles
	case scene.Lines:
		prim.Mode = gltf.PrimitiveLines
	case scene.Points:
		prim.Mode = gltf.PrimitivePoints
	}
	if m.MaterialIndex >= 0 && m.MaterialIndex < len(e.doc.Materials) {
		prim.Material = gltf.Index(m.MaterialIndex)
	}

	idx := len(e.doc.Meshes)
	e.doc.Meshes = append(e.doc.Meshes, &gltf.Mesh{
		Name:       m.Name,
		Primitives: []*gltf.Primitive{prim},
	})
	return idx, nil
}

func (e *exporter) exportSkins() {
	for _, sk := range e.s.Skins {
		gs := &gltf.Skin{
			Name:   sk.Name,
			Joints: append([]int(nil), sk.Joints...),
		}
		if len(sk.InverseBindMatrices) > 0 {
			mats := make([][4][4]float32, len(sk.InverseBindMatrices))
			for i, ibm := range sk.InverseBindMatrices {
				for a := 0; a < 4; a++ {
					for b := 0; b < 4; b++ {
						mats[i][a][b] = ibm[a*4+b]
					}
				}
			}
			gs.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(e.doc, gltf.TargetNone, mats))
		}
		e.doc.Skins = append(e.doc.Skins, gs)
	}
}

// mergeTangents rebuilds vec4 tangents, recovering the handedness sign
// from the stored bitangent.
func mergeTangents(m *scene.Mesh) [][4]float32 {
	out := make([][4]float32, len(m.Tangents))
	paired := len(m.Normals) == len(m.Tangents) && len(m.Bitangents) == len(m.Tangents)
	for i, t := range m.Tangents {
		w := float32(1)
		if paired {
			n := mgl32.Vec3{m.Normals[i][0], m.Normals[i][1], m.Normals[i][2]}
			tv := mgl32.Vec3{t[0], t[1], t[2]}
			b := mgl32.Vec3{m.Bitangents[i][0], m.Bitangents[i][1], m.Bitangents[i][2]}
			if n.Cross(tv).Dot(b) < 0 {
				w = -1
			}
		}
		out[i] = [4]float32{t[0], t[1], t[2], w}
	}
	return out
}

// packWeights flattens per-bone weight lists back into per-vertex joint
// and weight quads. Influences past the fourth on a vertex are dropped.
func packWeights(m *scene.Mesh) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, len(m.Positions))
	weights := make([][4]float32, len(m.Positions))
	count := make([]uint8, len(m.Positions))
	for _, b := range m.Bones {
		for _, vw := range b.Weights {
			v := int(vw.Vertex)
			if v >= len(count) || count[v] >= 4 {
				continue
			}
			joints[v][count[v]] = uint16(b.Joint)
			weights[v][count[v]] = vw.Weight
			count[v]++
		}
	}
	return joints, weights
}
