package scene

// Clone returns a deep copy of the scene. The copy shares no mutable state
// with the original, so per-LOD copies can be processed independently.
func (s *Scene) Clone() *Scene {
	out := &Scene{
		Meshes:    make([]*Mesh, len(s.Meshes)),
		Materials: make([]*Material, len(s.Materials)),
		Images:    make([]*Image, len(s.Images)),
		Nodes:     make([]*Node, len(s.Nodes)),
		Roots:     append([]int(nil), s.Roots...),
		Skins:     make([]*Skin, len(s.Skins)),
	}
	for i, m := range s.Meshes {
		out.Meshes[i] = m.Clone()
	}
	for i, m := range s.Materials {
		out.Materials[i] = m.Clone()
	}
	for i, img := range s.Images {
		out.Images[i] = &Image{
			Name:     img.Name,
			MimeType: img.MimeType,
			Data:     append([]byte(nil), img.Data...),
		}
	}
	for i, n := range s.Nodes {
		c := *n
		c.Children = append([]int(nil), n.Children...)
		out.Nodes[i] = &c
	}
	for i, sk := range s.Skins {
		out.Skins[i] = &Skin{
			Name:                sk.Name,
			Joints:              append([]int(nil), sk.Joints...),
			InverseBindMatrices: append([][16]float32(nil), sk.InverseBindMatrices...),
		}
	}
	return out
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Name:          m.Name,
		Primitive:     m.Primitive,
		Positions:     append([][3]float32(nil), m.Positions...),
		Normals:       append([][3]float32(nil), m.Normals...),
		Tangents:      append([][3]float32(nil), m.Tangents...),
		Bitangents:    append([][3]float32(nil), m.Bitangents...),
		Indices:       append([]uint32(nil), m.Indices...),
		MaterialIndex: m.MaterialIndex,
		Skin:          m.Skin,
	}
	if m.UVs != nil {
		out.UVs = make([][][3]float32, len(m.UVs))
		for ch, uv := range m.UVs {
			out.UVs[ch] = append([][3]float32(nil), uv...)
		}
	}
	if m.Colors != nil {
		out.Colors = make([][][4]float32, len(m.Colors))
		for ch, col := range m.Colors {
			out.Colors[ch] = append([][4]float32(nil), col...)
		}
	}
	if m.Bones != nil {
		out.Bones = make([]Bone, len(m.Bones))
		for i, b := range m.Bones {
			out.Bones[i] = Bone{
				Name:    b.Name,
				Joint:   b.Joint,
				Weights: append([]VertexWeight(nil), b.Weights...),
			}
		}
	}
	return out
}

// Clone returns a deep copy of the material.
func (m *Material) Clone() *Material {
	out := &Material{
		Name:            m.Name,
		Textures:        make(map[Role][]TextureRef, len(m.Textures)),
		BaseColorFactor: m.BaseColorFactor,
		MetallicFactor:  m.MetallicFactor,
		RoughnessFactor: m.RoughnessFactor,
	}
	for role, refs := range m.Textures {
		out.Textures[role] = append([]TextureRef(nil), refs...)
	}
	return out
}
