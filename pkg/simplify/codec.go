// Package simplify reduces the triangle count of a mesh while keeping its
// per-vertex attribute streams and skin bindings consistent.
//
// The pipeline per mesh: pack every attribute stream into one interleaved
// record per vertex, run the decimation routine from pkg/meshopt on the
// index buffer, optimize the new index buffer for cache locality and
// overdraw, then compact the vertex set through a single remap that is
// applied to the records, the index buffer and the bone weights alike.
package simplify

import "github.com/Faultbox/lodgen/pkg/scene"

// vertexRecord is one interleaved vertex sized for the maximum channel
// counts. It exists only during compaction so a single remap pass moves
// every attribute atomically; it is never handed to the decimation routine
// (its full stride exceeds the routine's per-vertex ceiling).
type vertexRecord struct {
	position  [3]float32
	normal    [3]float32
	tangent   [3]float32
	bitangent [3]float32
	uv        [scene.MaxUVChannels][3]float32
	color     [scene.MaxColorChannels][4]float32
}

// meshLayout records which optional streams a mesh actually populates, so
// codec logic never branches on nil slices mid-loop.
type meshLayout struct {
	hasNormals    bool
	hasTangents   bool
	uvChannels    int
	colorChannels int
}

func detectLayout(m *scene.Mesh) meshLayout {
	l := meshLayout{
		hasNormals:  len(m.Normals) > 0,
		hasTangents: len(m.Tangents) > 0,
	}
	for ch := 0; ch < len(m.UVs) && ch < scene.MaxUVChannels; ch++ {
		if len(m.UVs[ch]) == 0 {
			break
		}
		l.uvChannels++
	}
	for ch := 0; ch < len(m.Colors) && ch < scene.MaxColorChannels; ch++ {
		if len(m.Colors[ch]) == 0 {
			break
		}
		l.colorChannels++
	}
	return l
}

// pack copies every present stream into one record per vertex. Absent
// streams stay zeroed and are never read back.
func pack(m *scene.Mesh, layout meshLayout) []vertexRecord {
	verts := make([]vertexRecord, len(m.Positions))
	for i := range verts {
		v := &verts[i]
		v.position = m.Positions[i]
		if layout.hasNormals {
			v.normal = m.Normals[i]
		}
		if layout.hasTangents {
			v.tangent = m.Tangents[i]
			v.bitangent = m.Bitangents[i]
		}
		for ch := 0; ch < layout.uvChannels; ch++ {
			v.uv[ch] = m.UVs[ch][i]
		}
		for ch := 0; ch < layout.colorChannels; ch++ {
			v.color[ch] = m.Colors[ch][i]
		}
	}
	return verts
}

// unpack rebuilds the mesh's attribute slices from a compacted record
// list, allocating only the streams the layout marks present. The mesh's
// previous slices are replaced wholesale; callers must not hold on to
// them. Values are copied, never recomputed, so pack followed by unpack
// with an identity remap is bit-exact.
func unpack(m *scene.Mesh, verts []vertexRecord, layout meshLayout) {
	n := len(verts)

	m.Positions = make([][3]float32, n)
	m.Normals = nil
	m.Tangents = nil
	m.Bitangents = nil
	m.UVs = nil
	m.Colors = nil

	for i := range verts {
		m.Positions[i] = verts[i].position
	}
	if layout.hasNormals {
		m.Normals = make([][3]float32, n)
		for i := range verts {
			m.Normals[i] = verts[i].normal
		}
	}
	if layout.hasTangents {
		m.Tangents = make([][3]float32, n)
		m.Bitangents = make([][3]float32, n)
		for i := range verts {
			m.Tangents[i] = verts[i].tangent
			m.Bitangents[i] = verts[i].bitangent
		}
	}
	if layout.uvChannels > 0 {
		m.UVs = make([][][3]float32, layout.uvChannels)
		for ch := 0; ch < layout.uvChannels; ch++ {
			m.UVs[ch] = make([][3]float32, n)
			for i := range verts {
				m.UVs[ch][i] = verts[i].uv[ch]
			}
		}
	}
	if layout.colorChannels > 0 {
		m.Colors = make([][][4]float32, layout.colorChannels)
		for ch := 0; ch < layout.colorChannels; ch++ {
			m.Colors[ch] = make([][4]float32, n)
			for i := range verts {
				m.Colors[ch][i] = verts[i].color[ch]
			}
		}
	}
}
