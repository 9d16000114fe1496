package simplify

import "github.com/Faultbox/lodgen/pkg/meshopt"

// Importance weights fed to the decimation routine. Texture-coordinate
// discontinuities are usually more visually important to preserve than
// smooth-varying normals, and the first UV channel is assumed to be the
// primary (base color) one.
const (
	weightPrimaryUV   = 1.5
	weightSecondaryUV = 0.8
	weightNormal      = 0.5
)

// attributeBudget is the subset of optional attributes selected to
// accompany positions into the decimation routine, bounded by the
// routine's slot and stride ceilings. An empty budget (components == 0)
// means position-only simplification.
type attributeBudget struct {
	uvChannels int
	useNormals bool
	components int
}

// allocateBudget fits the mesh's optional attributes under the decimation
// ceilings. UV channels are dropped highest-index first, then normals.
// Over-budget layouts degrade silently to an empty budget; this is never
// an error.
func allocateBudget(layout meshLayout) attributeBudget {
	b := attributeBudget{
		uvChannels: layout.uvChannels,
		useNormals: layout.hasNormals,
	}
	count := func() int {
		n := b.uvChannels * 2
		if b.useNormals {
			n += 3
		}
		return n
	}

	for count() > meshopt.MaxAttributes && b.uvChannels > 0 {
		b.uvChannels--
	}
	if count() > meshopt.MaxAttributes {
		b.useNormals = false
	}

	b.components = count()
	if b.components*4 > meshopt.MaxStrideBytes {
		return attributeBudget{}
	}
	return b
}

// buildAttributes lays the budgeted streams out as one flat float32 array
// (components per vertex) plus a parallel per-component weight array.
func buildAttributes(verts []vertexRecord, b attributeBudget) (data, weights []float32) {
	if b.components == 0 {
		return nil, nil
	}
	data = make([]float32, len(verts)*b.components)
	weights = make([]float32, b.components)

	offset := 0
	for ch := 0; ch < b.uvChannels; ch++ {
		w := float32(weightSecondaryUV)
		if ch == 0 {
			w = weightPrimaryUV
		}
		weights[offset] = w
		weights[offset+1] = w
		for i := range verts {
			data[i*b.components+offset] = verts[i].uv[ch][0]
			data[i*b.components+offset+1] = verts[i].uv[ch][1]
		}
		offset += 2
	}
	if b.useNormals {
		weights[offset] = weightNormal
		weights[offset+1] = weightNormal
		weights[offset+2] = weightNormal
		for i := range verts {
			data[i*b.components+offset] = verts[i].normal[0]
			data[i*b.components+offset+1] = verts[i].normal[1]
			data[i*b.components+offset+2] = verts[i].normal[2]
		}
	}
	return data, weights
}
