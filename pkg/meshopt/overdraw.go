package meshopt

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// overdrawClusterSize is the number of consecutive triangles grouped into
// one cluster when reordering for overdraw.
const overdrawClusterSize = 64

// OptimizeOverdraw reorders clusters of consecutive triangles so that
// outward-facing geometry tends to be drawn first, reducing overdraw from
// back-to-front submission. threshold > 1 admits reorderings that trade a
// little cache locality for the overdraw win; at 1.0 the input order is
// kept. Within a cluster the triangle order from OptimizeVertexCache is
// preserved, and the referenced vertex set never changes.
func OptimizeOverdraw(indices []uint32, positions [][3]float32, threshold float32) []uint32 {
	triCount := len(indices) / 3
	if triCount == 0 || threshold <= 1 {
		return append([]uint32(nil), indices...)
	}

	clusterCount := (triCount + overdrawClusterSize - 1) / overdrawClusterSize
	if clusterCount < 2 {
		return append([]uint32(nil), indices...)
	}

	meshCentroid := centroid(indices, positions)

	type cluster struct {
		first, count int // triangle range
		facing       float32
	}
	clusters := make([]cluster, clusterCount)
	for c := range clusters {
		first := c * overdrawClusterSize
		count := overdrawClusterSize
		if first+count > triCount {
			count = triCount - first
		}
		clusters[c] = cluster{
			first:  first,
			count:  count,
			facing: clusterFacing(indices[first*3:(first+count)*3], positions, meshCentroid),
		}
	}

	// Outward-facing clusters first. Stable sort keeps the cache-optimized
	// order among clusters that face the same way.
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].facing > clusters[j].facing
	})

	out := make([]uint32, 0, len(indices))
	for _, c := range clusters {
		out = append(out, indices[c.first*3:(c.first+c.count)*3]...)
	}
	return out
}

// clusterFacing measures how much a cluster faces away from the mesh
// centroid: the average of normal·(centroid direction) over its triangles.
func clusterFacing(indices []uint32, positions [][3]float32, meshCentroid mgl32.Vec3) float32 {
	var sum float32
	tris := 0
	for i := 0; i+2 < len(indices); i += 3 {
		a := mgl32.Vec3(positions[indices[i]])
		b := mgl32.Vec3(positions[indices[i+1]])
		c := mgl32.Vec3(positions[indices[i+2]])
		n := b.Sub(a).Cross(c.Sub(a))
		if n.LenSqr() == 0 {
			continue
		}
		center := a.Add(b).Add(c).Mul(1.0 / 3.0)
		dir := center.Sub(meshCentroid)
		if dir.LenSqr() == 0 {
			continue
		}
		sum += n.Normalize().Dot(dir.Normalize())
		tris++
	}
	if tris == 0 {
		return 0
	}
	return sum / float32(tris)
}

func centroid(indices []uint32, positions [][3]float32) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, idx := range indices {
		sum = sum.Add(mgl32.Vec3(positions[idx]))
	}
	if len(indices) == 0 {
		return sum
	}
	return sum.Mul(1.0 / float32(len(indices)))
}
