// Package meshopt provides the geometric decimation routine and the
// index-buffer optimization passes consumed by the simplification driver.
//
// Contract, relied on by callers:
//   - Simplify and SimplifyWithAttributes never return more than
//     targetIndexCount indices and the result length is a multiple of 3.
//   - Attribute data is bounded: at most MaxAttributes weighted components
//     per vertex and at most MaxStrideBytes bytes per vertex record.
//   - OptimizeVertexCache and OptimizeOverdraw reorder triangles only;
//     they never change the set of referenced vertices.
package meshopt

// Hard ceilings on attribute input, mirrored by the attribute budget
// allocator in pkg/simplify.
const (
	MaxAttributes  = 32
	MaxStrideBytes = 256
)

// CacheSize is the simulated post-transform vertex cache size used by
// OptimizeVertexCache.
const CacheSize = 16
