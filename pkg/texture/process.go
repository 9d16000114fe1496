package texture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/lodgen/pkg/scene"
)

// Options configures the per-LOD texture resize step.
type Options struct {
	ModelDir  string // source model directory, resolves external texture paths
	OutputDir string // LOD output directory, resized external files land here
}

// Stats reports how many textures the resize step touched.
type Stats struct {
	InputCount  int
	OutputCount int
}

// ProcessScene resizes every texture referenced by the scene proportional
// to the LOD ratio.
//
// Embedded images are decoded, resized and re-encoded in place; material
// references to them stay valid. External files are loaded from ModelDir,
// resized, written into OutputDir under their original leaf name, and the
// material references are rewritten to that leaf name. The same source
// path is processed once no matter how many slots reference it.
func ProcessScene(s *scene.Scene, ratio float32, opts Options) (Stats, error) {
	var stats Stats

	for i, img := range s.Images {
		stats.InputCount++

		decoded, err := Decode(img.Data)
		if err != nil {
			return stats, fmt.Errorf("embedded image %q: %w", img.Name, err)
		}
		resized, err := Resize(decoded, scaleDim(decoded.W, ratio), scaleDim(decoded.H, ratio))
		if err != nil {
			return stats, fmt.Errorf("embedded image %q: %w", img.Name, err)
		}
		hint := decoded.FormatHint
		encoded, err := Encode(resized, hint)
		if err != nil {
			return stats, fmt.Errorf("embedded image %q: %w", img.Name, err)
		}

		img.Data = encoded
		img.MimeType = MimeType(hint)
		if img.Name == "" {
			// Exporters need a filename for the blob.
			img.Name = fmt.Sprintf("texture_%d.%s", i, hint)
		}
		stats.OutputCount++
	}

	if opts.OutputDir == "" {
		return stats, nil // nowhere to write external copies
	}

	// Same source path decodes and writes once; every slot referencing it
	// is rewritten to the one output file.
	written := make(map[string]string) // raw path -> output leaf name

	for _, mat := range s.Materials {
		for _, role := range scene.Roles {
			refs := mat.Textures[role]
			for slot, ref := range refs {
				if ref.Embedded() {
					continue
				}
				leaf, ok := written[ref.URI]
				if !ok {
					stats.InputCount++

					decoded, err := Load(filepath.Join(opts.ModelDir, ref.URI))
					if err != nil {
						return stats, err
					}
					resized, err := Resize(decoded, scaleDim(decoded.W, ratio), scaleDim(decoded.H, ratio))
					if err != nil {
						return stats, err
					}
					encoded, err := Encode(resized, decoded.FormatHint)
					if err != nil {
						return stats, err
					}

					leaf = filepath.Base(ref.URI)
					dest := filepath.Join(opts.OutputDir, leaf)
					if err := os.WriteFile(dest, encoded, 0o644); err != nil {
						return stats, fmt.Errorf("%w: writing %s: %v", ErrEncodeFailed, dest, err)
					}
					written[ref.URI] = leaf
					stats.OutputCount++
				}
				refs[slot].URI = leaf
			}
		}
	}
	return stats, nil
}

// scaleDim scales a texture dimension by the LOD ratio, never below one
// pixel.
func scaleDim(dim int, ratio float32) int {
	scaled := int(float32(dim) * ratio)
	if scaled < 1 {
		return 1
	}
	return scaled
}
