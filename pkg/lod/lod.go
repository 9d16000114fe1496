// Package lod drives the LOD pipeline: per-ratio scene copies, mesh
// simplification, optional texture downsampling, glTF export and optional
// per-role atlas builds.
package lod

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/lodgen/pkg/atlas"
	"github.com/Faultbox/lodgen/pkg/scene"
	"github.com/Faultbox/lodgen/pkg/sceneio"
	"github.com/Faultbox/lodgen/pkg/simplify"
	"github.com/Faultbox/lodgen/pkg/texture"
)

// Options selects the optional pipeline stages.
type Options struct {
	Textures bool // downsample textures proportionally to each LOD ratio
	Atlas    bool // bake per-role texture atlases into each saved LOD
}

// Info reports what one LOD level produced.
type Info struct {
	Ratio      float32
	OutputPath string // empty for in-memory generation
	Meshes     []simplify.Result
	Textures   texture.Stats
	Atlases    []atlas.Info
}

// TriangleCounts sums the original and simplified triangle counts over
// all meshes of the LOD.
func (in Info) TriangleCounts() (original, simplified int) {
	for _, r := range in.Meshes {
		original += r.OriginalTriangles
		simplified += r.SimplifiedTriangles
	}
	return original, simplified
}

// GenerateLod simplifies every mesh of the scene in place at the given
// ratio. With opts.Textures set, embedded images are downsampled too;
// external texture files are left alone since no output directory is
// involved.
func GenerateLod(s *scene.Scene, ratio float32, opts Options) (Info, error) {
	info := Info{Ratio: ratio}
	for _, m := range s.Meshes {
		info.Meshes = append(info.Meshes, simplify.Mesh(m, ratio))
	}
	if opts.Textures {
		stats, err := texture.ProcessScene(s, ratio, texture.Options{})
		if err != nil {
			return info, err
		}
		info.Textures = stats
	}
	return info, nil
}

// GenerateLods builds one LOD per ratio from the scene loaded at
// inputPath. Each LOD is generated from its own deep copy, so the ratios
// are independent of each other and of the caller's scene, and is saved
// as <outputDir>/lod<N>/<stem>_lod<N><ext>. A failure stops the run;
// LODs already written stay on disk.
func GenerateLods(s *scene.Scene, inputPath, outputDir string, ratios []float32, opts Options) ([]Info, error) {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	modelDir := filepath.Dir(inputPath)

	var infos []Info
	for i, ratio := range ratios {
		level := i + 1
		lodDir := filepath.Join(outputDir, fmt.Sprintf("lod%d", level))
		if err := os.MkdirAll(lodDir, 0o755); err != nil {
			return infos, fmt.Errorf("lod%d: creating %s: %w", level, lodDir, err)
		}

		cp := s.Clone()
		info := Info{Ratio: ratio}
		for _, m := range cp.Meshes {
			info.Meshes = append(info.Meshes, simplify.Mesh(m, ratio))
		}
		if opts.Textures {
			stats, err := texture.ProcessScene(cp, ratio, texture.Options{
				ModelDir:  modelDir,
				OutputDir: lodDir,
			})
			if err != nil {
				return infos, fmt.Errorf("lod%d textures: %w", level, err)
			}
			info.Textures = stats
		}

		outPath := filepath.Join(lodDir, fmt.Sprintf("%s_lod%d%s", stem, level, ext))
		if err := sceneio.Save(cp, outPath); err != nil {
			return infos, fmt.Errorf("lod%d: %w", level, err)
		}
		info.OutputPath = outPath

		if opts.Atlas {
			atlases, err := BuildLodAtlas(outPath, modelDir)
			if err != nil {
				return infos, fmt.Errorf("lod%d atlas: %w", level, err)
			}
			info.Atlases = atlases
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// BuildLodAtlas loads a saved model, bakes its textures into per-role
// atlases written next to it, and saves the model back in place.
// sourceDir resolves external textures that were not copied into the
// model's directory. A model without textures is left untouched.
func BuildLodAtlas(modelPath, sourceDir string) ([]atlas.Info, error) {
	s, err := sceneio.Load(modelPath)
	if err != nil {
		return nil, err
	}
	infos, err := atlas.Build(s, atlas.Options{
		ModelDir:  sourceDir,
		OutputDir: filepath.Dir(modelPath),
	})
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}
	if err := sceneio.Save(s, modelPath); err != nil {
		return nil, err
	}
	return infos, nil
}
