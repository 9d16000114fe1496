// Package atlas packs the unique textures of each texture role into one
// canvas per role and rewrites material references and mesh UVs to match.
//
// Every role's atlas is packed from the same per-material source grouping
// in the same placement order, which is what makes a single UV transform
// (derived from the reference role) valid across all role atlases.
package atlas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/lodgen/pkg/scene"
	"github.com/Faultbox/lodgen/pkg/texture"
)

// ErrBuildFailed reports an atlas build failure, including canvas size
// overflow. Any failure aborts the whole build; there are no partial
// atlases.
var ErrBuildFailed = errors.New("atlas build failed")

// Options configures one atlas build.
type Options struct {
	ModelDir  string // source model directory for original external textures
	OutputDir string // atlas PNGs are written here, next to the LOD model
}

// Info describes one built atlas.
type Info struct {
	Role       scene.Role
	Filename   string
	InputCount int
	Width      int
	Height     int
}

// slotRef ties one (material, role, slot) triple to its unique source.
type slotRef struct {
	mat    int
	role   scene.Role
	slot   int
	srcIdx int
}

// Build constructs one atlas per texture role used by the scene, writes
// each as atlas_<role>.png into opts.OutputDir, replaces the scene's
// embedded images with the atlases, rewrites every material slot to its
// role atlas with clamp wrapping, and remaps every mesh's UV channels into
// the reference (base color) atlas space.
func Build(s *scene.Scene, opts Options) ([]Info, error) {
	sources := newSourceSet(s, opts.ModelDir, opts.OutputDir)

	// Pass 1: resolve every referenced texture to a unique decoded source.
	// First-seen order across the fixed role order drives placement later.
	var refs []slotRef
	active := make(map[scene.Role]bool)
	for m, mat := range s.Materials {
		for _, role := range scene.Roles {
			for slot, ref := range mat.Textures[role] {
				srcIdx, err := sources.resolve(ref)
				if err != nil {
					return nil, err
				}
				refs = append(refs, slotRef{mat: m, role: role, slot: slot, srcIdx: srcIdx})
				active[role] = true
			}
		}
	}
	if len(sources.sources) == 0 {
		return nil, nil // nothing to atlas
	}

	// Pass 2: per material, the source whose region drives UV remapping.
	// Reference role first, then any role as fallback for materials that
	// lack it (heuristic: see the UV remap note in the package docs).
	matToRefSrc := make([]int, len(s.Materials))
	for i := range matToRefSrc {
		matToRefSrc[i] = -1
	}
	for _, ref := range refs {
		if ref.role == scene.RoleBaseColor && matToRefSrc[ref.mat] == -1 {
			matToRefSrc[ref.mat] = ref.srcIdx
		}
	}
	for _, ref := range refs {
		if matToRefSrc[ref.mat] == -1 {
			matToRefSrc[ref.mat] = ref.srcIdx
		}
	}

	// The old embedded images are all replaced by atlas canvases.
	s.Images = nil

	var infos []Info
	refRegions := make([]Region, len(sources.sources))
	refCanvasW, refCanvasH := 0, 0
	refBuilt := false

	for _, role := range scene.Roles {
		if !active[role] {
			continue
		}

		// Unique sources for this role in first-seen order.
		srcToRoleSlot := make(map[int]int)
		var roleImages []*texture.Image
		var roleSrcIdx []int
		for _, ref := range refs {
			if ref.role != role {
				continue
			}
			if _, ok := srcToRoleSlot[ref.srcIdx]; !ok {
				srcToRoleSlot[ref.srcIdx] = len(roleImages)
				roleImages = append(roleImages, sources.sources[ref.srcIdx].decoded)
				roleSrcIdx = append(roleSrcIdx, ref.srcIdx)
			}
		}

		maxW := 0
		for _, img := range roleImages {
			if img.W > maxW {
				maxW = img.W
			}
		}
		if maxW > MaxCanvasSize {
			return nil, fmt.Errorf("%w: %s source wider than %dpx", ErrBuildFailed, role, MaxCanvasSize)
		}
		canvasW := canvasWidth(maxW, len(roleImages))
		regions, canvasH := shelfPack(roleImages, canvasW)
		if canvasH > MaxCanvasSize {
			return nil, fmt.Errorf("%w: %s canvas height %d exceeds %dpx", ErrBuildFailed, role, canvasH, MaxCanvasSize)
		}

		canvas := make([]byte, canvasW*canvasH*4)
		blit(canvas, canvasW, roleImages, regions)

		encoded, err := texture.Encode(&texture.Image{W: canvasW, H: canvasH, Pix: canvas}, "png")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBuildFailed, role, err)
		}

		filename := fmt.Sprintf("atlas_%s.png", role)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, filename), encoded, 0o644); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", ErrBuildFailed, filename, err)
		}

		// Embed the atlas so binary exports carry it, and point every slot
		// of this role at it. Regions are not meant to tile: clamp.
		imageIdx := len(s.Images)
		s.Images = append(s.Images, &scene.Image{
			Name:     filename,
			MimeType: "image/png",
			Data:     encoded,
		})
		for _, ref := range refs {
			if ref.role != role {
				continue
			}
			s.Materials[ref.mat].Textures[role][ref.slot] = scene.TextureRef{
				URI:   filename,
				Image: imageIdx,
				Wrap:  scene.WrapClamp,
			}
		}

		if role == scene.RoleBaseColor && !refBuilt {
			for i, srcIdx := range roleSrcIdx {
				refRegions[srcIdx] = regions[i]
			}
			refCanvasW, refCanvasH = canvasW, canvasH
			refBuilt = true
		}

		infos = append(infos, Info{
			Role:       role,
			Filename:   filename,
			InputCount: len(roleImages),
			Width:      canvasW,
			Height:     canvasH,
		})
	}

	// All roles are packed before any UV remap runs: the remap depends on
	// the reference role's final placement.
	if refBuilt {
		remapUVs(s, matToRefSrc, refRegions, refCanvasW, refCanvasH)
	}

	sources.removeExternalFiles()
	return infos, nil
}

// remapUVs rewrites every mesh's UV channels into the reference atlas
// coordinate space.
func remapUVs(s *scene.Scene, matToRefSrc []int, regions []Region, canvasW, canvasH int) {
	for _, mesh := range s.Meshes {
		if mesh.MaterialIndex < 0 || mesh.MaterialIndex >= len(s.Materials) {
			continue
		}
		srcIdx := matToRefSrc[mesh.MaterialIndex]
		if srcIdx < 0 {
			continue
		}
		reg := regions[srcIdx]
		if reg.W == 0 || reg.H == 0 {
			continue
		}

		u0 := float32(reg.X) / float32(canvasW)
		v0 := float32(reg.Y) / float32(canvasH)
		uScale := float32(reg.W) / float32(canvasW)
		vScale := float32(reg.H) / float32(canvasH)

		for ch := range mesh.UVs {
			for i := range mesh.UVs[ch] {
				uv := &mesh.UVs[ch][i]
				uv[0] = u0 + uv[0]*uScale
				uv[1] = v0 + uv[1]*vScale
			}
		}
	}
}
