// Package sceneio loads and saves scene graphs as glTF 2.0 files. Both
// the JSON (.gltf) and binary (.glb) containers are supported; the
// container is picked from the file extension.
package sceneio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/lodgen/pkg/scene"
)

// Scene I/O errors.
var (
	ErrNotFound          = errors.New("model file not found")
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrImportFailed      = errors.New("model import failed")
	ErrExportFailed      = errors.New("model export failed")
)

// Load reads a .gltf or .glb file into a scene graph.
func Load(path string) (*scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImportFailed, path, err)
	}
	return importDocument(doc)
}

// Save writes the scene as .gltf or .glb, chosen by the path's extension.
// The scene is exported from a private deep copy with unused materials
// stripped, so the caller's scene is never mutated.
func Save(s *scene.Scene, path string) error {
	var save func(*gltf.Document, string) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		save = gltf.SaveBinary
	case ".gltf":
		save = gltf.Save
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	cp := s.Clone()
	stripUnusedMaterials(cp)
	doc, err := exportDocument(cp)
	if err != nil {
		return err
	}
	if err := save(doc, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExportFailed, path, err)
	}
	return nil
}

// stripUnusedMaterials drops materials no mesh references and remaps the
// surviving mesh material indices.
func stripUnusedMaterials(s *scene.Scene) {
	used := make([]bool, len(s.Materials))
	for _, m := range s.Meshes {
		if m.MaterialIndex >= 0 && m.MaterialIndex < len(used) {
			used[m.MaterialIndex] = true
		}
	}

	remap := make([]int, len(s.Materials))
	var kept []*scene.Material
	for i, mat := range s.Materials {
		if used[i] {
			remap[i] = len(kept)
			kept = append(kept, mat)
		} else {
			remap[i] = -1
		}
	}
	if len(kept) == len(s.Materials) {
		return
	}

	s.Materials = kept
	for _, m := range s.Meshes {
		if m.MaterialIndex >= 0 && m.MaterialIndex < len(remap) {
			m.MaterialIndex = remap[m.MaterialIndex]
		}
	}
}
