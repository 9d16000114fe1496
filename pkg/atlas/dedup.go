package atlas

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/lodgen/pkg/scene"
	"github.com/Faultbox/lodgen/pkg/texture"
)

// source is one unique decoded texture plus, for external files, the path
// it was loaded from (baked sources are removed after the build).
type source struct {
	decoded      *texture.Image
	externalPath string
}

// sourceSet is the decode cache for one atlas build: every raw reference
// string resolves to exactly one decoded image no matter how many
// (material, role, slot) triples use it. The set is owned by a single
// Build invocation; nothing here is process-wide.
type sourceSet struct {
	scene       *scene.Scene
	modelDir    string
	outputDir   string
	keyToIndex  map[string]int
	sources     []*source
	decodeCount int // decodes performed, for the at-most-once guarantee
}

func newSourceSet(s *scene.Scene, modelDir, outputDir string) *sourceSet {
	return &sourceSet{
		scene:      s,
		modelDir:   modelDir,
		outputDir:  outputDir,
		keyToIndex: make(map[string]int),
	}
}

// resolve returns the source index for a texture reference, decoding it on
// first sight only.
func (ss *sourceSet) resolve(ref scene.TextureRef) (int, error) {
	key := ref.Key()
	if idx, ok := ss.keyToIndex[key]; ok {
		return idx, nil
	}

	src := &source{}
	ss.decodeCount++
	if ref.Embedded() {
		if ref.Image >= len(ss.scene.Images) {
			return 0, fmt.Errorf("%w: embedded image index %d out of range", ErrBuildFailed, ref.Image)
		}
		img, err := texture.Decode(ss.scene.Images[ref.Image].Data)
		if err != nil {
			return 0, err
		}
		src.decoded = img
	} else {
		// Prefer the resized copy the texture step may already have
		// written; fall back to the original next to the model. Only the
		// output-dir copy is marked for removal: source files next to the
		// input model are never touched.
		leaf := filepath.Base(ref.URI)
		path := filepath.Join(ss.outputDir, leaf)
		if _, err := os.Stat(path); err == nil {
			src.externalPath = path
		} else {
			path = filepath.Join(ss.modelDir, leaf)
		}
		img, err := texture.Load(path)
		if err != nil {
			return 0, err
		}
		src.decoded = img
	}

	idx := len(ss.sources)
	ss.keyToIndex[key] = idx
	ss.sources = append(ss.sources, src)
	return idx, nil
}

// removeExternalFiles deletes output-dir texture copies now baked into
// atlases. Best-effort: a failed removal leaves a stray file, not a
// broken model.
func (ss *sourceSet) removeExternalFiles() {
	for _, src := range ss.sources {
		if src.externalPath != "" {
			_ = os.Remove(src.externalPath)
		}
	}
}
