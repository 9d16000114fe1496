package lod

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/lodgen/pkg/scene"
	"github.com/Faultbox/lodgen/pkg/sceneio"
	"github.com/Faultbox/lodgen/pkg/texture"
)

// gridScene builds an n x n vertex grid: 2*(n-1)^2 triangles.
func gridScene(n int) *scene.Scene {
	m := &scene.Mesh{Name: "grid", Primitive: scene.Triangles, MaterialIndex: -1, Skin: -1}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Positions = append(m.Positions, [3]float32{float32(x), float32(y), 0})
		}
	}
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			a := uint32(y*n + x)
			b := a + 1
			c := a + uint32(n)
			d := c + 1
			m.Indices = append(m.Indices, a, b, c, b, d, c)
		}
	}
	node := &scene.Node{
		Name:     "grid",
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
		Mesh:     0,
		Skin:     -1,
	}
	return &scene.Scene{
		Meshes: []*scene.Mesh{m},
		Nodes:  []*scene.Node{node},
		Roots:  []int{0},
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateLods(t *testing.T) {
	dir := t.TempDir()
	src := gridScene(24) // 1058 triangles
	inputPath := filepath.Join(dir, "model.glb")
	if err := sceneio.Save(src, inputPath); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "output")
	infos, err := GenerateLods(src, inputPath, outDir, []float32{0.5, 0.25}, Options{})
	if err != nil {
		t.Fatalf("GenerateLods: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("generated %d LODs, want 2", len(infos))
	}

	wantPaths := []string{
		filepath.Join(outDir, "lod1", "model_lod1.glb"),
		filepath.Join(outDir, "lod2", "model_lod2.glb"),
	}
	budgets := []int{529, 264} // floor(1058*3*ratio/3)
	for i, info := range infos {
		if info.OutputPath != wantPaths[i] {
			t.Errorf("lod%d path = %q, want %q", i+1, info.OutputPath, wantPaths[i])
		}
		if _, err := os.Stat(info.OutputPath); err != nil {
			t.Errorf("lod%d output missing: %v", i+1, err)
		}
		orig, simplified := info.TriangleCounts()
		if orig != 1058 {
			t.Errorf("lod%d original = %d, want 1058", i+1, orig)
		}
		if simplified > budgets[i] || simplified < 1 {
			t.Errorf("lod%d simplified = %d, want 1..%d", i+1, simplified, budgets[i])
		}
	}

	// Each LOD is cut from its own copy; the caller's scene is untouched.
	if got := src.Meshes[0].TriangleCount(); got != 1058 {
		t.Errorf("input scene mutated: %d triangles, want 1058", got)
	}

	reloaded, err := sceneio.Load(wantPaths[1])
	if err != nil {
		t.Fatalf("reloading lod2: %v", err)
	}
	if got := reloaded.Meshes[0].TriangleCount(); got > 264 {
		t.Errorf("saved lod2 has %d triangles, want <= 264", got)
	}
}

func TestGenerateLod_NonTrianglePassThrough(t *testing.T) {
	s := &scene.Scene{Meshes: []*scene.Mesh{{
		Name:      "wire",
		Primitive: scene.Lines,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
		Indices:   []uint32{0, 1},
		Skin:      -1,
	}}}

	info, err := GenerateLod(s, 0.5, Options{})
	if err != nil {
		t.Fatalf("GenerateLod: %v", err)
	}
	if info.Meshes[0].OriginalTriangles != 0 || info.Meshes[0].SimplifiedTriangles != 0 {
		t.Errorf("line mesh result = %+v, want zero triangle counts", info.Meshes[0])
	}
	if !reflect.DeepEqual(s.Meshes[0].Indices, []uint32{0, 1}) {
		t.Errorf("line mesh indices changed: %v", s.Meshes[0].Indices)
	}
}

func TestGenerateLod_ResizesEmbedded(t *testing.T) {
	s := gridScene(4)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	s.Images = []*scene.Image{{Name: "tex.png", MimeType: "image/png", Data: buf.Bytes()}}

	info, err := GenerateLod(s, 0.5, Options{Textures: true})
	if err != nil {
		t.Fatalf("GenerateLod: %v", err)
	}
	if info.Textures.InputCount != 1 || info.Textures.OutputCount != 1 {
		t.Errorf("texture stats = %+v, want 1 in / 1 out", info.Textures)
	}
	img, err := texture.Decode(s.Images[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if img.W != 4 || img.H != 4 {
		t.Errorf("embedded image resized to %dx%d, want 4x4", img.W, img.H)
	}
}

func TestGenerateLods_ExternalTextures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "tex.png"), 8, 8)

	src := gridScene(4)
	mat := scene.NewMaterial("m")
	mat.Textures[scene.RoleBaseColor] = []scene.TextureRef{{URI: "tex.png", Image: -1}}
	src.Materials = []*scene.Material{mat}
	src.Meshes[0].MaterialIndex = 0

	inputPath := filepath.Join(dir, "model.glb")
	if err := sceneio.Save(src, inputPath); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "output")
	infos, err := GenerateLods(src, inputPath, outDir, []float32{0.5}, Options{Textures: true})
	if err != nil {
		t.Fatalf("GenerateLods: %v", err)
	}
	if infos[0].Textures.OutputCount != 1 {
		t.Errorf("texture stats = %+v, want one written file", infos[0].Textures)
	}

	copyPath := filepath.Join(outDir, "lod1", "tex.png")
	img, err := texture.Load(copyPath)
	if err != nil {
		t.Fatalf("resized copy: %v", err)
	}
	if img.W != 4 || img.H != 4 {
		t.Errorf("resized copy is %dx%d, want 4x4", img.W, img.H)
	}

	reloaded, err := sceneio.Load(infos[0].OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	refs := reloaded.Materials[0].Textures[scene.RoleBaseColor]
	if len(refs) != 1 || refs[0].URI != "tex.png" || refs[0].Embedded() {
		t.Errorf("saved refs = %+v, want external tex.png leaf", refs)
	}
}

func TestBuildLodAtlas(t *testing.T) {
	modelDir := t.TempDir()
	outDir := t.TempDir()
	writePNG(t, filepath.Join(modelDir, "tex.png"), 8, 8)

	src := gridScene(4)
	mat := scene.NewMaterial("m")
	mat.Textures[scene.RoleBaseColor] = []scene.TextureRef{{URI: "tex.png", Image: -1}}
	src.Materials = []*scene.Material{mat}
	src.Meshes[0].MaterialIndex = 0
	src.Meshes[0].UVs = [][][3]float32{make([][3]float32, len(src.Meshes[0].Positions))}

	modelPath := filepath.Join(outDir, "model.glb")
	if err := sceneio.Save(src, modelPath); err != nil {
		t.Fatal(err)
	}

	infos, err := BuildLodAtlas(modelPath, modelDir)
	if err != nil {
		t.Fatalf("BuildLodAtlas: %v", err)
	}
	if len(infos) != 1 || infos[0].Role != scene.RoleBaseColor {
		t.Fatalf("atlas infos = %+v, want one basecolor atlas", infos)
	}
	if _, err := os.Stat(filepath.Join(outDir, "atlas_basecolor.png")); err != nil {
		t.Errorf("atlas file missing: %v", err)
	}
	// The source texture beside the input model must survive.
	if _, err := os.Stat(filepath.Join(modelDir, "tex.png")); err != nil {
		t.Errorf("source texture removed: %v", err)
	}

	reloaded, err := sceneio.Load(modelPath)
	if err != nil {
		t.Fatal(err)
	}
	refs := reloaded.Materials[0].Textures[scene.RoleBaseColor]
	if len(refs) != 1 || !refs[0].Embedded() || refs[0].Wrap != scene.WrapClamp {
		t.Errorf("rebaked refs = %+v, want embedded clamp atlas ref", refs)
	}

	// No textures left means nothing to do.
	empty := gridScene(4)
	emptyPath := filepath.Join(t.TempDir(), "plain.glb")
	if err := sceneio.Save(empty, emptyPath); err != nil {
		t.Fatal(err)
	}
	if infos, err := BuildLodAtlas(emptyPath, modelDir); err != nil || infos != nil {
		t.Errorf("plain model atlas = %v, %v; want nil, nil", infos, err)
	}
}
