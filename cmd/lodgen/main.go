// Package main is the entry point for the lodgen CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/lodgen/internal/config"
	"github.com/Faultbox/lodgen/internal/logger"
	"github.com/Faultbox/lodgen/pkg/lod"
	"github.com/Faultbox/lodgen/pkg/sceneio"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodgen [flags] <model.gltf|model.glb>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== lodgen ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg, inputPath); err != nil {
		logger.Error("lod generation failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inputPath string) error {
	logger.Info("loading model", zap.String("path", inputPath))
	s, err := sceneio.Load(inputPath)
	if err != nil {
		return err
	}
	logger.Info("model loaded",
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("materials", len(s.Materials)),
		zap.Int("images", len(s.Images)),
	)

	opts := lod.Options{
		Textures: cfg.Textures.Resize,
		Atlas:    cfg.Textures.Atlas,
	}
	infos, err := lod.GenerateLods(s, inputPath, cfg.Output.Dir, cfg.Output.Ratios, opts)
	if err != nil {
		return err
	}

	for i, info := range infos {
		printSummary(i+1, info)
	}
	logger.Info("done", zap.Int("lods", len(infos)), zap.String("output", cfg.Output.Dir))
	return nil
}

// printSummary reports one generated LOD on stdout.
func printSummary(level int, info lod.Info) {
	orig, simplified := info.TriangleCounts()
	fmt.Printf("lod%d (ratio %g): %s\n", level, info.Ratio, filepath.Base(info.OutputPath))
	fmt.Printf("  triangles: %d -> %d\n", orig, simplified)
	if info.Textures.InputCount > 0 {
		fmt.Printf("  textures:  %d resized\n", info.Textures.OutputCount)
	}
	for _, a := range info.Atlases {
		fmt.Printf("  atlas:     %s (%dx%d, %d sources)\n", a.Filename, a.Width, a.Height, a.InputCount)
	}
}
