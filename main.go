package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

const (
	defaultSceneName = "default"
	defaultSeed      = 42
)

// Config holds the command line options
type Config struct {
	ConfigFile string
	Output     string // "-" writes to stdout
	Format     string // "ppm" or "png"
	List       bool
	Help       bool

	// Render holds the explicitly set render flags, applied over the config file
	Render loaders.RenderConfig
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args. Render flags only land in Config.Render when set explicitly,
// so they can override values from the config file.
func parseFlags(args []string, stderr io.Writer) (Config, error) {
	var config Config
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sceneName := fs.String("scene", defaultSceneName, "Scene: "+strings.Join(scene.Names(), ", "))
	fs.StringVar(&config.ConfigFile, "config", "", "YAML render configuration file")
	fs.StringVar(&config.Output, "output", "", "Output file ('-' for stdout, default output/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&config.Format, "format", "ppm", "Output format: 'ppm' or 'png'")
	seed := fs.Int64("seed", defaultSeed, "Random seed for scene generation and sampling")
	workers := fs.Int("workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	passes := fs.Int("passes", 1, "Number of progressive passes")
	tileSize := fs.Int("tile", renderer.DefaultTileSize, "Tile size in pixels")
	samples := fs.Int("samples", 0, "Samples per pixel (overrides the scene)")
	depth := fs.Int("depth", 0, "Maximum ray bounce depth (overrides the scene)")
	width := fs.Int("width", 0, "Image width in pixels (overrides the scene)")
	fs.BoolVar(&config.List, "list", false, "List available scenes and exit")
	fs.BoolVar(&config.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	formatSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			config.Render.Scene = *sceneName
		case "seed":
			config.Render.Seed = seed
		case "workers":
			config.Render.Workers = workers
		case "passes":
			config.Render.Passes = passes
		case "tile":
			config.Render.TileSize = tileSize
		case "samples":
			config.Render.Sampling.SamplesPerPixel = samples
		case "depth":
			config.Render.Sampling.MaxDepth = depth
		case "width":
			config.Render.Sampling.Width = width
		case "format":
			formatSet = true
		}
	})

	if !formatSet && strings.EqualFold(filepath.Ext(config.Output), ".png") {
		config.Format = "png"
	}
	config.Format = strings.ToLower(config.Format)
	if config.Format != "ppm" && config.Format != "png" {
		return Config{}, fmt.Errorf("unknown output format %q", config.Format)
	}

	if config.Help {
		printHelp(fs)
		return config, flag.ErrHelp
	}
	return config, nil
}

func printHelp(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Monte-Carlo Path Tracer")
	fmt.Fprintln(out, "Usage: pathtracer [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Available scenes:")
	listScenes(out)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Output will be saved to output/<scene>/render_<timestamp>.<format> unless -output is given")
}

func listScenes(w io.Writer) {
	for _, info := range scene.ListScenes() {
		fmt.Fprintf(w, "  %-10s - %s\n", info.Name, info.Description)
	}
}

// resolveRenderConfig layers explicitly set flags over the config file
func resolveRenderConfig(config Config) (loaders.RenderConfig, error) {
	var fileConfig loaders.RenderConfig
	if config.ConfigFile != "" {
		loaded, err := loaders.LoadRenderConfig(config.ConfigFile)
		if err != nil {
			return loaders.RenderConfig{}, err
		}
		fileConfig = *loaded
	}

	merged := fileConfig.Merge(config.Render)
	if merged.Scene == "" {
		merged.Scene = defaultSceneName
	}
	if err := merged.Validate(); err != nil {
		return loaders.RenderConfig{}, err
	}
	return merged, nil
}

// createScene builds a built-in scene and applies the render configuration to it
func createScene(renderConfig loaders.RenderConfig) (*scene.Scene, error) {
	seed := int64(defaultSeed)
	if renderConfig.Seed != nil {
		seed = *renderConfig.Seed
	}

	s, err := scene.Create(renderConfig.Scene, seed)
	if err != nil {
		return nil, err
	}
	if err := renderConfig.ApplyToScene(s); err != nil {
		return nil, fmt.Errorf("configuring scene %q: %w", renderConfig.Scene, err)
	}
	return s, nil
}

// progressiveConfig converts the render configuration into renderer settings
func progressiveConfig(renderConfig loaders.RenderConfig) renderer.ProgressiveConfig {
	config := renderer.DefaultProgressiveConfig()
	config.Seed = defaultSeed
	if renderConfig.Seed != nil {
		config.Seed = *renderConfig.Seed
	}
	if renderConfig.Workers != nil {
		config.NumWorkers = *renderConfig.Workers
	}
	if renderConfig.Passes != nil {
		config.MaxPasses = *renderConfig.Passes
	}
	if renderConfig.TileSize != nil {
		config.TileSize = *renderConfig.TileSize
	}
	return config
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	config, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if config.List {
		listScenes(stdout)
		return nil
	}

	logger := log.New(stderr, "", log.LstdFlags)

	renderConfig, err := resolveRenderConfig(config)
	if err != nil {
		return err
	}

	s, err := createScene(renderConfig)
	if err != nil {
		return err
	}
	logger.Printf("Scene %q: %d primitives, %dx%d, %d samples/pixel, max depth %d\n",
		renderConfig.Scene, s.GetPrimitiveCount(), s.SamplingConfig.Width, s.SamplingConfig.Height,
		s.SamplingConfig.SamplesPerPixel, s.SamplingConfig.MaxDepth)

	progressive, err := renderer.NewProgressiveRaytracer(renderer.NewPathTracer(s), progressiveConfig(renderConfig), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	img, stats, err := progressive.Render(ctx, nil)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	logger.Printf("Render completed in %v\n", stats.Duration)
	logger.Printf("Samples per pixel: %.1f (range %d - %d), average luminance %.3f\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, renderer.CalculateAverageLuminance(img))

	filename, err := saveImage(img, config, renderConfig.Scene, stdout)
	if err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", filename)
	return nil
}

// saveImage writes img to the configured output and returns where it went
func saveImage(img image.Image, config Config, sceneName string, stdout io.Writer) (string, error) {
	if config.Output == "-" {
		return "<stdout>", writeImage(stdout, img, config.Format)
	}

	filename := config.Output
	if filename == "" {
		outputDir := filepath.Join("output", sceneName)
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.%s", timestamp, config.Format))
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := writeImage(file, img, config.Format); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}

func writeImage(w io.Writer, img image.Image, format string) error {
	if format == "png" {
		return renderer.WritePNG(w, img)
	}
	return renderer.WritePPM(w, img)
}
