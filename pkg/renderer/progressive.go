package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrInvalidProgressiveConfig is returned when a progressive configuration cannot be rendered
var ErrInvalidProgressiveConfig = errors.New("invalid progressive config")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int   // Size of each tile in pixels
	InitialSamples     int   // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int   // Total samples per pixel (0 = scene's SamplesPerPixel)
	MaxPasses          int   // Number of passes
	NumWorkers         int   // Number of parallel workers (0 = use CPU count)
	Seed               int64 // Base seed; tile i draws from seed + i
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:       DefaultTileSize,
		InitialSamples: 1,
		MaxPasses:      1,
		NumWorkers:     0, // Auto-detect CPU count
		Seed:           42,
	}
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// ProgressiveRaytracer manages progressive rendering with multiple passes
type ProgressiveRaytracer struct {
	width, height int
	config        ProgressiveConfig
	tiles         []*Tile        // Tile management
	pixelStats    [][]PixelStats // Shared pixel statistics array (global image coordinates)
	raytracer     *Raytracer     // Base raytracer for actual rendering
	logger        core.Logger    // Logger for rendering output
}

// NewProgressiveRaytracer creates a new progressive raytracer
func NewProgressiveRaytracer(raytracer *Raytracer, config ProgressiveConfig, logger core.Logger) (*ProgressiveRaytracer, error) {
	if config.MaxSamplesPerPixel == 0 {
		config.MaxSamplesPerPixel = raytracer.config.SamplesPerPixel
	}
	if config.InitialSamples <= 0 {
		config.InitialSamples = 1
	}
	if config.MaxPasses <= 0 {
		config.MaxPasses = 1
	}
	if config.TileSize <= 0 {
		config.TileSize = DefaultTileSize
	}
	if config.MaxSamplesPerPixel < 1 {
		return nil, fmt.Errorf("%w: samples per pixel must be positive, got %d", ErrInvalidProgressiveConfig, config.MaxSamplesPerPixel)
	}
	if config.NumWorkers < 0 {
		return nil, fmt.Errorf("%w: worker count must not be negative, got %d", ErrInvalidProgressiveConfig, config.NumWorkers)
	}

	// More passes than samples would leave passes with nothing to do
	config.MaxPasses = min(config.MaxPasses, config.MaxSamplesPerPixel)
	config.InitialSamples = min(config.InitialSamples, config.MaxSamplesPerPixel)

	width, height := raytracer.Width(), raytracer.Height()
	return &ProgressiveRaytracer{
		width:      width,
		height:     height,
		config:     config,
		tiles:      NewTileGrid(width, height, config.TileSize, config.Seed),
		pixelStats: newPixelStatsGrid(width, height),
		raytracer:  raytracer,
		logger:     logger,
	}, nil
}

// Config returns the effective configuration after defaults were applied
func (pr *ProgressiveRaytracer) Config() ProgressiveConfig {
	return pr.config
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber == pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return targetSamples
}

// Render runs every pass, calling onPass (if non-nil) after each one.
// It returns the final image, or ctx.Err() if the context is cancelled mid-render.
func (pr *ProgressiveRaytracer) Render(ctx context.Context, onPass func(PassResult)) (*image.RGBA, RenderStats, error) {
	workerPool := NewWorkerPool(pr.raytracer, pr.config.NumWorkers, len(pr.tiles))
	workerPool.Start()
	defer workerPool.Stop()

	pr.logger.Printf("Starting progressive rendering: %dx%d, %d tiles, %d passes, %d workers\n",
		pr.width, pr.height, len(pr.tiles), pr.config.MaxPasses, workerPool.GetNumWorkers())

	renderStart := time.Now()
	var (
		img   *image.RGBA
		stats RenderStats
	)

	for pass := 1; pass <= pr.config.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
			return nil, RenderStats{}, err
		}

		passStart := time.Now()
		if err := pr.renderPass(ctx, workerPool, pass); err != nil {
			pr.logger.Printf("Pass %d aborted: %v\n", pass, err)
			return nil, RenderStats{}, err
		}

		img, stats = pr.assembleCurrentImage(pr.getSamplesForPass(pass))
		stats.Duration = time.Since(renderStart)

		pr.logger.Printf("Pass %d completed in %v (%.1f samples/pixel)\n",
			pass, time.Since(passStart), stats.AverageSamples)

		if onPass != nil {
			onPass(PassResult{
				PassNumber: pass,
				Image:      img,
				Stats:      stats,
				IsLast:     pass == pr.config.MaxPasses,
			})
		}
	}

	return img, stats, nil
}

// renderPass submits every tile for one pass and waits for all of them
func (pr *ProgressiveRaytracer) renderPass(ctx context.Context, workerPool *WorkerPool, passNumber int) error {
	targetSamples := pr.getSamplesForPass(passNumber)

	pr.logger.Printf("Pass %d: target %d samples per pixel\n", passNumber, targetSamples)

	for taskID, tile := range pr.tiles {
		workerPool.SubmitTask(TileTask{
			Ctx:           ctx,
			Tile:          tile,
			PassNumber:    passNumber,
			TargetSamples: targetSamples,
			TaskID:        taskID,
			PixelStats:    pr.pixelStats,
		})
	}

	// Drain every result so no worker still writes pixels after we return
	var firstErr error
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := workerPool.GetResult()
		if !ok {
			return fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		pr.tiles[result.TaskID].PassesCompleted++
	}

	return firstErr
}

// assembleCurrentImage creates an image from the current state of the shared pixel stats
// and calculates render statistics in a single pass
func (pr *ProgressiveRaytracer) assembleCurrentImage(targetSamples int) (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, pr.width, pr.height))

	stats := RenderStats{
		TotalPixels: pr.width * pr.height,
		MaxSamples:  targetSamples,
		MinSamples:  pr.config.MaxSamplesPerPixel, // Start high, will be reduced
	}

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			pixel := &pr.pixelStats[y][x]
			img.SetRGBA(x, y, ToRGB(pixel.GetColor()))

			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}

	return img, stats
}
