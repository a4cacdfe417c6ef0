package renderer

import (
	"image"
	"time"
	"image/color"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// maxChannel keeps a fully saturated channel at 255 after scaling by 256
const maxChannel = 0.999

// Raytracer renders pixels of a scene with an integrator.
// It holds no per-render state, so one Raytracer can serve many workers.
type Raytracer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	width      int
	height     int
	config     scene.SamplingConfig
}

// NewRaytracer creates a raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene, integratorInst integrator.Integrator) *Raytracer {
	return &Raytracer{
		scene:      s,
		integrator: integratorInst,
		width:      s.SamplingConfig.Width,
		height:     s.SamplingConfig.Height,
		config:     s.SamplingConfig,
	}
}

// NewPathTracer creates a raytracer with a path tracing integrator bounded by the scene's max depth
func NewPathTracer(s *scene.Scene) *Raytracer {
	return NewRaytracer(s, integrator.NewPathTracingIntegrator(s.SamplingConfig.MaxDepth))
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int { return rt.width }

// Height returns the image height in pixels
func (rt *Raytracer) Height() int { return rt.height }

// RenderPass renders the whole image serially, drawing every random number from sampler
func (rt *Raytracer) RenderPass(sampler core.Sampler) (*image.RGBA, RenderStats) {
	start := time.Now()
	pixelStats := newPixelStatsGrid(rt.width, rt.height)
	bounds := image.Rect(0, 0, rt.width, rt.height)

	stats := rt.RenderBounds(bounds, pixelStats, sampler, rt.config.SamplesPerPixel)
	stats.Duration = time.Since(start)
	return rt.assembleImage(pixelStats), stats
}

// RenderBounds tops up every pixel inside bounds to targetSamples samples.
// bounds and pixelStats use image coordinates: y=0 is the top row.
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples,
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samplesUsed := rt.samplePixel(x, y, &pixelStats[y][x], sampler, targetSamples)

			stats.TotalSamples += samplesUsed
			stats.MinSamples = min(stats.MinSamples, samplesUsed)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

// samplePixel traces jittered camera rays through pixel (x, y) until it holds targetSamples
func (rt *Raytracer) samplePixel(x, y int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initialSampleCount := ps.SampleCount

	// Image rows run top-down, the image plane's t axis runs bottom-up
	row := rt.height - 1 - y

	for ps.SampleCount < targetSamples {
		s := (float64(x) + sampler.Get1D()) / float64(rt.width)
		t := (float64(row) + sampler.Get1D()) / float64(rt.height)

		ray := rt.scene.Camera.GetRay(s, t, sampler)
		ps.AddSample(rt.integrator.RayColor(ray, rt.scene, sampler))
	}

	return ps.SampleCount - initialSampleCount
}

// assembleImage converts accumulated pixel statistics into an image
func (rt *Raytracer) assembleImage(pixelStats [][]PixelStats) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))
	for y := 0; y < rt.height; y++ {
		for x := 0; x < rt.width; x++ {
			img.SetRGBA(x, y, ToRGB(pixelStats[y][x].GetColor()))
		}
	}
	return img
}

// ToRGB converts an averaged linear color to 8-bit RGBA:
// gamma 2 (square root), clamp to [0, 0.999], then scale by 256 and truncate.
func ToRGB(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Sqrt().Clamp(0.0, maxChannel)

	return color.RGBA{
		R: uint8(256 * colorVec.X),
		G: uint8(256 * colorVec.Y),
		B: uint8(256 * colorVec.Z),
		A: 255,
	}
}
