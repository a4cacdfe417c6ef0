package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// ErrInvalidConfig is returned when a render configuration holds unusable values
var ErrInvalidConfig = errors.New("invalid render config")

// Vector is a 3-component YAML sequence such as [13, 2, 3]
type Vector core.Vec3

// UnmarshalYAML decodes a sequence of exactly three numbers
func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	var components []float64
	if err := node.Decode(&components); err != nil {
		return err
	}
	if len(components) != 3 {
		return fmt.Errorf("line %d: vector needs 3 components, got %d", node.Line, len(components))
	}
	*v = Vector{X: components[0], Y: components[1], Z: components[2]}
	return nil
}

// SamplingSection overrides the scene's sampling parameters. Nil fields keep the scene value.
type SamplingSection struct {
	Width           *int `yaml:"width,omitempty"`
	Height          *int `yaml:"height,omitempty"`
	SamplesPerPixel *int `yaml:"samplesPerPixel,omitempty"`
	MaxDepth        *int `yaml:"maxDepth,omitempty"`
}

// CameraSection overrides the scene's camera. Nil fields keep the scene value.
type CameraSection struct {
	Center        *Vector  `yaml:"center,omitempty"`
	LookAt        *Vector  `yaml:"lookAt,omitempty"`
	Up            *Vector  `yaml:"up,omitempty"`
	VFov          *float64 `yaml:"vfov,omitempty"`
	AspectRatio   *float64 `yaml:"aspectRatio,omitempty"`
	Aperture      *float64 `yaml:"aperture,omitempty"`
	FocusDistance *float64 `yaml:"focusDistance,omitempty"`
}

// RenderConfig is the startup configuration for a render.
// It names a built-in scene and tunes how it is rendered; it never describes geometry.
type RenderConfig struct {
	Scene    string          `yaml:"scene,omitempty"`
	Seed     *int64          `yaml:"seed,omitempty"`
	Workers  *int            `yaml:"workers,omitempty"`
	TileSize *int            `yaml:"tileSize,omitempty"`
	Passes   *int            `yaml:"passes,omitempty"`
	Sampling SamplingSection `yaml:"sampling,omitempty"`
	Camera   CameraSection   `yaml:"camera,omitempty"`
}

// LoadRenderConfig reads and validates a YAML render configuration file
func LoadRenderConfig(filename string) (*RenderConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config, err := ParseRenderConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return config, nil
}

// ParseRenderConfig decodes a YAML render configuration. Unknown keys are rejected.
func ParseRenderConfig(r io.Reader) (*RenderConfig, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var config RenderConfig
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every unusable value in the configuration
func (c *RenderConfig) Validate() error {
	var errs []error
	positive := func(name string, value *int) {
		if value != nil && *value <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, *value))
		}
	}
	nonNegative := func(name string, value *int) {
		if value != nil && *value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, name, *value))
		}
	}

	positive("sampling.width", c.Sampling.Width)
	positive("sampling.height", c.Sampling.Height)
	positive("sampling.samplesPerPixel", c.Sampling.SamplesPerPixel)
	positive("sampling.maxDepth", c.Sampling.MaxDepth)
	nonNegative("workers", c.Workers)
	nonNegative("passes", c.Passes)
	nonNegative("tileSize", c.TileSize)

	if c.Camera.AspectRatio != nil && *c.Camera.AspectRatio <= 0 {
		errs = append(errs, fmt.Errorf("%w: camera.aspectRatio must be positive, got %g", ErrInvalidConfig, *c.Camera.AspectRatio))
	}
	if c.Camera.VFov != nil && (*c.Camera.VFov <= 0 || *c.Camera.VFov >= 180) {
		errs = append(errs, fmt.Errorf("%w: camera.vfov must be in (0, 180), got %g", ErrInvalidConfig, *c.Camera.VFov))
	}
	if c.Camera.Aperture != nil && *c.Camera.Aperture < 0 {
		errs = append(errs, fmt.Errorf("%w: camera.aperture must not be negative, got %g", ErrInvalidConfig, *c.Camera.Aperture))
	}
	if c.Camera.FocusDistance != nil && *c.Camera.FocusDistance < 0 {
		errs = append(errs, fmt.Errorf("%w: camera.focusDistance must not be negative, got %g", ErrInvalidConfig, *c.Camera.FocusDistance))
	}

	return errors.Join(errs...)
}

// Merge returns c with every field set in override applied on top
func (c RenderConfig) Merge(override RenderConfig) RenderConfig {
	result := c
	if override.Scene != "" {
		result.Scene = override.Scene
	}
	result.Seed = pick(result.Seed, override.Seed)
	result.Workers = pick(result.Workers, override.Workers)
	result.TileSize = pick(result.TileSize, override.TileSize)
	result.Passes = pick(result.Passes, override.Passes)

	result.Sampling.Width = pick(result.Sampling.Width, override.Sampling.Width)
	result.Sampling.Height = pick(result.Sampling.Height, override.Sampling.Height)
	result.Sampling.SamplesPerPixel = pick(result.Sampling.SamplesPerPixel, override.Sampling.SamplesPerPixel)
	result.Sampling.MaxDepth = pick(result.Sampling.MaxDepth, override.Sampling.MaxDepth)

	result.Camera.Center = pick(result.Camera.Center, override.Camera.Center)
	result.Camera.LookAt = pick(result.Camera.LookAt, override.Camera.LookAt)
	result.Camera.Up = pick(result.Camera.Up, override.Camera.Up)
	result.Camera.VFov = pick(result.Camera.VFov, override.Camera.VFov)
	result.Camera.AspectRatio = pick(result.Camera.AspectRatio, override.Camera.AspectRatio)
	result.Camera.Aperture = pick(result.Camera.Aperture, override.Camera.Aperture)
	result.Camera.FocusDistance = pick(result.Camera.FocusDistance, override.Camera.FocusDistance)
	return result
}

func pick[T any](base, override *T) *T {
	if override != nil {
		return override
	}
	return base
}

// ApplyCamera returns base with every camera and image-size field set in c applied.
// An explicit height without an aspect ratio derives the aspect from width/height.
func (c *RenderConfig) ApplyCamera(base geometry.CameraConfig) geometry.CameraConfig {
	result := base
	if v := c.Camera.Center; v != nil {
		result.Center = core.Vec3(*v)
	}
	if v := c.Camera.LookAt; v != nil {
		result.LookAt = core.Vec3(*v)
	}
	if v := c.Camera.Up; v != nil {
		result.Up = core.Vec3(*v)
	}
	if v := c.Camera.VFov; v != nil {
		result.VFov = *v
	}
	if v := c.Camera.Aperture; v != nil {
		result.Aperture = *v
	}
	if v := c.Camera.FocusDistance; v != nil {
		result.FocusDistance = *v
	}
	if v := c.Sampling.Width; v != nil {
		result.Width = *v
	}
	if v := c.Camera.AspectRatio; v != nil {
		result.AspectRatio = *v
	} else if h := c.Sampling.Height; h != nil && *h > 0 {
		result.AspectRatio = float64(result.Width) / float64(*h)
	}
	return result
}

// ApplyToScene rebuilds the scene's camera and sampling configuration from c.
// The scene is left untouched if the result is invalid.
func (c *RenderConfig) ApplyToScene(s *scene.Scene) error {
	cameraConfig := c.ApplyCamera(s.CameraConfig)

	sampling := s.SamplingConfig
	sampling.Width = cameraConfig.Width
	sampling.Height = cameraConfig.ImageHeight()
	if v := c.Sampling.Height; v != nil {
		sampling.Height = *v
	}
	if v := c.Sampling.SamplesPerPixel; v != nil {
		sampling.SamplesPerPixel = *v
	}
	if v := c.Sampling.MaxDepth; v != nil {
		sampling.MaxDepth = *v
	}
	if err := sampling.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := s.SetCamera(cameraConfig); err != nil {
		return err
	}
	s.SamplingConfig = sampling
	return nil
}
