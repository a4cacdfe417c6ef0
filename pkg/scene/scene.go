package scene

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// It is built once and only read while rendering, so it is safe to share between workers.
type Scene struct {
	Camera         *geometry.Camera
	Shapes         []geometry.Shape // Objects in the scene
	SamplingConfig SamplingConfig
	CameraConfig   geometry.CameraConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// Validate reports the first unusable sampling parameter
func (c SamplingConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("image size %dx%d must be positive", c.Width, c.Height)
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("samples per pixel %d must be positive", c.SamplesPerPixel)
	case c.MaxDepth <= 0:
		return fmt.Errorf("max depth %d must be positive", c.MaxDepth)
	}
	return nil
}

// New creates an empty scene viewed through the given camera configuration
func New(cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) (*Scene, error) {
	camera, err := geometry.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("creating camera: %w", err)
	}
	return &Scene{
		Camera:         camera,
		Shapes:         make([]geometry.Shape, 0),
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}, nil
}

// SetCamera replaces the camera, keeping the shapes
func (s *Scene) SetCamera(cameraConfig geometry.CameraConfig) error {
	camera, err := geometry.NewCamera(cameraConfig)
	if err != nil {
		return fmt.Errorf("creating camera: %w", err)
	}
	s.Camera = camera
	s.CameraConfig = cameraConfig
	return nil
}

// Add appends shapes to the scene
func (s *Scene) Add(shapes ...geometry.Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// AddSphere validates and appends a sphere to the scene
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) error {
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		return err
	}
	s.Add(sphere)
	return nil
}

// Hit finds the closest intersection among all shapes within [tMin, tMax]
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := tMax

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// GetPrimitiveCount returns the number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}
