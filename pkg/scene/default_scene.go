package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewDefaultScene creates a default scene with three spheres resting on a large ground sphere
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(-2, 2, 1), // Above and to the left of the spheres
		LookAt:        core.NewVec3(0, 0, -1), // Look at the center sphere
		Up:            core.NewVec3(0, 1, 0),  // Standard up direction
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0, // Narrow field of view for a close-up
		Aperture:      0.5,  // Strong depth of field blur
		FocusDistance: 0.0,  // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	samplingConfig := SamplingConfig{
		Width:           cameraConfig.Width,
		Height:          cameraConfig.ImageHeight(),
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	s, err := New(cameraConfig, samplingConfig)
	if err != nil {
		return nil, err
	}

	// Create materials
	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	glass := material.MustDielectric(1.5)
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	errs := []error{
		s.AddSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		s.AddSphere(core.NewVec3(0, 0, -1), 0.5, center),
		s.AddSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		s.AddSphere(core.NewVec3(1, 0, -1), 0.5, gold),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building default scene: %w", err)
	}

	return s, nil
}
