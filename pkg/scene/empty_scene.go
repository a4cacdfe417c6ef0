package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// NewEmptyScene creates a scene with no objects, lit only by the sky gradient
func NewEmptyScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          90.0,
		Aperture:      0.0,
		FocusDistance: 1.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	samplingConfig := SamplingConfig{
		Width:           cameraConfig.Width,
		Height:          cameraConfig.ImageHeight(),
		SamplesPerPixel: 10, // The sky gradient converges almost immediately
		MaxDepth:        50,
	}

	return New(cameraConfig, samplingConfig)
}
