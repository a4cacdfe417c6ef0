package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Material bands for the small spheres of the random scene.
// A draw below diffuseBand is diffuse, below metalBand is metal, anything else is glass.
const (
	diffuseBand = 0.8
	metalBand   = 0.95
)

// NewRandomScene creates the large demo scene: a field of small random spheres around
// three large ones. All randomness is drawn from sampler, so equal seeds give equal scenes.
func NewRandomScene(sampler core.Sampler, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         600,
		AspectRatio:   3.0 / 2.0,
		VFov:          20.0,
		Aperture:      0.1,
		FocusDistance: 10.0, // Focus on the large spheres
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

	var errs []error
	add := func(center core.Vec3, radius float64, mat material.Material) {
		errs = append(errs, s.AddSphere(center, radius, mat))
	}

	add(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))

	// Shared glass material for every glass sphere
	glass := material.MustDielectric(1.5)
	clearing := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Get1D()
			center := core.NewVec3(
				float64(a)+0.9*sampler.Get1D(),
				0.2,
				float64(b)+0.9*sampler.Get1D(),
			)

			// Keep the area around the large metal sphere clear
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			add(center, 0.2, randomMaterial(chooseMat, sampler, glass))
		}
	}

	add(core.NewVec3(0, 1, 0), 1.0, glass)
	add(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	add(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building random scene: %w", err)
	}

	return s, nil
}

// randomMaterial picks a material for a small sphere from the band that chooseMat falls in
func randomMaterial(chooseMat float64, sampler core.Sampler, glass material.Material) material.Material {
	switch {
	case chooseMat < diffuseBand:
		albedo := core.RandomVec3(sampler).MultiplyVec(core.RandomVec3(sampler))
		return material.NewLambertian(albedo)
	case chooseMat < metalBand:
		albedo := core.RandomVec3Range(sampler, 0.5, 1)
		fuzz := core.RandomRange(sampler, 0, 0.5)
		return material.NewMetal(albedo, fuzz)
	default:
		return glass
	}
}
