package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func straightCameraConfig() CameraConfig {
	return CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          90.0,
		Aperture:      0.0,
		FocusDistance: 1.0,
	}
}

func mustCamera(t *testing.T, config CameraConfig) *Camera {
	t.Helper()
	camera, err := NewCamera(config)
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	return camera
}

func TestCamera_Frame(t *testing.T) {
	camera := mustCamera(t, CameraConfig{
		Center:      core.NewVec3(3, 2, 1),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 1.5,
		VFov:        40,
	})

	// u, v, w must be an orthonormal right-handed frame
	for name, axis := range map[string]core.Vec3{"u": camera.u, "v": camera.v, "w": camera.w} {
		if math.Abs(axis.Length()-1) > 1e-9 {
			t.Errorf("Axis %s is not unit length: %v", name, axis)
		}
	}
	if math.Abs(camera.u.Dot(camera.v)) > 1e-9 || math.Abs(camera.u.Dot(camera.w)) > 1e-9 || math.Abs(camera.v.Dot(camera.w)) > 1e-9 {
		t.Error("Camera axes are not orthogonal")
	}
	if !vecNear(camera.u.Cross(camera.v), camera.w, 1e-9) {
		t.Error("Camera frame is not right-handed")
	}

	expectedForward := core.NewVec3(-3, -2, -2).Normalize()
	if !vecNear(camera.Forward(), expectedForward, 1e-9) {
		t.Errorf("Expected forward %v, got %v", expectedForward, camera.Forward())
	}

	// Zero focus distance falls back to the look-at distance
	if math.Abs(camera.FocusDistance()-math.Sqrt(17)) > 1e-9 {
		t.Errorf("Expected focus distance %f, got %f", math.Sqrt(17), camera.FocusDistance())
	}
}

func TestCamera_GetRay_Pinhole(t *testing.T) {
	config := straightCameraConfig()
	config.AspectRatio = 2.0
	camera := mustCamera(t, config)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	tests := []struct {
		name     string
		s, t     float64
		expected core.Vec3
	}{
		// 90 degree fov: viewport height 2, width 4 at focus distance 1
		{"center", 0.5, 0.5, core.NewVec3(0, 0, -1)},
		{"lower left", 0, 0, core.NewVec3(-2, -1, -1)},
		{"upper right", 1, 1, core.NewVec3(2, 1, -1)},
		{"top center", 0.5, 1, core.NewVec3(0, 1, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.s, tt.t, sampler)
			if ray.Origin != config.Center {
				t.Errorf("Pinhole ray should start at the camera center, got %v", ray.Origin)
			}
			if !vecNear(ray.Direction, tt.expected, 1e-9) {
				t.Errorf("Expected direction %v, got %v", tt.expected, ray.Direction)
			}
		})
	}
}

func TestCamera_GetRay_DepthOfField(t *testing.T) {
	config := straightCameraConfig()
	config.Aperture = 0.5
	config.FocusDistance = 4.0
	camera := mustCamera(t, config)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))

	focusPoint := core.NewVec3(0, 0, -4)
	sawOffset := false
	for i := 0; i < 100; i++ {
		ray := camera.GetRay(0.5, 0.5, sampler)

		offset := ray.Origin.Subtract(config.Center)
		if offset.Length() >= config.Aperture/2 {
			t.Fatalf("Lens offset %v outside lens radius", offset)
		}
		if offset.Z != 0 {
			t.Fatalf("Lens offset %v should lie in the u-v plane", offset)
		}
		if offset.Length() > 1e-6 {
			sawOffset = true
		}

		// Every ray through the lens converges on the focus plane point
		hitFocus := ray.At(1.0)
		if !vecNear(hitFocus, focusPoint, 1e-9) {
			t.Fatalf("Expected ray to pass through %v, got %v", focusPoint, hitFocus)
		}
	}
	if !sawOffset {
		t.Error("Expected lens sampling to jitter the ray origin")
	}
}

func TestNewCamera_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CameraConfig)
	}{
		{"zero aspect ratio", func(c *CameraConfig) { c.AspectRatio = 0 }},
		{"zero fov", func(c *CameraConfig) { c.VFov = 0 }},
		{"straight fov", func(c *CameraConfig) { c.VFov = 180 }},
		{"negative aperture", func(c *CameraConfig) { c.Aperture = -1 }},
		{"negative focus distance", func(c *CameraConfig) { c.FocusDistance = -1 }},
		{"look at self", func(c *CameraConfig) { c.LookAt = c.Center }},
		{"up parallel to view", func(c *CameraConfig) { c.Up = core.NewVec3(0, 0, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := straightCameraConfig()
			tt.mutate(&config)
			if _, err := NewCamera(config); !errors.Is(err, ErrDegenerateCamera) {
				t.Errorf("Expected ErrDegenerateCamera, got %v", err)
			}
		})
	}
}

func TestMergeCameraConfig(t *testing.T) {
	base := straightCameraConfig()
	override := CameraConfig{
		Center:   core.NewVec3(1, 2, 3),
		Width:    800,
		Aperture: 0.1,
	}

	merged := MergeCameraConfig(base, override)

	if merged.Center != override.Center {
		t.Errorf("Expected center override %v, got %v", override.Center, merged.Center)
	}
	if merged.Width != 800 || merged.Aperture != 0.1 {
		t.Errorf("Expected width and aperture overrides, got %d and %f", merged.Width, merged.Aperture)
	}
	if merged.LookAt != base.LookAt || merged.VFov != base.VFov || merged.AspectRatio != base.AspectRatio {
		t.Error("Zero override fields should keep base values")
	}
}

func TestCameraConfig_ImageHeight(t *testing.T) {
	tests := []struct {
		width    int
		aspect   float64
		expected int
	}{
		{400, 16.0 / 9.0, 225},
		{1, 1.0, 1},
		{1, 16.0 / 9.0, 1},
		{1200, 3.0 / 2.0, 800},
	}

	for _, tt := range tests {
		config := CameraConfig{Width: tt.width, AspectRatio: tt.aspect}
		if got := config.ImageHeight(); got != tt.expected {
			t.Errorf("Width %d aspect %f: expected height %d, got %d", tt.width, tt.aspect, tt.expected, got)
		}
	}
}
