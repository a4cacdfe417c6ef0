package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	s, err := NewEmptyScene()
	if err != nil {
		t.Fatalf("NewEmptyScene failed: %v", err)
	}
	return s
}

func TestScene_Hit_ClosestWins(t *testing.T) {
	near := material.NewLambertian(core.NewVec3(1, 0, 0))
	far := material.NewLambertian(core.NewVec3(0, 1, 0))

	tests := []struct {
		name  string
		order []int // indices into the sphere definitions below
	}{
		{"near first", []int{0, 1}},
		{"far first", []int{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			defs := []struct {
				center core.Vec3
				mat    material.Material
			}{
				{core.NewVec3(0, 0, -2), near},
				{core.NewVec3(0, 0, -5), far},
			}
			for _, i := range tt.order {
				if err := s.AddSphere(defs[i].center, 0.5, defs[i].mat); err != nil {
					t.Fatalf("AddSphere failed: %v", err)
				}
			}

			ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
			hit, isHit := s.Hit(ray, 0.001, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit")
			}
			if hit.Material != near {
				t.Error("Expected the nearest sphere's material")
			}
			if math.Abs(hit.T-1.5) > 1e-9 {
				t.Errorf("Expected t=1.5, got %f", hit.T)
			}
		})
	}
}

func TestScene_Hit_Empty(t *testing.T) {
	s := newTestScene(t)
	hit, isHit := s.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, math.Inf(1))
	if isHit || hit != nil {
		t.Error("Empty scene should never report a hit")
	}
}

func TestScene_Hit_RespectsInterval(t *testing.T) {
	s := newTestScene(t)
	if err := s.AddSphere(core.NewVec3(0, 0, -2), 0.5, material.NewLambertian(core.NewVec3(1, 1, 1))); err != nil {
		t.Fatal(err)
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if _, isHit := s.Hit(ray, 0.001, 1.0); isHit {
		t.Error("Expected miss when sphere lies beyond tMax")
	}
}

func TestScene_AddSphere_RejectsMalformed(t *testing.T) {
	s := newTestScene(t)
	err := s.AddSphere(core.NewVec3(0, 0, -1), -1, material.NewLambertian(core.NewVec3(1, 1, 1)))
	if !errors.Is(err, geometry.ErrInvalidRadius) {
		t.Errorf("Expected ErrInvalidRadius, got %v", err)
	}
	if s.GetPrimitiveCount() != 0 {
		t.Errorf("Rejected sphere should not be added, scene has %d shapes", s.GetPrimitiveCount())
	}
}

func TestSamplingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  SamplingConfig
		wantErr bool
	}{
		{"defaults", DefaultSamplingConfig(), false},
		{"zero width", SamplingConfig{Width: 0, Height: 1, SamplesPerPixel: 1, MaxDepth: 1}, true},
		{"zero samples", SamplingConfig{Width: 1, Height: 1, SamplesPerPixel: 0, MaxDepth: 1}, true},
		{"zero depth", SamplingConfig{Width: 1, Height: 1, SamplesPerPixel: 1, MaxDepth: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestScene_SetCamera(t *testing.T) {
	s := newTestScene(t)
	if err := s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(1, 1, 1))); err != nil {
		t.Fatalf("AddSphere failed: %v", err)
	}

	config := s.CameraConfig
	config.LookAt = core.NewVec3(0, 0, 1)
	if err := s.SetCamera(config); err != nil {
		t.Fatalf("SetCamera failed: %v", err)
	}
	if s.Camera.Forward() != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected camera to face +z, got %v", s.Camera.Forward())
	}
	if s.GetPrimitiveCount() != 1 {
		t.Errorf("Expected shapes to be kept, got %d", s.GetPrimitiveCount())
	}

	// A degenerate camera leaves the scene untouched
	config.LookAt = config.Center
	if err := s.SetCamera(config); !errors.Is(err, geometry.ErrDegenerateCamera) {
		t.Errorf("Expected ErrDegenerateCamera, got %v", err)
	}
	if s.CameraConfig.LookAt != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected previous camera to be kept, got look-at %v", s.CameraConfig.LookAt)
	}
}
