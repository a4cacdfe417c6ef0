package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestNewMetal_FuzzClamp(t *testing.T) {
	tests := []struct {
		name         string
		inputFuzz    float64
		expectedFuzz float64
	}{
		{"Valid fuzz 0.0", 0.0, 0.0},
		{"Valid fuzz 0.5", 0.5, 0.5},
		{"Valid fuzz 1.0", 1.0, 1.0},
		{"Clamp above 1.0", 1.5, 1.0},
		{"Clamp below 0.0", -0.5, 0.0},
	}

	albedo := core.NewVec3(0.8, 0.8, 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(albedo, tt.inputFuzz)
			if metal.Fuzz != tt.expectedFuzz {
				t.Errorf("Expected fuzz %f, got %f", tt.expectedFuzz, metal.Fuzz)
			}
		})
	}
}

func TestMetal_PerfectReflection(t *testing.T) {
	albedo := core.NewVec3(0.9, 0.9, 0.9)
	metal := NewMetal(albedo, 0.0)

	// Ray hitting surface at 45 degrees, deliberately not normalized
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -3, -3))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 0, 1),
		FrontFace: true,
		Material:  metal,
	}

	// A sampler that must never be consulted
	sampler := &fixedSampler{}
	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	if !didScatter {
		t.Fatal("Metal should scatter")
	}
	if sampler.next != 0 {
		t.Errorf("Mirror metal should not draw random numbers, drew %d", sampler.next)
	}

	expected := core.Reflect(rayIn.Direction.Normalize(), hit.Normal)
	if scatter.Scattered.Direction != expected {
		t.Errorf("Expected exact mirror direction %v, got %v", expected, scatter.Scattered.Direction)
	}
	if scatter.Attenuation != albedo {
		t.Errorf("Expected attenuation %v, got %v", albedo, scatter.Attenuation)
	}
}

func TestMetal_FuzzyReflectionStaysNearMirror(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)
	rayIn := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
		Material:  metal,
	}
	mirror := core.NewVec3(0, 1, 0)

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	for i := 0; i < 100; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		if !didScatter {
			t.Fatal("Head-on fuzzy reflection with fuzz < 1 should always scatter")
		}
		if d := scatter.Scattered.Direction.Subtract(mirror).Length(); d > metal.Fuzz {
			t.Fatalf("Perturbation %f exceeds fuzz %f", d, metal.Fuzz)
		}
	}
}

func TestMetal_AbsorbsBelowSurface(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), 1.0)

	// Grazing ray: the mirror direction is almost tangent to the surface
	rayIn := core.NewRay(core.NewVec3(-1, 0.01, 0), core.NewVec3(1, -0.01, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
		Material:  metal,
	}

	// Samples (0.5, 0.0001, 0.5) give a perturbation of almost (0, -1, 0), pulling it below the surface
	sampler := &fixedSampler{values: []float64{0.5, 0.0001, 0.5}}
	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	if didScatter {
		t.Errorf("Expected absorption for direction %v below the surface", scatter.Scattered.Direction)
	}
}
