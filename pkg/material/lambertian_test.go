package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

// fixedSampler replays a fixed sequence of values, cycling when exhausted
type fixedSampler struct {
	values []float64
	next   int
}

func (f *fixedSampler) Get1D() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

func TestLambertian_AttenuationEqualsAlbedo(t *testing.T) {
	albedo := core.NewVec3(0.7, 0.3, 0.1)
	lambertian := NewLambertian(albedo)

	rayIn := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1.0,
		FrontFace: true,
		Material:  lambertian,
	}

	for seed := int64(0); seed < 100; seed++ {
		sampler := core.NewRandomSampler(rand.New(rand.NewSource(seed)))
		scatter, didScatter := lambertian.Scatter(rayIn, hit, sampler)

		if !didScatter {
			t.Fatal("Lambertian should always scatter")
		}
		if scatter.Attenuation != albedo {
			t.Fatalf("Expected attenuation %v, got %v", albedo, scatter.Attenuation)
		}
		if scatter.Scattered.Origin != hit.Point {
			t.Fatalf("Expected scattered ray to start at %v, got %v", hit.Point, scatter.Scattered.Origin)
		}
		// Normal plus a unit vector never points below the surface
		if scatter.Scattered.Direction.Dot(hit.Normal) < 0 {
			t.Fatalf("Scattered direction %v points below the surface", scatter.Scattered.Direction)
		}
	}
}

func TestLambertian_DegenerateDirectionFallsBackToNormal(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	normal := core.NewVec3(0, 1, 0)
	hit := HitRecord{
		Point:     core.NewVec3(1, 2, 3),
		Normal:    normal,
		FrontFace: true,
		Material:  lambertian,
	}

	// Samples (0.5, 0.25, 0.5) map to the candidate (0, -0.5, 0), which normalizes
	// to exactly -normal and cancels it.
	sampler := &fixedSampler{values: []float64{0.5, 0.25, 0.5}}
	scatter, didScatter := lambertian.Scatter(core.NewRay(core.NewVec3(1, 3, 3), normal.Negate()), hit, sampler)

	if !didScatter {
		t.Fatal("Lambertian should always scatter")
	}
	if scatter.Scattered.Direction != normal {
		t.Errorf("Expected fallback direction %v, got %v", normal, scatter.Scattered.Direction)
	}
}
