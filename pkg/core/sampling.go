package core

import (
	"math/rand"
)

// minUnitVectorLengthSquared rejects unit-ball samples too close to the origin to normalize
const minUnitVectorLengthSquared = 1e-160

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	// Get1D returns a value in [0, 1)
	Get1D() float64
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own deterministic random stream
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// RandomRange returns a value uniformly distributed in [min, max)
func RandomRange(sampler Sampler, minVal, maxVal float64) float64 {
	return minVal + (maxVal-minVal)*sampler.Get1D()
}

// RandomVec3 returns a vector with components uniformly distributed in [0, 1)
func RandomVec3(sampler Sampler) Vec3 {
	return NewVec3(sampler.Get1D(), sampler.Get1D(), sampler.Get1D())
}

// RandomVec3Range returns a vector with components uniformly distributed in [min, max)
func RandomVec3Range(sampler Sampler, minVal, maxVal float64) Vec3 {
	return NewVec3(
		RandomRange(sampler, minVal, maxVal),
		RandomRange(sampler, minVal, maxVal),
		RandomRange(sampler, minVal, maxVal),
	)
}

// RandomInUnitSphere generates a random point strictly inside the unit sphere
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		// Generate random point in [-1,1]³ cube
		p := RandomVec3Range(sampler, -1, 1)
		// Accept if inside unit sphere
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector generates a uniformly distributed unit vector
func RandomUnitVector(sampler Sampler) Vec3 {
	for {
		p := RandomVec3Range(sampler, -1, 1)
		lenSq := p.LengthSquared()
		if lenSq > minUnitVectorLengthSquared && lenSq < 1.0 {
			return p.Normalize()
		}
	}
}

// RandomInUnitDisk generates a random point in the unit disk on the z=0 plane (for depth of field)
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for {
		// Generate random point in [-1,1] x [-1,1] square
		p := NewVec3(RandomRange(sampler, -1, 1), RandomRange(sampler, -1, 1), 0)
		// Accept if inside unit disk
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}
