package integrator

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// ShadowAcneEpsilon is the minimum hit distance; it keeps bounced rays from re-hitting their origin
const ShadowAcneEpsilon = 0.001

// DefaultMaxDepth is the default ray bounce limit
const DefaultMaxDepth = 50

var (
	skyTopColor    = core.NewVec3(0.5, 0.7, 1.0)
	skyBottomColor = core.NewVec3(1.0, 1.0, 1.0)
)

// PathTracingIntegrator implements unidirectional path tracing
type PathTracingIntegrator struct {
	MaxDepth int
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(maxDepth int) *PathTracingIntegrator {
	return &PathTracingIntegrator{MaxDepth: maxDepth}
}

// RayColor computes the color for a single camera ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler) core.Vec3 {
	return pt.rayColor(ray, world, sampler, pt.MaxDepth)
}

// rayColor traces ray with at most depth remaining bounces
func (pt *PathTracingIntegrator) rayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	hit, isHit := world.Hit(ray, ShadowAcneEpsilon, math.Inf(1))
	if !isHit {
		return Background(ray)
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Vec3{X: 0, Y: 0, Z: 0} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(pt.rayColor(scatter.Scattered, world, sampler, depth-1))
}

// Background returns the sky gradient for a ray that escapes the scene
func Background(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return skyBottomColor.Lerp(skyTopColor, t)
}
