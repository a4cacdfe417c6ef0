package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

var (
	// ErrInvalidRadius is returned for a sphere whose radius is not a positive finite number
	ErrInvalidRadius = errors.New("sphere radius must be positive and finite")
	// ErrNilMaterial is returned for a sphere without a material
	ErrNilMaterial = errors.New("sphere material must not be nil")
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere creates a new sphere, rejecting malformed input
func NewSphere(center core.Vec3, radius float64, mat material.Material) (*Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("sphere at %v with radius %g: %w", center, radius, ErrInvalidRadius)
	}
	if mat == nil {
		return nil, fmt.Errorf("sphere at %v: %w", center, ErrNilMaterial)
	}
	if !center.IsFinite() {
		return nil, fmt.Errorf("sphere center %v is not finite", center)
	}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}, nil
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	// Vector from sphere center to ray origin
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	a := ray.Direction.LengthSquared()
	if a == 0 {
		return nil, false // A zero direction ray never travels
	}
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return nil, false
		}
	}

	hitRecord := &material.HitRecord{
		T:        root,
		Point:    ray.At(root),
		Material: s.Material,
	}

	// Outward normal points from center to hit point
	outwardNormal := hitRecord.Point.Subtract(s.Center).Divide(s.Radius)
	hitRecord.SetFaceNormal(ray, outwardNormal)

	return hitRecord, true
}
