package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrInvalidRefractionIndex is returned for a non-positive or non-finite index of refraction
var ErrInvalidRefractionIndex = errors.New("refraction index must be positive and finite")

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractionIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(refractionIndex float64) (*Dielectric, error) {
	if !(refractionIndex > 0) || math.IsInf(refractionIndex, 0) {
		return nil, fmt.Errorf("dielectric with index %g: %w", refractionIndex, ErrInvalidRefractionIndex)
	}
	return &Dielectric{RefractionIndex: refractionIndex}, nil
}

// MustDielectric is like NewDielectric but panics on an invalid index.
// Intended for built-in scenes with constant indices.
func MustDielectric(refractionIndex float64) *Dielectric {
	d, err := NewDielectric(refractionIndex)
	if err != nil {
		panic(err)
	}
	return d
}

// Scatter implements the Material interface for dielectric scattering
func (d *Dielectric) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	// Dielectrics always attenuate by 1.0 (no color absorption for clear glass)
	attenuation := core.NewVec3(1.0, 1.0, 1.0)

	// Determine if we're entering or exiting the material
	refractionRatio := d.RefractionIndex
	if hit.FrontFace {
		refractionRatio = 1.0 / d.RefractionIndex
	}

	unitDirection := rayIn.Direction.Normalize()
	cosTheta := math.Min(unitDirection.Negate().Dot(hit.Normal), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	// Check for total internal reflection
	cannotRefract := refractionRatio*sinTheta > 1.0

	var direction core.Vec3
	if cannotRefract || Reflectance(cosTheta, refractionRatio) > sampler.Get1D() {
		direction = core.Reflect(unitDirection, hit.Normal)
	} else {
		direction = core.Refract(unitDirection, hit.Normal, refractionRatio)
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: attenuation,
	}, true
}

func (d *Dielectric) material() {}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	// R0 is the reflectance at normal incidence
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
