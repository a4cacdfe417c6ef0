package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrDegenerateCamera is returned when the camera parameters cannot form a view frame
var ErrDegenerateCamera = errors.New("degenerate camera configuration")

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction hint (usually (0,1,0))
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height ratio
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter (0 = pinhole camera)
	FocusDistance float64   // Distance to the focus plane (0 = distance to LookAt)
}

// Camera generates rays for rendering using a thin-lens model
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Orthonormal view frame
	lensRadius      float64
	focusDistance   float64
	config          CameraConfig
}

// NewCamera creates a camera with the specified configuration
func NewCamera(config CameraConfig) (*Camera, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	theta := config.VFov * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2)
	viewportWidth := viewportHeight * config.AspectRatio

	// Right-handed frame: w points backwards, u right, v up
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth * focusDistance)
	vertical := v.Multiply(viewportHeight * focusDistance)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		focusDistance:   focusDistance,
		config:          config,
	}, nil
}

func (config CameraConfig) validate() error {
	if config.AspectRatio <= 0 {
		return fmt.Errorf("aspect ratio %g: %w", config.AspectRatio, ErrDegenerateCamera)
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return fmt.Errorf("vertical fov %g outside (0, 180): %w", config.VFov, ErrDegenerateCamera)
	}
	if config.Aperture < 0 {
		return fmt.Errorf("negative aperture %g: %w", config.Aperture, ErrDegenerateCamera)
	}
	if config.FocusDistance < 0 {
		return fmt.Errorf("negative focus distance %g: %w", config.FocusDistance, ErrDegenerateCamera)
	}
	viewDir := config.Center.Subtract(config.LookAt)
	if viewDir.NearZero() {
		return fmt.Errorf("camera center equals look-at point %v: %w", config.Center, ErrDegenerateCamera)
	}
	if config.Up.Cross(viewDir).NearZero() {
		return fmt.Errorf("up vector %v parallel to view direction: %w", config.Up, ErrDegenerateCamera)
	}
	return nil
}

// GetRay generates a ray for image plane coordinates (s, t) where 0 <= s,t <= 1.
// (0, 0) is the lower-left corner of the image.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	offset := core.NewVec3(0, 0, 0)
	if c.lensRadius > 0 {
		rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
		offset = c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))
	}

	origin := c.origin.Add(offset)
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	return core.NewRay(origin, direction)
}

// Forward returns the unit view direction
func (c *Camera) Forward() core.Vec3 {
	return c.w.Negate()
}

// FocusDistance returns the distance to the plane of perfect focus
func (c *Camera) FocusDistance() float64 {
	return c.focusDistance
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// ImageHeight returns the image height implied by the width and aspect ratio
func (config CameraConfig) ImageHeight() int {
	return max(1, int(float64(config.Width)/config.AspectRatio))
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}

	if override.Center != zero {
		result.Center = override.Center
	}
	if override.LookAt != zero {
		result.LookAt = override.LookAt
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.AspectRatio > 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov > 0 {
		result.VFov = override.VFov
	}
	if override.Aperture > 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance > 0 {
		result.FocusDistance = override.FocusDistance
	}

	return result
}
