package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// Builder constructs a scene. Randomized scenes draw from sampler.
type Builder func(sampler core.Sampler, cameraOverrides ...geometry.CameraConfig) (*Scene, error)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	Name        string
	Description string
	Build       Builder
}

var builtinScenes = map[string]SceneInfo{
	"default": {
		Name:        "default",
		Description: "Diffuse, glass and metal spheres on a ground sphere",
		Build: func(_ core.Sampler, overrides ...geometry.CameraConfig) (*Scene, error) {
			return NewDefaultScene(overrides...)
		},
	},
	"empty": {
		Name:        "empty",
		Description: "No objects, only the sky gradient",
		Build: func(_ core.Sampler, overrides ...geometry.CameraConfig) (*Scene, error) {
			return NewEmptyScene(overrides...)
		},
	},
	"random": {
		Name:        "random",
		Description: "Hundreds of random small spheres around three large ones",
		Build:       NewRandomScene,
	},
	"spheregrid": {
		Name:        "spheregrid",
		Description: "20x20 grid of metal spheres with OKLCH colors",
		Build: func(_ core.Sampler, overrides ...geometry.CameraConfig) (*Scene, error) {
			return NewSphereGridScene(overrides...)
		},
	},
}

// ListScenes returns the built-in scenes sorted by name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtinScenes))
	for _, info := range builtinScenes {
		scenes = append(scenes, info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes
}

// Names returns the names of the built-in scenes in sorted order
func Names() []string {
	scenes := ListScenes()
	names := make([]string, len(scenes))
	for i, info := range scenes {
		names[i] = info.Name
	}
	return names
}

// Create builds the named scene. seed drives any randomized scene construction.
func Create(name string, seed int64, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	info, ok := builtinScenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return info.Build(core.NewSeededSampler(seed), cameraOverrides...)
}
