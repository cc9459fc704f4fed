package rtdgi

import (
	"os"

	"github.com/gekko3d/rtdgi/voxelrt/rt/bluenoise"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/kernel"
	"github.com/gekko3d/rtdgi/voxelrt/rt/sky"

	"github.com/go-gl/mathgl/mgl32"
)

// SceneModule builds the scene from Def, or the default scene when Def is
// nil. A definition that fails to build panics.
type SceneModule struct {
	Def *SceneDef
}

func (m SceneModule) Install(app *App) {
	def := m.Def
	if def == nil {
		def = DefaultSceneDef()
	}
	scene, err := def.Build()
	if err != nil {
		panic(err)
	}
	app.Logger().Debugf("scene: %d voxel objects, %d spheres", len(scene.Objects), len(scene.Spheres))
	app.addResources(scene)
}

// NoiseModule loads sampler tables from Path, or generates them from Seed
// when Path is empty or unreadable.
type NoiseModule struct {
	Path string
	Seed uint64
}

func (m NoiseModule) Install(app *App) {
	if m.Path != "" {
		tables, err := loadNoise(m.Path)
		if err == nil {
			app.addResources(tables)
			return
		}
		app.Logger().Warnf("noise: %v, generating from seed %d", err, m.Seed)
	}
	app.addResources(bluenoise.Generate(m.Seed))
}

func loadNoise(path string) (*bluenoise.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return bluenoise.Load(f)
}

// Sky wraps the environment so it can be stored as a resource.
type Sky struct {
	Environment sky.Environment
}

// EnvironmentModule loads an equirect map from Path, or installs Fallback.
type EnvironmentModule struct {
	Path      string
	Width     int
	Intensity float32
	Fallback  sky.Environment
}

func (m EnvironmentModule) Install(app *App) {
	env := m.Fallback
	if env == nil {
		env = sky.Uniform{Color: mgl32.Vec3{1, 1, 1}}
	}
	if m.Path != "" {
		eq, err := sky.LoadEquirect(m.Path, m.Width)
		if err != nil {
			app.Logger().Warnf("environment: %v, using fallback sky", err)
		} else {
			if m.Intensity > 0 {
				eq.Intensity = m.Intensity
			}
			env = eq
		}
	}
	app.addResources(&Sky{Environment: env})
}

// VoxelCache is the radiance cache plus its bake state. With Bake set the
// direct layer is re-baked after the cascades move, on every frame until a
// bake completes.
type VoxelCache struct {
	Volume       *csgi.Volume
	Bake         bool
	BakeRayCells float32
	Workers      int

	baked bool
}

type VoxelCacheModule struct {
	Config       csgi.Config
	Indirect     mgl32.Vec3 // uniform fill of the indirect layer
	Bake         bool
	BakeRayCells float32
	Workers      int
}

func (m VoxelCacheModule) Install(app *App) {
	v := csgi.New(m.Config)
	if m.Indirect != (mgl32.Vec3{}) {
		v.FillUniform(csgi.Indirect, m.Indirect)
	}
	app.addResources(&VoxelCache{
		Volume:       v,
		Bake:         m.Bake,
		BakeRayCells: m.BakeRayCells,
		Workers:      m.Workers,
	})
}

type KernelModule struct {
	Options kernel.Options
}

func (m KernelModule) Install(app *App) {
	app.addResources(kernel.New(m.Options))
}
