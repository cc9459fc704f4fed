package rtdgi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrUnknownShape = errors.New("rtdgi: unknown procedural shape")

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Sun          SunDef           `json:"sun"`
	VoxelObjects []VoxelObjectDef `json:"voxel_objects"`
	Spheres      []SphereDef      `json:"spheres"`
}

// SunDef points towards the sun. Color is radiance.
type SunDef struct {
	Direction      mgl32.Vec3 `json:"direction"`
	AngularSizeDeg float32    `json:"angular_size_deg"`
	Color          mgl32.Vec3 `json:"color"`
}

// VoxelObjectDef defines a voxel model instantiation. Scale is the world
// size of one voxel along each axis.
type VoxelObjectDef struct {
	Position   mgl32.Vec3    `json:"position"`
	Scale      mgl32.Vec3    `json:"scale"`
	Rotation   mgl32.Quat    `json:"rotation"`
	Procedural ProceduralDef `json:"procedural"`
}

type ProceduralDef struct {
	Type   string    `json:"type"` // "sphere", "cube", "cone"
	Params []float32 `json:"params"`
	Color  [4]uint8  `json:"color"`
	PBR    PBRDef    `json:"pbr"`
}

type PBRDef struct {
	Roughness float32 `json:"roughness"`
	Metallic  float32 `json:"metallic"`
	Emissive  float32 `json:"emissive"` // strength applied to the base color
}

// SphereDef is an analytic sphere in world units.
type SphereDef struct {
	Center mgl32.Vec3 `json:"center"`
	Radius float32    `json:"radius"`
	Color  [4]uint8   `json:"color"`
	PBR    PBRDef     `json:"pbr"`
}

func (p PBRDef) material(color [4]uint8) core.Material {
	mat := core.NewMaterial(color, mgl32.Vec3{})
	mat.Emissive = mat.Albedo().Mul(p.Emissive)
	mat.Metalness = p.Metallic
	if p.Roughness > 0 {
		mat.Roughness = p.Roughness
	}
	return mat
}

// Build creates the scene. Objects are committed on the first frame.
func (def *SceneDef) Build() (*core.Scene, error) {
	scene := core.NewScene()

	if def.Sun.Direction.LenSqr() > 0 {
		scene.Sun = core.NewSunLight(def.Sun.Direction, mgl32.DegToRad(def.Sun.AngularSizeDeg), def.Sun.Color)
	}

	for i, objDef := range def.VoxelObjects {
		obj, err := buildVoxelObject(objDef)
		if err != nil {
			return nil, fmt.Errorf("rtdgi: voxel object %d: %w", i, err)
		}
		scene.AddObject(obj)
	}

	for _, sp := range def.Spheres {
		scene.AddSphere(core.NewSphereObject(sp.Center, sp.Radius, sp.PBR.material(sp.Color)))
	}

	return scene, nil
}

func buildVoxelObject(def VoxelObjectDef) (*core.VoxelObject, error) {
	obj := core.NewVoxelObject()
	obj.Transform.Position = def.Position
	if def.Scale != (mgl32.Vec3{}) {
		obj.Transform.Scale = def.Scale
	}
	if def.Rotation != (mgl32.Quat{}) {
		obj.Transform.Rotation = def.Rotation.Normalize()
	}

	const paletteIdx = 1
	params := def.Procedural.Params
	need := map[string]int{"sphere": 1, "cube": 3, "cone": 2}
	n, ok := need[def.Procedural.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, def.Procedural.Type)
	}
	if len(params) < n {
		return nil, fmt.Errorf("%s needs %d params, got %d", def.Procedural.Type, n, len(params))
	}

	switch def.Procedural.Type {
	case "sphere":
		// Params: [radius]
		volume.Sphere(obj.XBrickMap, mgl32.Vec3{}, params[0], paletteIdx)
	case "cube":
		// Params: [w, h, d], centred on the origin
		half := mgl32.Vec3{params[0], params[1], params[2]}.Mul(0.5)
		volume.Cube(obj.XBrickMap, half.Mul(-1), half.Sub(mgl32.Vec3{1, 1, 1}), paletteIdx)
	case "cone":
		// Params: [radius, height], base on z = 0
		volume.Cone(obj.XBrickMap, mgl32.Vec3{}, mgl32.Vec3{0, 0, params[1]}, params[0], paletteIdx)
	}

	obj.MaterialTable = make([]core.Material, paletteIdx+1)
	obj.MaterialTable[0] = core.DefaultMaterial()
	obj.MaterialTable[paletteIdx] = def.Procedural.PBR.material(def.Procedural.Color)
	return obj, nil
}

func LoadSceneFile(path string) (*SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtdgi: read scene %s: %w", path, err)
	}

	var def SceneDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("rtdgi: parse scene %s: %w", path, err)
	}
	return &def, nil
}

func SaveSceneFile(path string, def *SceneDef) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("rtdgi: encode scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("rtdgi: write scene %s: %w", path, err)
	}
	return nil
}

// DefaultSceneDef is a small Z-up test scene: a voxel floor, a voxel sphere
// and cone, a matte sphere and an emissive sphere.
func DefaultSceneDef() *SceneDef {
	return &SceneDef{
		Sun: SunDef{
			Direction:      mgl32.Vec3{0.4, -0.3, 0.85},
			AngularSizeDeg: 0.53,
			Color:          mgl32.Vec3{3, 2.9, 2.7},
		},
		VoxelObjects: []VoxelObjectDef{
			{
				Position: mgl32.Vec3{0, 0, -0.5},
				Scale:    mgl32.Vec3{0.25, 0.25, 0.25},
				Procedural: ProceduralDef{
					Type:   "cube",
					Params: []float32{128, 128, 4},
					Color:  [4]uint8{180, 180, 180, 255},
				},
			},
			{
				Position: mgl32.Vec3{-4, 4, 3},
				Scale:    mgl32.Vec3{0.25, 0.25, 0.25},
				Procedural: ProceduralDef{
					Type:   "sphere",
					Params: []float32{12},
					Color:  [4]uint8{200, 40, 30, 255},
				},
			},
			{
				Position: mgl32.Vec3{4, 5, 0},
				Scale:    mgl32.Vec3{0.25, 0.25, 0.25},
				Procedural: ProceduralDef{
					Type:   "cone",
					Params: []float32{10, 24},
					Color:  [4]uint8{40, 170, 60, 255},
					PBR:    PBRDef{Roughness: 0.6},
				},
			},
		},
		Spheres: []SphereDef{
			{Center: mgl32.Vec3{0, 0, 1}, Radius: 1, Color: [4]uint8{230, 230, 230, 255}},
			{
				Center: mgl32.Vec3{2, -2, 0.6},
				Radius: 0.6,
				Color:  [4]uint8{255, 180, 90, 255},
				PBR:    PBRDef{Emissive: 4},
			},
		},
	}
}
