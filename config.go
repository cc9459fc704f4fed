package rtdgi

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/kernel"
	"github.com/gekko3d/rtdgi/voxelrt/rt/sky"

	"github.com/go-gl/mathgl/mgl32"
)

// Settings holds the render configuration. Fields not set in the file keep
// their zero values until Resolve fills them.
type Settings struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Workers      int     `json:"workers"`
	TileSize     int     `json:"tile_size"`
	FrameIndex   uint32  `json:"frame_index"`
	Frames       int     `json:"frames"`
	CullDistance float32 `json:"cull_distance"`
	ScenePath    string  `json:"scene"`
	OutputDir    string  `json:"output_dir"`
	PreviewWidth int     `json:"preview_width"`
	Debug        bool    `json:"debug"`

	Noise  NoiseSettings  `json:"noise"`
	Sky    SkySettings    `json:"sky"`
	Camera CameraSettings `json:"camera"`
	Kernel KernelSettings `json:"kernel"`
	Cache  CacheSettings  `json:"cache"`
}

type NoiseSettings struct {
	Path string `json:"path"`
	Seed uint64 `json:"seed"`
}

// SkySettings selects an equirect map when Path is set, otherwise a gradient.
type SkySettings struct {
	Path      string     `json:"path"`
	Width     int        `json:"width"`
	Intensity float32    `json:"intensity"`
	Zenith    mgl32.Vec3 `json:"zenith"`
	Horizon   mgl32.Vec3 `json:"horizon"`
	Ground    mgl32.Vec3 `json:"ground"`
}

type CameraSettings struct {
	Position mgl32.Vec3 `json:"position"`
	YawDeg   float32    `json:"yaw_deg"`
	PitchDeg float32    `json:"pitch_deg"`
	FovDeg   float32    `json:"fov_deg"`
	Near     float32    `json:"near"`
}

// KernelSettings leaves toggles nil to keep the kernel defaults. The
// pointer-valued factors accept an explicit zero.
type KernelSettings struct {
	ControlVariate *bool `json:"control_variate"`
	ShortRays      *bool `json:"short_rays"`
	TemporalJitter *bool `json:"temporal_jitter"`
	VoxelIndirect  *bool `json:"voxel_indirect"`
	SoftShadows    *bool `json:"soft_shadows"`

	ShortRayCells        float32  `json:"short_ray_cells"`
	HitRoughnessBias     *float32 `json:"hit_roughness_bias"`
	NearHitMinOffset     *float32 `json:"near_hit_min_offset"`
	NearHitMaxOffset     *float32 `json:"near_hit_max_offset"`
	NearHitBlendExponent float32  `json:"near_hit_blend_exponent"`
}

type CacheSettings struct {
	Cascades          int        `json:"cascades"`
	BaseCellSize      float32    `json:"base_cell_size"`
	NormalOffsetCells float32    `json:"normal_offset_cells"`
	Boundary          mgl32.Vec3 `json:"boundary"`
	Indirect          mgl32.Vec3 `json:"indirect"`
	Bake              *bool      `json:"bake"`
	BakeRayCells      float32    `json:"bake_ray_cells"`
}

// Flags holds CLI flag values that override config file settings.
// Frame < 0 means unset.
type Flags struct {
	Width     int
	Height    int
	Workers   int
	Frame     int
	Frames    int
	OutputDir string
	EnvPath   string
	ScenePath string
	Debug     bool
}

// Load reads a JSON settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return s, nil
}

// Resolve applies flag overrides, then fills empty fields with defaults.
func (s *Settings) Resolve(flags Flags) {
	if flags.Width > 0 {
		s.Width = flags.Width
	}
	if flags.Height > 0 {
		s.Height = flags.Height
	}
	if flags.Workers > 0 {
		s.Workers = flags.Workers
	}
	if flags.Frame >= 0 {
		s.FrameIndex = uint32(flags.Frame)
	}
	if flags.Frames > 0 {
		s.Frames = flags.Frames
	}
	if flags.OutputDir != "" {
		s.OutputDir = flags.OutputDir
	}
	if flags.EnvPath != "" {
		s.Sky.Path = flags.EnvPath
	}
	if flags.ScenePath != "" {
		s.ScenePath = flags.ScenePath
	}
	if flags.Debug {
		s.Debug = true
	}

	if s.Width <= 0 {
		s.Width = 320
	}
	if s.Height <= 0 {
		s.Height = 180
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.TileSize <= 0 {
		s.TileSize = 16
	}
	if s.Frames <= 0 {
		s.Frames = 1
	}
	if s.CullDistance <= 0 {
		s.CullDistance = 1000
	}
	if s.OutputDir == "" {
		s.OutputDir = "."
	}
	if s.PreviewWidth <= 0 {
		s.PreviewWidth = s.Width
	}

	if s.Sky.Width <= 0 {
		s.Sky.Width = 512
	}
	if s.Sky.Intensity <= 0 {
		s.Sky.Intensity = 1
	}
	if s.Sky.Zenith == (mgl32.Vec3{}) && s.Sky.Horizon == (mgl32.Vec3{}) && s.Sky.Ground == (mgl32.Vec3{}) {
		s.Sky.Zenith = mgl32.Vec3{0.25, 0.45, 0.9}
		s.Sky.Horizon = mgl32.Vec3{0.8, 0.85, 0.9}
		s.Sky.Ground = mgl32.Vec3{0.2, 0.18, 0.15}
	}

	if s.Camera.Position == (mgl32.Vec3{}) && s.Camera.YawDeg == 0 && s.Camera.PitchDeg == 0 {
		s.Camera.Position = mgl32.Vec3{0, -14, 5}
		s.Camera.YawDeg = 180
		s.Camera.PitchDeg = -15
	}
	if s.Camera.FovDeg <= 0 {
		s.Camera.FovDeg = 60
	}
	if s.Camera.Near <= 0 {
		s.Camera.Near = 0.1
	}

	def := csgi.DefaultConfig()
	if s.Cache.Cascades <= 0 {
		s.Cache.Cascades = def.Cascades
	}
	if s.Cache.BaseCellSize <= 0 {
		s.Cache.BaseCellSize = def.BaseCellSize
	}
	if s.Cache.NormalOffsetCells <= 0 {
		s.Cache.NormalOffsetCells = def.NormalOffsetCells
	}
	if s.Cache.BakeRayCells <= 0 {
		s.Cache.BakeRayCells = 4
	}
	if s.Cache.Bake == nil {
		bake := true
		s.Cache.Bake = &bake
	}
}

func pick[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func positive(v, fallback float32) float32 {
	if v > 0 {
		return v
	}
	return fallback
}

// KernelOptions merges the kernel section over kernel.DefaultOptions.
func (s Settings) KernelOptions() kernel.Options {
	opts := kernel.DefaultOptions()
	k := s.Kernel

	opts.UseControlVariate = pick(k.ControlVariate, opts.UseControlVariate)
	opts.UseShortRays = pick(k.ShortRays, opts.UseShortRays)
	opts.UseTemporalJitter = pick(k.TemporalJitter, opts.UseTemporalJitter)
	opts.UseVoxelIndirect = pick(k.VoxelIndirect, opts.UseVoxelIndirect)
	opts.SunSoftShadows = pick(k.SoftShadows, opts.SunSoftShadows)

	opts.ShortRayCells = positive(k.ShortRayCells, opts.ShortRayCells)
	opts.HitRoughnessBias = pick(k.HitRoughnessBias, opts.HitRoughnessBias)
	opts.NearHitMinOffset = pick(k.NearHitMinOffset, opts.NearHitMinOffset)
	opts.NearHitMaxOffset = pick(k.NearHitMaxOffset, opts.NearHitMaxOffset)
	opts.NearHitBlendExponent = positive(k.NearHitBlendExponent, opts.NearHitBlendExponent)

	if s.Workers > 0 {
		opts.Workers = s.Workers
	}
	if s.TileSize > 0 {
		opts.TileSize = s.TileSize
	}
	return opts
}

func (s Settings) CacheConfig() csgi.Config {
	return csgi.Config{
		Cascades:          s.Cache.Cascades,
		BaseCellSize:      s.Cache.BaseCellSize,
		NormalOffsetCells: s.Cache.NormalOffsetCells,
		BoundaryRadiance:  s.Cache.Boundary,
	}
}

func (s Settings) CameraState() *core.CameraState {
	cam := core.NewCameraState()
	cam.Position = s.Camera.Position
	cam.Yaw = mgl32.DegToRad(s.Camera.YawDeg)
	cam.Pitch = mgl32.DegToRad(s.Camera.PitchDeg)
	cam.Fov = mgl32.DegToRad(s.Camera.FovDeg)
	cam.Near = s.Camera.Near
	return cam
}

func (s Settings) Gradient() sky.Gradient {
	return sky.Gradient{Zenith: s.Sky.Zenith, Horizon: s.Sky.Horizon, Ground: s.Sky.Ground}
}

// Modules returns the module set that renders scene with these settings.
// Call Resolve first.
func (s Settings) Modules(scene *SceneDef) []Module {
	return []Module{
		LoggingModule{Prefix: "rtdgi", Debug: s.Debug},
		SettingsModule{Settings: s},
		FrameClockModule{Start: s.FrameIndex},
		SceneModule{Def: scene},
		NoiseModule{Path: s.Noise.Path, Seed: s.Noise.Seed},
		EnvironmentModule{
			Path:      s.Sky.Path,
			Width:     s.Sky.Width,
			Intensity: s.Sky.Intensity,
			Fallback:  s.Gradient(),
		},
		VoxelCacheModule{
			Config:       s.CacheConfig(),
			Indirect:     s.Cache.Indirect,
			Bake:         pick(s.Cache.Bake, true),
			BakeRayCells: s.Cache.BakeRayCells,
			Workers:      s.Workers,
		},
		KernelModule{Options: s.KernelOptions()},
	}
}

// SettingsModule installs resolved settings as a resource.
type SettingsModule struct {
	Settings Settings
}

func (m SettingsModule) Install(app *App) {
	s := m.Settings
	app.addResources(&s)
}
