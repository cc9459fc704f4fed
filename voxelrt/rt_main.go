package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gekko3d/rtdgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/bluenoise"
)

func main() {
	configFile := flag.String("config", "", "Path to settings JSON file")
	width := flag.Int("width", 0, "Render width in pixels (default: 320)")
	height := flag.Int("height", 0, "Render height in pixels (default: 180)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	frame := flag.Int("frame", -1, "Frame index of the first frame")
	frames := flag.Int("frames", 0, "Number of frames to render (default: 1)")
	outDir := flag.String("out", "", "Output directory for previews (default: .)")
	envPath := flag.String("env", "", "Equirect PNG/TGA environment map")
	scenePath := flag.String("scene", "", "Scene JSON file (default: built-in demo)")
	writeNoise := flag.String("write-noise", "", "Write the sampler tables to this file and exit")
	debug := flag.Bool("debug", false, "Enable debug logging and profiler dumps")

	flag.Parse()

	var s rtdgi.Settings
	if *configFile != "" {
		var err error
		s, err = rtdgi.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	s.Resolve(rtdgi.Flags{
		Width:     *width,
		Height:    *height,
		Workers:   *workers,
		Frame:     *frame,
		Frames:    *frames,
		OutputDir: *outDir,
		EnvPath:   *envPath,
		ScenePath: *scenePath,
		Debug:     *debug,
	})

	if *writeNoise != "" {
		if err := saveNoise(*writeNoise, s.Noise.Seed); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing noise tables: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sceneDef := rtdgi.DefaultSceneDef()
	if s.ScenePath != "" {
		var err error
		sceneDef, err = rtdgi.LoadSceneFile(s.ScenePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	app := rtdgi.NewAppBuilder().
		UseModule(s.Modules(sceneDef)...).
		Build()
	log := app.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	camera := s.CameraState()
	log.Infof("rendering %d frame(s) at %dx%d with %d workers", s.Frames, s.Width, s.Height, s.Workers)

	for i := 0; i < s.Frames; i++ {
		res, err := app.RenderFrame(ctx, camera, s.Width, s.Height)
		if err != nil {
			log.Errorf("frame %d: %v", i, err)
			os.Exit(1)
		}

		base := filepath.Join(s.OutputDir, fmt.Sprintf("frame%04d_%s", res.FrameIndex, res.ID[:8]))
		radiance := rtdgi.Resize(rtdgi.ToneMap(res.Output.Radiance, 1), s.PreviewWidth)
		if err := rtdgi.WriteWebP(base+"_diffuse.webp", radiance); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		rays := rtdgi.Resize(rtdgi.RayPreview(res.Output.Rays), s.PreviewWidth)
		if err := rtdgi.WriteWebP(base+"_rays.webp", rays); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		log.Infof("wrote %s_*.webp (%d rays, %d shadowed pixels)", base, res.Stats.Rays, res.Stats.ShadowedPixels)
	}
}

func saveNoise(path string, seed uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := bluenoise.Generate(seed).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
