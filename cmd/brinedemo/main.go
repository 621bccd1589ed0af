// Command brinedemo renders a sample scene with one of the brine2d
// backends and saves the last frame as a PNG.
//
// The "immediate" backend draws into an in-memory canvas. The "gpu"
// backend opens a headless HAL device (see -hal) and reads the frame back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/CrazyPickleStudios/brine2d"
	wgpubackend "github.com/CrazyPickleStudios/brine2d/backend/wgpu"
	"github.com/CrazyPickleStudios/brine2d/batch"
	"github.com/CrazyPickleStudios/brine2d/fontatlas"
	_ "github.com/CrazyPickleStudios/brine2d/immediate"
)

type options struct {
	hal     string
	output  string
	atlas   string
	frames  int
	effects []string
}

func main() {
	var (
		configPath = flag.String("config", "brine2d.yaml", "YAML config file; defaults are used when missing")
		backend    = flag.String("backend", "", "renderer backend, gpu or immediate (overrides config)")
		width      = flag.Int("width", 0, "surface width (overrides config)")
		height     = flag.Int("height", 0, "surface height (overrides config)")
		hal        = flag.String("hal", "vulkan", "HAL backend for gpu: vulkan, gl, metal, dx12 or software")
		output     = flag.String("output", "demo.png", "output file")
		atlas      = flag.String("atlas", "", "also write the font atlas to <atlas>.png and <atlas>.metrics")
		frames     = flag.Int("frames", 1, "frames to render before saving")
		effects    = flag.String("effects", "", "comma-separated post effects for gpu, e.g. grayscale")
		dumpConfig = flag.Bool("dump-config", false, "print the effective config as YAML and exit")
	)
	flag.Parse()

	cfg, err := brine2d.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	if *effects != "" {
		cfg.PostProcessing = true
	}

	if *dumpConfig {
		b, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(b)
		return
	}

	lg := newLogger(cfg.Log)
	defer lg.Close()
	brine2d.SetLogger(lg.Logger)

	opts := options{
		hal:    *hal,
		output: *output,
		atlas:  *atlas,
		frames: max(*frames, 1),
	}
	if *effects != "" {
		opts.effects = strings.Split(*effects, ",")
	}

	if err := run(cfg, opts); err != nil {
		lg.Error("brinedemo failed", "err", err)
		fmt.Fprintln(os.Stderr, "brinedemo:", err)
		os.Exit(1)
	}
	lg.Info("demo saved", "output", *output, "width", cfg.Width, "height", cfg.Height)
}

func run(cfg brine2d.Config, opts options) error {
	var (
		host    brine2d.Host
		capture func() (*image.RGBA, error)
	)
	switch cfg.Backend {
	case brine2d.BackendGPU:
		b, err := parseHAL(opts.hal)
		if err != nil {
			return err
		}
		dev, err := wgpubackend.Open(wgpubackend.Options{
			Backend: b,
			Width:   cfg.Width,
			Height:  cfg.Height,
		})
		if err != nil {
			return err
		}
		defer dev.Destroy()
		host.Device = dev
		capture = dev.ReadPixels
	default:
		canvas := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		host.Canvas = canvas
		capture = func() (*image.RGBA, error) { return canvas, nil }
	}

	r, err := brine2d.NewRenderer(cfg, host)
	if err != nil {
		return err
	}
	defer r.Close()

	if len(opts.effects) > 0 {
		br, ok := r.(*batch.Renderer)
		if !ok {
			return fmt.Errorf("post effects need the %s backend", brine2d.BackendGPU)
		}
		chain, err := batch.NewEffectChain(context.Background(), br, opts.effects...)
		if err != nil {
			return err
		}
		br.SetPostProcessor(chain)
	}

	font, err := fontatlas.FromConfig(cfg.Font)
	if err != nil {
		return err
	}
	if err := font.Upload(r); err != nil {
		return err
	}
	defer font.Release(r)
	r.SetDefaultFont(font)

	sc, err := newScene(r, cfg)
	if err != nil {
		return err
	}
	defer sc.release(r)

	for i := range opts.frames {
		if err := r.BeginFrame(); err != nil {
			return err
		}
		sc.draw(r, i)
		if err := r.EndFrame(); err != nil {
			return err
		}
	}

	img, err := capture()
	if err != nil {
		return err
	}
	if err := savePNG(opts.output, img); err != nil {
		return err
	}
	if opts.atlas != "" {
		return saveAtlas(opts.atlas, font)
	}
	return nil
}

func parseHAL(s string) (gputypes.Backend, error) {
	switch strings.ToLower(s) {
	case "vulkan":
		return gputypes.BackendVulkan, nil
	case "gl", "gles":
		return gputypes.BackendGL, nil
	case "metal":
		return gputypes.BackendMetal, nil
	case "dx12":
		return gputypes.BackendDX12, nil
	case "software", "empty":
		return gputypes.BackendEmpty, nil
	}
	return 0, fmt.Errorf("unknown HAL backend %q", s)
}

func savePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}

func saveAtlas(prefix string, a *fontatlas.Atlas) (err error) {
	if err := savePNG(prefix+".png", a.Image); err != nil {
		return err
	}
	f, err := os.Create(prefix + ".metrics")
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return a.WriteMetrics(f)
}
