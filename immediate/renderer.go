// Package immediate is the software implementation of brine2d.Renderer.
//
// Every draw call is rasterized right away into an *image.RGBA canvas:
// geometry is produced by the same vertex code as the GPU renderer
// (camera transform, pixel snapping), its coverage is rasterized with
// golang.org/x/image/vector and textures are resampled with
// golang.org/x/image/draw. Blend modes follow the GPU pipelines.
//
// The renderer is meant for headless output, tests and reference images;
// it does no batching and has no post-processing.
//
// Importing the package registers the "immediate" backend with
// brine2d.NewRenderer.
package immediate

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/vector"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/internal/thread"
	"github.com/CrazyPickleStudios/brine2d/internal/vertex"
)

// ErrFrameInProgress is returned by BeginFrame when the previous frame was
// not ended.
var ErrFrameInProgress = errors.New("immediate: frame already in progress")

func init() {
	brine2d.RegisterBackend(brine2d.BackendImmediate, func(cfg brine2d.Config, host brine2d.Host) (brine2d.Renderer, error) {
		return New(cfg, host.Canvas)
	})
}

// Option configures a Renderer during creation.
type Option func(*Renderer)

// WithCamera sets the initial camera.
func WithCamera(c brine2d.Camera) Option {
	return func(r *Renderer) { r.SetCamera(c) }
}

// WithFont sets the default font, skipping the atlas built from
// Config.Font on first use.
func WithFont(f brine2d.Font) Option {
	return func(r *Renderer) { r.font = f }
}

// Stats counts the work of the current (or last completed) frame.
type Stats struct {
	Draws int
	// Pixels is the number of destination pixels touched.
	Pixels int

	Frames uint64
}

// Renderer draws into an *image.RGBA. It must be used from a single
// goroutine.
type Renderer struct {
	cfg    brine2d.Config
	canvas *image.RGBA

	// Per-draw scratch.
	geom   *vertex.Batch
	raster vector.Rasterizer
	mask   image.Alpha
	layer  image.RGBA

	inFrame bool
	cleared map[*image.RGBA]bool
	err     error

	blend    brine2d.BlendMode
	target   *RenderTarget
	scissor  *brine2d.Rect
	targets  []*RenderTarget
	scissors []*brine2d.Rect

	camera brine2d.Camera
	font   brine2d.Font
	stats  Stats

	dispatch *thread.Dispatcher
	closed   bool
}

var _ brine2d.Renderer = (*Renderer)(nil)

// New creates a renderer drawing into canvas. A nil canvas allocates one
// of cfg.Width x cfg.Height.
func New(cfg brine2d.Config, canvas *image.RGBA, opts ...Option) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if canvas == nil {
		canvas = image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	}
	if canvas.Bounds().Empty() {
		return nil, fmt.Errorf("immediate: empty canvas %v", canvas.Bounds())
	}
	if cfg.PostProcessing {
		brine2d.Logger().Warn("immediate: post-processing is not supported, drawing straight to the canvas")
	}
	r := &Renderer{
		cfg:      cfg,
		canvas:   canvas,
		geom:     vertex.NewBatch(cfg.BatchCapacity()),
		cleared:  make(map[*image.RGBA]bool),
		dispatch: thread.New(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	brine2d.Logger().Info("immediate: renderer ready",
		"width", canvas.Bounds().Dx(),
		"height", canvas.Bounds().Dy())
	return r, nil
}

// fail records the first error of the frame. EndFrame returns it.
func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
		brine2d.Logger().Error("immediate: frame error", "err", err)
	}
}

func (r *Renderer) drawing() bool { return r.inFrame && r.err == nil }

// BeginFrame implements brine2d.Renderer. Calls queued through Async run
// first.
func (r *Renderer) BeginFrame() error {
	if r.closed {
		return brine2d.ErrClosed
	}
	if r.inFrame {
		return ErrFrameInProgress
	}
	r.dispatch.Pump()

	r.stats = Stats{Frames: r.stats.Frames}
	r.err = nil
	clear(r.cleared)
	r.resetStacks()
	r.inFrame = true
	return nil
}

// EndFrame implements brine2d.Renderer. A canvas nothing was drawn to is
// still cleared.
func (r *Renderer) EndFrame() error {
	if !r.inFrame {
		return brine2d.ErrNotInFrame
	}
	r.inFrame = false
	if r.err != nil {
		return r.err
	}
	r.ensureCleared(r.canvas, r.cfg.ClearColor)
	r.stats.Frames++
	brine2d.Logger().Debug("immediate: frame done",
		"draws", r.stats.Draws,
		"pixels", r.stats.Pixels)
	return nil
}

// Canvas returns the image the renderer draws into.
func (r *Renderer) Canvas() *image.RGBA { return r.canvas }

// Size implements brine2d.Renderer.
func (r *Renderer) Size() (w, h int) {
	b := r.canvas.Bounds()
	return b.Dx(), b.Dy()
}

// SetCamera implements brine2d.Renderer.
func (r *Renderer) SetCamera(c brine2d.Camera) {
	r.camera = c
	r.geom.SetCamera(c)
}

// Camera implements brine2d.Renderer.
func (r *Renderer) Camera() brine2d.Camera { return r.camera }

// SetBlendMode implements brine2d.Renderer.
func (r *Renderer) SetBlendMode(m brine2d.BlendMode) { r.blend = m }

// BlendMode implements brine2d.Renderer.
func (r *Renderer) BlendMode() brine2d.BlendMode { return r.blend }

// Stats returns the counters of the current or last frame.
func (r *Renderer) Stats() Stats { return r.stats }

// Close implements brine2d.Renderer. Calls queued through Async fail.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.dispatch.Close()
	r.inFrame = false
	r.closed = true
	brine2d.Logger().Info("immediate: renderer closed", "frames", r.stats.Frames)
	return nil
}
