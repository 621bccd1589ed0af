// Package batch is the GPU implementation of brine2d.Renderer.
//
// Draw calls append vertices to a single CPU batch. The batch is submitted
// as one draw call when it fills up or when any bound state changes
// (texture, blend mode, render target, scissor), and at EndFrame. Paint
// order therefore always equals call order, while runs of draws sharing
// state cost one draw call.
//
// Importing the package registers the "gpu" backend with
// brine2d.NewRenderer.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
	"github.com/CrazyPickleStudios/brine2d/internal/thread"
	"github.com/CrazyPickleStudios/brine2d/internal/vertex"
	"github.com/CrazyPickleStudios/brine2d/shader"
)

// ErrFrameInProgress is returned by BeginFrame when the previous frame was
// not ended.
var ErrFrameInProgress = errors.New("batch: frame already in progress")

func init() {
	brine2d.RegisterBackend(brine2d.BackendGPU, func(cfg brine2d.Config, host brine2d.Host) (brine2d.Renderer, error) {
		if host.Device == nil {
			return nil, errors.New("batch: host has no gfx device")
		}
		return New(host.Device, cfg)
	})
}

// Renderer batches draw calls onto a gfx.Device. It must be used from a
// single goroutine, the render thread.
type Renderer struct {
	dev    gfx.Device
	info   gfx.DriverInfo
	format gputypes.TextureFormat
	cfg    brine2d.Config

	resolver        *shader.Resolver
	ownsToolchain   bool
	shader          gfx.Shader
	pipelines       map[brine2d.BlendMode]gfx.Pipeline
	samplers        map[brine2d.Filter]gfx.Sampler
	white           *Texture
	effectShaders   []gfx.Shader
	effectPipelines []gfx.Pipeline

	batch   *vertex.Batch
	encoded []byte

	// Frame state.
	enc     gfx.Encoder
	surface gfx.Texture
	inFrame bool
	skipped bool
	cleared map[gfx.Texture]bool
	err     error

	// Bound state.
	blend    brine2d.BlendMode
	pipeline gfx.Pipeline
	tex      *Texture
	target   *RenderTarget
	scissor  *brine2d.Rect
	targets  []*RenderTarget
	scissors []*brine2d.Rect

	post    PostProcessor
	scene   *Texture
	scratch *Texture

	camera brine2d.Camera
	font   brine2d.Font
	stats  Stats

	dispatch *thread.Dispatcher
	closed   bool
}

var _ brine2d.Renderer = (*Renderer)(nil)

// New creates a renderer on dev. The sprite shader is resolved for the
// device backend and the default (alpha) pipeline is created up front, so
// shader toolchain or pipeline problems surface here rather than in the
// first frame.
func New(dev gfx.Device, cfg brine2d.Config, opts ...Option) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	info := dev.Info()
	r := &Renderer{
		dev:       dev,
		info:      info,
		format:    info.SurfaceFormat,
		cfg:       cfg,
		resolver:  o.resolver,
		pipelines: make(map[brine2d.BlendMode]gfx.Pipeline, len(brine2d.BlendModes)),
		samplers:  make(map[brine2d.Filter]gfx.Sampler, 2),
		batch:     vertex.NewBatch(cfg.BatchCapacity()),
		cleared:   make(map[gfx.Texture]bool),
		post:      o.post,
		camera:    o.camera,
		font:      o.font,
		dispatch:  thread.New(0),
	}
	r.batch.SetCamera(o.camera)
	if r.resolver == nil {
		r.resolver = shader.NewResolver(info.Backend)
	}

	if !shader.Initialized() {
		if err := shader.Init(); err != nil {
			return nil, fmt.Errorf("batch: init shader toolchain: %w", err)
		}
		r.ownsToolchain = true
	}

	if err := r.init(); err != nil {
		r.release()
		return nil, err
	}
	brine2d.Logger().Info("batch: renderer ready",
		"backend", info.Backend.String(),
		"adapter", info.Adapter,
		"shader_format", r.resolver.Format().String(),
		"batch_vertices", r.batch.Cap())
	return r, nil
}

func (r *Renderer) init() error {
	sh, err := shader.CreateShader(context.Background(), r.dev, r.resolver, shader.Sprite)
	if err != nil {
		return fmt.Errorf("batch: sprite shader: %w", err)
	}
	r.shader = sh

	p, err := r.GetOrCreatePipeline(brine2d.BlendAlpha)
	if err != nil {
		return err
	}
	r.blend, r.pipeline = brine2d.BlendAlpha, p

	for _, f := range []brine2d.Filter{brine2d.FilterLinear, brine2d.FilterNearest} {
		if _, err := r.sampler(f); err != nil {
			return err
		}
	}

	white, err := r.newTexture("white", 1, 1, gputypes.TextureFormatRGBA8Unorm, brine2d.FilterNearest)
	if err != nil {
		return err
	}
	if err := r.dev.WriteTexture(white.gpu, []byte{255, 255, 255, 255}); err != nil {
		r.dev.Release(white.gpu)
		return fmt.Errorf("batch: upload white texture: %w", err)
	}
	r.white = white
	return nil
}

// fail records the first error of the frame. EndFrame returns it.
func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
		brine2d.Logger().Error("batch: frame error", "err", err)
	}
}

// drawing reports whether draws should be recorded right now.
func (r *Renderer) drawing() bool {
	return r.inFrame && !r.skipped && r.err == nil
}

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

	frames, skipped := r.stats.Frames, r.stats.SkippedFrames
	r.stats = Stats{Frames: frames, SkippedFrames: skipped}
	r.err = nil
	r.batch.Reset()
	r.tex = nil
	clear(r.cleared)
	r.resetStacks()
	r.inFrame = true

	surf, err := r.dev.AcquireSurface()
	if errors.Is(err, gfx.ErrSurfaceUnavailable) {
		r.skipped = true
		r.stats.SkippedFrames++
		brine2d.Logger().Debug("batch: surface unavailable, skipping frame")
		return nil
	}
	if err != nil {
		r.inFrame = false
		return fmt.Errorf("batch: acquire surface: %w", err)
	}
	r.surface = surf

	if r.cfg.PostProcessing {
		if err := r.ensurePostTargets(surf.Width(), surf.Height()); err != nil {
			r.inFrame = false
			return err
		}
	}

	enc, err := r.dev.BeginCommands()
	if err != nil {
		r.inFrame = false
		return fmt.Errorf("batch: begin commands: %w", err)
	}
	r.enc = enc
	return nil
}

// EndFrame implements brine2d.Renderer.
func (r *Renderer) EndFrame() error {
	if !r.inFrame {
		return brine2d.ErrNotInFrame
	}
	if r.skipped {
		r.inFrame = false
		r.skipped = false
		r.batch.Reset()
		return nil
	}

	// The frame stays open until the pending batch is flushed.
	r.flush(FlushEndFrame)
	if r.err == nil && r.scene != nil && r.cfg.PostProcessing {
		if err := r.composite(); err != nil {
			r.fail(err)
		}
	}
	if r.err == nil {
		r.ensureCleared(r.surface, r.cfg.ClearColor)
	}
	r.inFrame = false

	enc := r.enc
	r.enc = nil
	if r.err != nil {
		enc.Discard()
		return r.err
	}
	if err := enc.Submit(true); err != nil {
		return fmt.Errorf("batch: submit: %w", err)
	}
	r.stats.Frames++
	brine2d.Logger().Debug("batch: frame submitted",
		"draw_calls", r.stats.DrawCalls,
		"vertices", r.stats.Vertices,
		"flushes", r.stats.FlushesByReason())
	return nil
}

// ensureCleared clears tex with an empty pass if nothing was drawn into
// it this frame.
func (r *Renderer) ensureCleared(tex gfx.Texture, c brine2d.Color) {
	if r.cleared[tex] {
		return
	}
	pass, err := r.enc.BeginPass(gfx.PassDescriptor{
		Label:  "clear",
		Target: tex,
		Load:   gputypes.LoadOpClear,
		Clear:  clearValue(c),
	})
	if err != nil {
		r.fail(fmt.Errorf("batch: begin clear pass: %w", err))
		return
	}
	if err := pass.End(); err != nil {
		r.fail(fmt.Errorf("batch: end clear pass: %w", err))
		return
	}
	r.cleared[tex] = true
}

func clearValue(c brine2d.Color) gputypes.Color {
	return gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}

// destination returns where the batch is drawn: the pushed render
// target, else the post-processing scene, else the surface.
func (r *Renderer) destination() (gfx.Texture, brine2d.Color) {
	switch {
	case r.target != nil:
		return r.target.tex.gpu, r.target.clear
	case r.scene != nil && r.cfg.PostProcessing:
		return r.scene.gpu, r.cfg.ClearColor
	default:
		return r.surface, r.cfg.ClearColor
	}
}

// flush submits the pending batch as one draw call. An empty batch is a
// no-op.
func (r *Renderer) flush(reason FlushReason) {
	if r.batch.Empty() {
		return
	}
	defer r.batch.Reset()
	if !r.drawing() || r.tex == nil {
		return
	}

	dst, clearColor := r.destination()
	load := gputypes.LoadOpLoad
	if !r.cleared[dst] {
		load = gputypes.LoadOpClear
	}

	verts := r.batch.Vertices()
	r.encoded = vertex.Encode(r.encoded, verts)
	slice, err := r.enc.Upload(r.encoded)
	if err != nil {
		r.fail(fmt.Errorf("batch: upload vertices: %w", err))
		return
	}
	smp, err := r.sampler(r.tex.filter)
	if err != nil {
		r.fail(err)
		return
	}

	pass, err := r.enc.BeginPass(gfx.PassDescriptor{
		Label:  "batch",
		Target: dst,
		Load:   load,
		Clear:  clearValue(clearColor),
	})
	if err != nil {
		r.fail(fmt.Errorf("batch: begin pass: %w", err))
		return
	}
	r.cleared[dst] = true

	pass.SetPipeline(r.pipeline)
	pass.SetTexture(r.tex.gpu, smp)
	pass.SetVertices(slice)
	if r.scissor != nil {
		x, y, w, h := scissorRect(*r.scissor, dst.Width(), dst.Height())
		pass.SetScissor(x, y, w, h)
	}
	pass.Draw(slice.Count())
	if err := pass.End(); err != nil {
		r.fail(fmt.Errorf("batch: end pass: %w", err))
		return
	}

	r.stats.DrawCalls++
	r.stats.Vertices += len(verts)
	r.stats.Flushes[reason]++
}

// scissorRect converts s to integer pixels clamped to a w x h target.
func scissorRect(s brine2d.Rect, w, h int) (x, y, sw, sh uint32) {
	c := s.Intersect(brine2d.R(0, 0, float32(w), float32(h)))
	if c.Empty() {
		return 0, 0, 0, 0
	}
	x0, y0 := uint32(c.X+0.5), uint32(c.Y+0.5)
	x1, y1 := uint32(c.Right()+0.5), uint32(c.Bottom()+0.5)
	return x0, y0, x1 - x0, y1 - y0
}

// reserve prepares the batch for n vertices sampling tex, flushing when
// the batch is full or bound to another texture. It reports whether the
// caller should add the vertices.
func (r *Renderer) reserve(tex *Texture, n int) bool {
	if !r.drawing() {
		return false
	}
	if !r.batch.Empty() {
		switch {
		case !r.batch.Fits(n):
			r.flush(FlushCapacity)
		case r.tex != tex:
			r.flush(FlushTexture)
		}
	}
	r.tex = tex
	return true
}

// SetCamera implements brine2d.Renderer. The camera applies to vertices
// added after the call.
func (r *Renderer) SetCamera(c brine2d.Camera) {
	r.camera = c
	r.batch.SetCamera(c)
}

// Camera implements brine2d.Renderer.
func (r *Renderer) Camera() brine2d.Camera { return r.camera }

// SetPostProcessor replaces the post processor.
func (r *Renderer) SetPostProcessor(p PostProcessor) { r.post = p }

// Size implements brine2d.Renderer.
func (r *Renderer) Size() (w, h int) {
	if r.surface != nil {
		return r.surface.Width(), r.surface.Height()
	}
	return r.cfg.Width, r.cfg.Height
}

// Stats returns the counters of the current or last frame.
func (r *Renderer) Stats() Stats { return r.stats }

// Info returns the device description.
func (r *Renderer) Info() gfx.DriverInfo { return r.info }

// Close releases every resource the renderer created. Calls queued through
// Async fail with an error.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	if r.inFrame && r.enc != nil {
		r.enc.Discard()
		r.enc = nil
	}
	r.inFrame = false
	r.release()
	r.closed = true
	brine2d.Logger().Info("batch: renderer closed", "frames", r.stats.Frames)
	return nil
}

func (r *Renderer) release() {
	r.dispatch.Close()
	r.releasePostTargets()
	if r.white != nil {
		r.dev.Release(r.white.gpu)
		r.white = nil
	}
	for m, p := range r.pipelines {
		r.dev.Release(p)
		delete(r.pipelines, m)
	}
	for f, s := range r.samplers {
		r.dev.Release(s)
		delete(r.samplers, f)
	}
	for _, p := range r.effectPipelines {
		r.dev.Release(p)
	}
	for _, s := range r.effectShaders {
		r.dev.Release(s)
	}
	r.effectPipelines, r.effectShaders = nil, nil
	if r.shader != nil {
		r.dev.Release(r.shader)
		r.shader = nil
	}
	if r.ownsToolchain {
		shader.Shutdown()
		r.ownsToolchain = false
	}
}
