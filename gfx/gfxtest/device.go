// Package gfxtest provides a gfx.Device that records every call instead of
// talking to a GPU. Tests inspect the recorded passes and draws.
package gfxtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Resource is the concrete type of every object the Device creates.
type Resource struct {
	label string
	id    int
}

func (r *Resource) Label() string { return r.label }

// ID returns a creation-order identifier, unique per device.
func (r *Resource) ID() int { return r.id }

// Texture is a recorded texture. Pixels holds the last WriteTexture data.
type Texture struct {
	Resource
	W, H   int
	Fmt    gputypes.TextureFormat
	Pixels []byte
}

func (t *Texture) Width() int                     { return t.W }
func (t *Texture) Height() int                    { return t.H }
func (t *Texture) Format() gputypes.TextureFormat { return t.Fmt }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	Resource
	Desc gfx.PipelineDescriptor
}

// Sampler is a recorded sampler.
type Sampler struct {
	Resource
	Filter gputypes.FilterMode
}

// Shader is a recorded shader module.
type Shader struct {
	Resource
	Code gfx.ShaderCode
}

// Buffer is a recorded vertex upload.
type Buffer struct {
	Resource
	Data []byte
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

// Draw is one recorded Pass.Draw call with the state bound at the time.
type Draw struct {
	Pipeline *Pipeline
	Texture  *Texture
	Sampler  *Sampler
	Scissor  *[4]uint32
	Vertices []byte
	Count    uint32
}

// PassRecord is one recorded render pass.
type PassRecord struct {
	Label  string
	Target *Texture
	Load   gputypes.LoadOp
	Clear  gputypes.Color
	Draws  []Draw
}

// Blit is one recorded Encoder.Blit call.
type Blit struct {
	Src, Dst *Texture
	Pipeline *Pipeline
}

// Frame is everything recorded between BeginCommands and Submit.
type Frame struct {
	Passes    []PassRecord
	Blits     []Blit
	Presented bool
}

// Draws returns every draw of the frame in submission order.
func (f *Frame) Draws() []Draw {
	var out []Draw
	for _, p := range f.Passes {
		out = append(out, p.Draws...)
	}
	return out
}

// Device is a recording gfx.Device.
type Device struct {
	mu sync.Mutex

	// Width and Height size the surface returned by AcquireSurface.
	Width, Height int

	// SurfaceUnavailable makes AcquireSurface fail with
	// gfx.ErrSurfaceUnavailable.
	SurfaceUnavailable bool

	// FailPipelines makes CreatePipeline fail for descriptors whose label
	// is in the set.
	FailPipelines map[string]bool

	// FailShaders makes CreateShader fail.
	FailShaders bool

	Backend gfx.Backend

	nextID    int
	surface   *Texture
	Pipelines []*Pipeline
	Samplers  []*Sampler
	Textures  []*Texture
	Shaders   []*Shader
	Released  []gfx.Resource
	Frames    []*Frame
	Destroyed bool
}

var _ gfx.Device = (*Device)(nil)

// New returns a recording device with a surface of the given size.
func New(w, h int) *Device {
	return &Device{Width: w, Height: h, Backend: gfx.BackendNoop}
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// Info implements gfx.Device.
func (d *Device) Info() gfx.DriverInfo {
	return gfx.DriverInfo{
		Backend:       d.Backend,
		API:           "gfxtest",
		Adapter:       "recorder",
		SurfaceFormat: gputypes.TextureFormatBGRA8Unorm,
	}
}

// CreateShader implements gfx.Device.
func (d *Device) CreateShader(desc gfx.ShaderDescriptor) (gfx.Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailShaders {
		return nil, fmt.Errorf("gfxtest: shader %q rejected", desc.Label)
	}
	s := &Shader{Resource: Resource{label: desc.Label, id: d.id()}, Code: desc.Code}
	d.Shaders = append(d.Shaders, s)
	return s, nil
}

// CreatePipeline implements gfx.Device.
func (d *Device) CreatePipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPipelines[desc.Label] {
		return nil, fmt.Errorf("gfxtest: pipeline %q rejected", desc.Label)
	}
	p := &Pipeline{Resource: Resource{label: desc.Label, id: d.id()}, Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// CreateSampler implements gfx.Device.
func (d *Device) CreateSampler(filter gputypes.FilterMode) (gfx.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Sampler{Resource: Resource{label: "sampler_" + filter.String(), id: d.id()}, Filter: filter}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

// CreateTexture implements gfx.Device.
func (d *Device) CreateTexture(desc gfx.TextureDescriptor) (gfx.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("gfxtest: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &Texture{
		Resource: Resource{label: desc.Label, id: d.id()},
		W:        desc.Width,
		H:        desc.Height,
		Fmt:      desc.Format,
	}
	d.Textures = append(d.Textures, t)
	return t, nil
}

// WriteTexture implements gfx.Device.
func (d *Device) WriteTexture(tex gfx.Texture, pixels []byte) error {
	t, ok := tex.(*Texture)
	if !ok {
		return fmt.Errorf("gfxtest: foreign texture %T", tex)
	}
	if len(pixels) != t.W*t.H*4 {
		return fmt.Errorf("gfxtest: WriteTexture got %d bytes, want %d", len(pixels), t.W*t.H*4)
	}
	t.Pixels = append(t.Pixels[:0], pixels...)
	return nil
}

// AcquireSurface implements gfx.Device.
func (d *Device) AcquireSurface() (gfx.Texture, error) {
	if d.SurfaceUnavailable {
		return nil, gfx.ErrSurfaceUnavailable
	}
	if d.surface == nil || d.surface.W != d.Width || d.surface.H != d.Height {
		d.surface = &Texture{
			Resource: Resource{label: "surface", id: d.id()},
			W:        d.Width,
			H:        d.Height,
			Fmt:      gputypes.TextureFormatBGRA8Unorm,
		}
	}
	return d.surface, nil
}

// Surface returns the most recently acquired surface texture.
func (d *Device) Surface() *Texture { return d.surface }

// BeginCommands implements gfx.Device.
func (d *Device) BeginCommands() (gfx.Encoder, error) {
	return &Encoder{dev: d, frame: &Frame{}}, nil
}

// Release implements gfx.Device.
func (d *Device) Release(r gfx.Resource) {
	d.mu.Lock()
	d.Released = append(d.Released, r)
	d.mu.Unlock()
}

// Destroy implements gfx.Device.
func (d *Device) Destroy() { d.Destroyed = true }

// LastFrame returns the most recently submitted frame, or nil.
func (d *Device) LastFrame() *Frame {
	if len(d.Frames) == 0 {
		return nil
	}
	return d.Frames[len(d.Frames)-1]
}

// Encoder is a recording gfx.Encoder.
type Encoder struct {
	dev    *Device
	frame  *Frame
	open   *passRecorder
	closed bool
}

// Upload implements gfx.Encoder.
func (e *Encoder) Upload(vertices []byte) (gfx.VertexSlice, error) {
	buf := &Buffer{Resource: Resource{label: "vertices"}, Data: append([]byte(nil), vertices...)}
	return gfx.VertexSlice{Buffer: buf, Size: uint64(len(vertices))}, nil
}

// BeginPass implements gfx.Encoder.
func (e *Encoder) BeginPass(desc gfx.PassDescriptor) (gfx.Pass, error) {
	if e.open != nil {
		return nil, errors.New("gfxtest: pass already open")
	}
	target, ok := desc.Target.(*Texture)
	if !ok {
		return nil, fmt.Errorf("gfxtest: foreign pass target %T", desc.Target)
	}
	e.frame.Passes = append(e.frame.Passes, PassRecord{
		Label:  desc.Label,
		Target: target,
		Load:   desc.Load,
		Clear:  desc.Clear,
	})
	e.open = &passRecorder{enc: e, index: len(e.frame.Passes) - 1}
	return e.open, nil
}

// Blit implements gfx.Encoder.
func (e *Encoder) Blit(src, dst gfx.Texture, pipeline gfx.Pipeline) error {
	s, _ := src.(*Texture)
	t, _ := dst.(*Texture)
	if s == nil || t == nil {
		return errors.New("gfxtest: blit with foreign texture")
	}
	p, _ := pipeline.(*Pipeline)
	e.frame.Blits = append(e.frame.Blits, Blit{Src: s, Dst: t, Pipeline: p})
	return nil
}

// Submit implements gfx.Encoder.
func (e *Encoder) Submit(present bool) error {
	if e.closed {
		return errors.New("gfxtest: encoder already finished")
	}
	if e.open != nil {
		return errors.New("gfxtest: submit with open pass")
	}
	e.closed = true
	e.frame.Presented = present
	e.dev.mu.Lock()
	e.dev.Frames = append(e.dev.Frames, e.frame)
	e.dev.mu.Unlock()
	return nil
}

// Discard implements gfx.Encoder.
func (e *Encoder) Discard() { e.closed = true }

type passRecorder struct {
	enc      *Encoder
	index    int
	pipeline *Pipeline
	texture  *Texture
	sampler  *Sampler
	scissor  *[4]uint32
	vertices gfx.VertexSlice
}

func (p *passRecorder) SetPipeline(pl gfx.Pipeline) { p.pipeline, _ = pl.(*Pipeline) }

func (p *passRecorder) SetTexture(t gfx.Texture, s gfx.Sampler) {
	p.texture, _ = t.(*Texture)
	p.sampler, _ = s.(*Sampler)
}

func (p *passRecorder) SetVertices(v gfx.VertexSlice) { p.vertices = v }

func (p *passRecorder) SetScissor(x, y, w, h uint32) {
	p.scissor = &[4]uint32{x, y, w, h}
}

func (p *passRecorder) Draw(count uint32) {
	var data []byte
	if b, ok := p.vertices.Buffer.(*Buffer); ok {
		data = b.Data[p.vertices.Offset : p.vertices.Offset+p.vertices.Size]
	}
	rec := &p.enc.frame.Passes[p.index]
	rec.Draws = append(rec.Draws, Draw{
		Pipeline: p.pipeline,
		Texture:  p.texture,
		Sampler:  p.sampler,
		Scissor:  p.scissor,
		Vertices: data,
		Count:    count,
	})
}

func (p *passRecorder) End() error {
	if p.enc.open != p {
		return errors.New("gfxtest: pass already ended")
	}
	p.enc.open = nil
	return nil
}
