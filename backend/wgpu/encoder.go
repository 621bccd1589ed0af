package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

var errEncoderDone = errors.New("wgpu: encoder already finished")

// Encoder records one frame into a HAL command encoder.
type Encoder struct {
	dev     *Device
	raw     hal.CommandEncoder
	uploads []hal.Buffer
	open    *Pass
	done    bool
}

var _ gfx.Encoder = (*Encoder)(nil)

// Upload implements gfx.Encoder. Each upload gets its own buffer, freed
// after the frame's submission completes.
func (e *Encoder) Upload(vertices []byte) (gfx.VertexSlice, error) {
	if e.done {
		return gfx.VertexSlice{}, errEncoderDone
	}
	size := uint64(len(vertices))
	if size == 0 {
		return gfx.VertexSlice{}, nil
	}
	raw, err := e.dev.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: "vertices",
		Size:  (size + 3) &^ 3,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gfx.VertexSlice{}, fmt.Errorf("wgpu: create vertex buffer (%d bytes): %w", size, err)
	}
	if err := e.dev.queue.WriteBuffer(raw, 0, vertices); err != nil {
		e.dev.hal.DestroyBuffer(raw)
		return gfx.VertexSlice{}, fmt.Errorf("wgpu: write vertex buffer: %w", err)
	}
	e.uploads = append(e.uploads, raw)
	return gfx.VertexSlice{Buffer: &Buffer{label: "vertices", raw: raw, size: size}, Size: size}, nil
}

// BeginPass implements gfx.Encoder.
func (e *Encoder) BeginPass(desc gfx.PassDescriptor) (gfx.Pass, error) {
	if e.done {
		return nil, errEncoderDone
	}
	if e.open != nil {
		return nil, errors.New("wgpu: pass already open")
	}
	target, ok := desc.Target.(*Texture)
	if !ok {
		return nil, fmt.Errorf("wgpu: pass %s: %w: target %T", desc.Label, ErrForeignResource, desc.Target)
	}
	rp := e.raw.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.view,
			LoadOp:     desc.Load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: desc.Clear,
		}},
	})
	rp.SetViewport(0, 0, float32(target.w), float32(target.h), 0, 1)
	e.open = &Pass{enc: e, raw: rp, target: target}
	return e.open, nil
}

// Blit implements gfx.Encoder. A nil pipeline copies src into dst, which
// must then have the same size and format.
func (e *Encoder) Blit(src, dst gfx.Texture, pipeline gfx.Pipeline) error {
	if e.done {
		return errEncoderDone
	}
	s, ok1 := src.(*Texture)
	t, ok2 := dst.(*Texture)
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: blit %T -> %T", ErrForeignResource, src, dst)
	}

	if pipeline == nil {
		if s.w != t.w || s.h != t.h || s.format != t.format {
			return fmt.Errorf("wgpu: copy %s (%dx%d %v) to %s (%dx%d %v) needs matching textures",
				s.label, s.w, s.h, s.format, t.label, t.w, t.h, t.format)
		}
		e.raw.CopyTextureToTexture(s.raw, t.raw, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Texture: s.raw, Aspect: gputypes.TextureAspectAll},
			DstBase: hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
			Size:    hal.Extent3D{Width: uint32(s.w), Height: uint32(s.h), DepthOrArrayLayers: 1},
		}})
		return nil
	}

	p, ok := pipeline.(*Pipeline)
	if !ok || !p.fullscreen {
		return fmt.Errorf("wgpu: blit needs a fullscreen pipeline, got %T", pipeline)
	}
	pass, err := e.BeginPass(gfx.PassDescriptor{Label: "blit/" + p.label, Target: t, Load: gputypes.LoadOpClear})
	if err != nil {
		return err
	}
	pass.SetPipeline(p)
	pass.SetTexture(s, e.dev.blitSampler)
	pass.Draw(3)
	return pass.End()
}

// Submit implements gfx.Encoder.
func (e *Encoder) Submit(present bool) error {
	if e.done {
		return errEncoderDone
	}
	if e.open != nil {
		return errors.New("wgpu: submit with open pass")
	}
	e.done = true
	d := e.dev
	d.recording = false

	cmd, err := e.raw.EndEncoding()
	if err != nil {
		e.release(nil, 0)
		_ = d.endSurfaceFrame(false)
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		e.release(cmd, 0)
		_ = d.endSurfaceFrame(false)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	e.release(cmd, index)
	return d.endSurfaceFrame(present)
}

// Discard implements gfx.Encoder.
func (e *Encoder) Discard() {
	if e.done {
		return
	}
	e.done = true
	e.open = nil
	e.raw.DiscardEncoding()
	e.dev.recording = false
	e.release(nil, 0)
	_ = e.dev.endSurfaceFrame(false)
}

// release hands the frame's uploads, deferred destroys and command buffer
// to the device. Index 0 means nothing reached the GPU.
func (e *Encoder) release(cmd hal.CommandBuffer, index uint64) {
	d := e.dev
	cleanup := d.pending
	d.pending = nil
	for _, b := range e.uploads {
		cleanup = append(cleanup, func() { d.hal.DestroyBuffer(b) })
	}
	e.uploads = nil
	cleanup = append(cleanup, e.raw.Destroy)
	if index == 0 {
		if cmd != nil {
			d.hal.FreeCommandBuffer(cmd)
		}
		for _, fn := range cleanup {
			fn()
		}
		return
	}
	d.inflight = append(d.inflight, retired{index: index, cmd: cmd, cleanup: cleanup})
}

// Pass records draws into one target.
type Pass struct {
	enc    *Encoder
	raw    hal.RenderPassEncoder
	target *Texture
	err    error
}

var _ gfx.Pass = (*Pass)(nil)

func (p *Pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Pass) SetPipeline(pl gfx.Pipeline) {
	raw, ok := pl.(*Pipeline)
	if !ok {
		p.fail(fmt.Errorf("%w: pipeline %T", ErrForeignResource, pl))
		return
	}
	p.raw.SetPipeline(raw.raw)
}

// SetTexture binds t and s together with the target's viewport uniform.
func (p *Pass) SetTexture(t gfx.Texture, s gfx.Sampler) {
	tex, ok1 := t.(*Texture)
	smp, ok2 := s.(*Sampler)
	if !ok1 || !ok2 {
		p.fail(fmt.Errorf("%w: texture %T sampler %T", ErrForeignResource, t, s))
		return
	}
	g, err := p.enc.dev.bindGroup(p.target.w, p.target.h, tex, smp)
	if err != nil {
		p.fail(err)
		return
	}
	p.raw.SetBindGroup(0, g, nil)
}

func (p *Pass) SetVertices(v gfx.VertexSlice) {
	b, ok := v.Buffer.(*Buffer)
	if !ok {
		p.fail(fmt.Errorf("%w: buffer %T", ErrForeignResource, v.Buffer))
		return
	}
	p.raw.SetVertexBuffer(0, b.raw, v.Offset)
}

func (p *Pass) SetScissor(x, y, w, h uint32) { p.raw.SetScissorRect(x, y, w, h) }

func (p *Pass) Draw(count uint32) {
	if p.err != nil || count == 0 {
		return
	}
	p.raw.Draw(count, 1, 0, 0)
}

// End closes the pass and returns the first error recorded in it.
func (p *Pass) End() error {
	if p.enc.open != p {
		return errors.New("wgpu: pass already ended")
	}
	p.raw.End()
	p.enc.open = nil
	return p.err
}
