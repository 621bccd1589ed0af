package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// viewportUniformSize is vec2 size plus vec2 padding.
const viewportUniformSize = 16

// groupKey identifies a cached bind group.
type groupKey struct {
	w, h int
	tex  *Texture
	smp  *Sampler
}

// initLayouts creates the bind group and pipeline layouts shared by every
// pipeline:
//
//	binding 0: viewport uniform (vertex)
//	binding 1: texture_2d<f32> (fragment)
//	binding 2: sampler (fragment)
func (d *Device) initLayouts() error {
	layout, err := d.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "brine2d_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	d.layout = layout

	pipeLayout, err := d.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "brine2d_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

// spriteVertexLayout matches gfx.VertexStride: position, color, uv.
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: gfx.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: gfx.VertexColorOffset, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x2, Offset: gfx.VertexUVOffset, ShaderLocation: 2},
			},
		},
	}
}

// CreatePipeline implements gfx.Device.
func (d *Device) CreatePipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	sh, ok := desc.Shader.(*Shader)
	if !ok {
		return nil, fmt.Errorf("wgpu: pipeline %s: %w: shader %T", desc.Label, ErrForeignResource, desc.Shader)
	}
	var buffers []gputypes.VertexBufferLayout
	if !desc.Fullscreen {
		buffers = spriteVertexLayout()
	}
	raw, err := d.hal.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     sh.raw,
			EntryPoint: desc.VertexEntry,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     sh.raw,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.TargetFormat,
					Blend:     desc.Blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s (format %v): %w", desc.Label, desc.TargetFormat, err)
	}
	return &Pipeline{label: desc.Label, raw: raw, fullscreen: desc.Fullscreen}, nil
}

// viewport returns the uniform buffer holding a w x h target size.
func (d *Device) viewport(w, h int) (hal.Buffer, error) {
	key := [2]int{w, h}
	if b, ok := d.viewports[key]; ok {
		return b, nil
	}
	buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("viewport_%dx%d", w, h),
		Size:  viewportUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create viewport uniform: %w", err)
	}
	data := make([]byte, viewportUniformSize)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(float32(h)))
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		d.hal.DestroyBuffer(buf)
		return nil, fmt.Errorf("wgpu: write viewport uniform: %w", err)
	}
	d.viewports[key] = buf
	return buf, nil
}

// bindGroup returns the bind group sampling tex with smp while drawing into
// a w x h target.
func (d *Device) bindGroup(w, h int, tex *Texture, smp *Sampler) (hal.BindGroup, error) {
	key := groupKey{w: w, h: h, tex: tex, smp: smp}
	if g, ok := d.groups[key]; ok {
		return g, nil
	}
	vp, err := d.viewport(w, h)
	if err != nil {
		return nil, err
	}
	g, err := d.hal.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  tex.label + "_bind",
		Layout: d.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: vp.NativeHandle(), Size: viewportUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: smp.raw.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group for %s: %w", tex.label, err)
	}
	d.groups[key] = g
	return g, nil
}

// forgetGroups drops cached bind groups matching fn.
func (d *Device) forgetGroups(fn func(groupKey) bool) {
	for k, g := range d.groups {
		if !fn(k) {
			continue
		}
		delete(d.groups, k)
		d.later(func() { d.hal.DestroyBindGroup(g) })
	}
}
