package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// ErrForeignResource is returned when a resource created by another device
// is passed in.
var ErrForeignResource = errors.New("wgpu: resource from another device")

// textureUsage is granted to every texture so any of them can be sampled,
// rendered into, and copied.
const textureUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

// Texture is a HAL texture and its default view.
type Texture struct {
	label   string
	raw     hal.Texture
	view    hal.TextureView
	w, h    int
	format  gputypes.TextureFormat
	surface bool
}

func (t *Texture) Label() string                  { return t.label }
func (t *Texture) Width() int                     { return t.w }
func (t *Texture) Height() int                    { return t.h }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Shader is a HAL shader module.
type Shader struct {
	label string
	raw   hal.ShaderModule
}

func (s *Shader) Label() string { return s.label }

// Pipeline is a HAL render pipeline.
type Pipeline struct {
	label      string
	raw        hal.RenderPipeline
	fullscreen bool
}

func (p *Pipeline) Label() string { return p.label }

// Sampler is a HAL sampler.
type Sampler struct {
	label string
	raw   hal.Sampler
}

func (s *Sampler) Label() string { return s.label }

// Buffer is a HAL vertex buffer.
type Buffer struct {
	label string
	raw   hal.Buffer
	size  uint64
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return b.size }

// CreateShader implements gfx.Device. Only WGSL and SPIR-V are accepted.
func (d *Device) CreateShader(desc gfx.ShaderDescriptor) (gfx.Shader, error) {
	var src hal.ShaderSource
	switch desc.Code.Format {
	case gfx.ShaderWGSL:
		src.WGSL = string(desc.Code.Code)
	case gfx.ShaderSPIRV:
		words, err := spirvWords(desc.Code.Code)
		if err != nil {
			return nil, fmt.Errorf("wgpu: shader %s: %w", desc.Label, err)
		}
		src.SPIRV = words
	default:
		return nil, fmt.Errorf("wgpu: shader %s: format %s not accepted by the HAL", desc.Label, desc.Code.Format)
	}
	raw, err := d.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: desc.Label, Source: src})
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader %s: %w", desc.Label, err)
	}
	return &Shader{label: desc.Label, raw: raw}, nil
}

func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a positive multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// CreateSampler implements gfx.Device.
func (d *Device) CreateSampler(filter gputypes.FilterMode) (gfx.Sampler, error) {
	label := "sampler_" + filter.String()
	raw, err := d.hal.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	return &Sampler{label: label, raw: raw}, nil
}

// CreateTexture implements gfx.Device.
func (d *Device) CreateTexture(desc gfx.TextureDescriptor) (gfx.Texture, error) {
	t, err := d.newTexture(desc.Label, desc.Width, desc.Height, desc.Format)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) newTexture(label string, w, h int, format gputypes.TextureFormat) (*Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("wgpu: invalid texture size %dx%d", w, h)
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	raw, err := d.hal.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %s %dx%d: %w", label, w, h, err)
	}
	view, err := d.hal.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.hal.DestroyTexture(raw)
		return nil, fmt.Errorf("wgpu: create texture view %s: %w", label, err)
	}
	return &Texture{label: label, raw: raw, view: view, w: w, h: h, format: format}, nil
}

// WriteTexture implements gfx.Device.
func (d *Device) WriteTexture(tex gfx.Texture, pixels []byte) error {
	t, ok := tex.(*Texture)
	if !ok || t.surface {
		return fmt.Errorf("%w: %T", ErrForeignResource, tex)
	}
	if len(pixels) != t.w*t.h*4 {
		return fmt.Errorf("wgpu: WriteTexture %s got %d bytes, want %d", t.label, len(pixels), t.w*t.h*4)
	}
	size := hal.Extent3D{Width: uint32(t.w), Height: uint32(t.h), DepthOrArrayLayers: 1}
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
		pixels,
		&hal.ImageDataLayout{BytesPerRow: uint32(t.w) * 4, RowsPerImage: uint32(t.h)},
		&size,
	)
	if err != nil {
		return fmt.Errorf("wgpu: upload %s: %w", t.label, err)
	}
	return nil
}

// Release implements gfx.Device. Resources that a frame being recorded may
// still reference are destroyed once that frame completes.
func (d *Device) Release(r gfx.Resource) {
	switch r := r.(type) {
	case *Texture:
		if r.surface {
			return
		}
		d.forgetGroups(func(k groupKey) bool { return k.tex == r })
		d.later(func() {
			d.hal.DestroyTextureView(r.view)
			d.hal.DestroyTexture(r.raw)
		})
	case *Sampler:
		d.forgetGroups(func(k groupKey) bool { return k.smp == r })
		d.later(func() { d.hal.DestroySampler(r.raw) })
	case *Pipeline:
		d.later(func() { d.hal.DestroyRenderPipeline(r.raw) })
	case *Shader:
		d.later(func() { d.hal.DestroyShaderModule(r.raw) })
	case *Buffer:
		d.later(func() { d.hal.DestroyBuffer(r.raw) })
	default:
		brine2d.Logger().Warn("wgpu: release of foreign resource ignored", "type", fmt.Sprintf("%T", r))
	}
}
