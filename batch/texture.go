package batch

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Texture is a GPU texture created by a Renderer.
type Texture struct {
	gpu    gfx.Texture
	filter brine2d.Filter
	owner  *Renderer
}

var _ brine2d.Texture = (*Texture)(nil)

func (t *Texture) Width() int             { return t.gpu.Width() }
func (t *Texture) Height() int            { return t.gpu.Height() }
func (t *Texture) Filter() brine2d.Filter { return t.filter }

// GPU returns the underlying device texture.
func (t *Texture) GPU() gfx.Texture { return t.gpu }

// RenderTarget is an off-screen destination created by
// Renderer.CreateRenderTarget.
type RenderTarget struct {
	tex   *Texture
	clear brine2d.Color
}

var _ brine2d.RenderTarget = (*RenderTarget)(nil)

func (rt *RenderTarget) Texture() brine2d.Texture  { return rt.tex }
func (rt *RenderTarget) Width() int                { return rt.tex.Width() }
func (rt *RenderTarget) Height() int               { return rt.tex.Height() }
func (rt *RenderTarget) ClearColor() brine2d.Color { return rt.clear }

// SetClearColor sets the color applied by the first flush into rt in each
// frame. The default is transparent.
func (rt *RenderTarget) SetClearColor(c brine2d.Color) { rt.clear = c }

// Release destroys the target's texture.
func (rt *RenderTarget) Release() {
	rt.tex.owner.ReleaseTexture(rt.tex)
}

func filterMode(f brine2d.Filter) gputypes.FilterMode {
	if f == brine2d.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// sampler returns the cached sampler for f.
func (r *Renderer) sampler(f brine2d.Filter) (gfx.Sampler, error) {
	if s, ok := r.samplers[f]; ok {
		return s, nil
	}
	s, err := r.dev.CreateSampler(filterMode(f))
	if err != nil {
		return nil, fmt.Errorf("batch: create %s sampler: %w", f, err)
	}
	r.samplers[f] = s
	return s, nil
}

// CreateTextureFromImage uploads img as an RGBA8 texture.
func (r *Renderer) CreateTextureFromImage(img image.Image, filter brine2d.Filter) (brine2d.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("batch: empty image")
	}
	t, err := r.newTexture("texture", b.Dx(), b.Dy(), gputypes.TextureFormatRGBA8Unorm, filter)
	if err != nil {
		return nil, err
	}
	if err := r.dev.WriteTexture(t.gpu, packNRGBA(img)); err != nil {
		r.dev.Release(t.gpu)
		return nil, fmt.Errorf("batch: upload texture: %w", err)
	}
	return t, nil
}

// CreateBlankTexture returns a transparent w x h texture.
func (r *Renderer) CreateBlankTexture(w, h int, filter brine2d.Filter) (brine2d.Texture, error) {
	t, err := r.newTexture("blank", w, h, gputypes.TextureFormatRGBA8Unorm, filter)
	if err != nil {
		return nil, err
	}
	if err := r.dev.WriteTexture(t.gpu, make([]byte, w*h*4)); err != nil {
		r.dev.Release(t.gpu)
		return nil, fmt.Errorf("batch: clear texture: %w", err)
	}
	return t, nil
}

// ReleaseTexture destroys a texture created by r. Pending draws using it
// are flushed first.
func (r *Renderer) ReleaseTexture(t brine2d.Texture) {
	bt, err := r.own(t)
	if err != nil {
		brine2d.Logger().Warn("batch: release of foreign texture ignored", "err", err)
		return
	}
	if r.tex == bt {
		r.flush(FlushTexture)
		r.tex = nil
	}
	r.dev.Release(bt.gpu)
}

// CreateRenderTarget returns an off-screen target in the surface format.
func (r *Renderer) CreateRenderTarget(w, h int, filter brine2d.Filter) (brine2d.RenderTarget, error) {
	t, err := r.newTexture("render_target", w, h, r.format, filter)
	if err != nil {
		return nil, err
	}
	return &RenderTarget{tex: t, clear: brine2d.Transparent}, nil
}

func (r *Renderer) newTexture(label string, w, h int, format gputypes.TextureFormat, filter brine2d.Filter) (*Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("batch: invalid texture size %dx%d", w, h)
	}
	gt, err := r.dev.CreateTexture(gfx.TextureDescriptor{Label: label, Width: w, Height: h, Format: format})
	if err != nil {
		return nil, fmt.Errorf("batch: create %s %dx%d: %w", label, w, h, err)
	}
	return &Texture{gpu: gt, filter: filter, owner: r}, nil
}

// own returns t as a texture created by r.
func (r *Renderer) own(t brine2d.Texture) (*Texture, error) {
	bt, ok := t.(*Texture)
	if !ok || bt == nil || bt.owner != r {
		return nil, fmt.Errorf("%w: %T", brine2d.ErrForeignTexture, t)
	}
	return bt, nil
}

// packNRGBA returns the non-premultiplied pixels of img, tightly packed.
func packNRGBA(img image.Image) []byte {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return n.Pix[:4*b.Dx()*b.Dy()]
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}
