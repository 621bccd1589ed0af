package immediate

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/CrazyPickleStudios/brine2d"
)

var errReleased = errors.New("immediate: texture was released")

// Texture is an in-memory RGBA image owned by a Renderer.
type Texture struct {
	img    *image.RGBA
	filter brine2d.Filter
	owner  *Renderer
}

var _ brine2d.Texture = (*Texture)(nil)

func (t *Texture) Width() int             { return t.img.Bounds().Dx() }
func (t *Texture) Height() int            { return t.img.Bounds().Dy() }
func (t *Texture) Filter() brine2d.Filter { return t.filter }

// Image returns the texture pixels.
func (t *Texture) Image() *image.RGBA { return t.img }

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

// SetClearColor sets the color applied by the first draw into rt in each
// frame. The default is transparent.
func (rt *RenderTarget) SetClearColor(c brine2d.Color) { rt.clear = c }

// Release drops the target's pixels.
func (rt *RenderTarget) Release() { rt.tex.owner.ReleaseTexture(rt.tex) }

// CreateTextureFromImage implements brine2d.TextureContext. The pixels
// are copied, so img may be reused afterwards.
func (r *Renderer) CreateTextureFromImage(img image.Image, filter brine2d.Filter) (brine2d.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("immediate: empty image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return &Texture{img: dst, filter: filter, owner: r}, nil
}

// CreateBlankTexture implements brine2d.TextureContext.
func (r *Renderer) CreateBlankTexture(w, h int, filter brine2d.Filter) (brine2d.Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("immediate: invalid texture size %dx%d", w, h)
	}
	return &Texture{img: image.NewRGBA(image.Rect(0, 0, w, h)), filter: filter, owner: r}, nil
}

// ReleaseTexture implements brine2d.TextureContext.
func (r *Renderer) ReleaseTexture(t brine2d.Texture) {
	it, ok := t.(*Texture)
	if !ok || it.owner != r {
		brine2d.Logger().Warn("immediate: release of foreign texture ignored", "type", fmt.Sprintf("%T", t))
		return
	}
	if it.img.Pix == nil {
		return
	}
	delete(r.cleared, it.img)
	// Keep the bounds so Width and Height stay valid.
	it.img = &image.RGBA{Rect: it.img.Rect}
}

// CreateRenderTarget implements brine2d.Renderer.
func (r *Renderer) CreateRenderTarget(w, h int, filter brine2d.Filter) (brine2d.RenderTarget, error) {
	t, err := r.CreateBlankTexture(w, h, filter)
	if err != nil {
		return nil, err
	}
	return &RenderTarget{tex: t.(*Texture)}, nil
}

// own checks that t was created by r and still has pixels.
func (r *Renderer) own(t brine2d.Texture) (*Texture, error) {
	it, ok := t.(*Texture)
	if !ok || it.owner != r {
		return nil, fmt.Errorf("%w: %T", brine2d.ErrForeignTexture, t)
	}
	if it.img.Pix == nil {
		return nil, errReleased
	}
	return it, nil
}
