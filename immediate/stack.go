package immediate

import (
	"image"

	"github.com/CrazyPickleStudios/brine2d"
)

// PushRenderTarget implements brine2d.Renderer.
func (r *Renderer) PushRenderTarget(rt brine2d.RenderTarget) {
	var t *RenderTarget
	if rt != nil {
		var ok bool
		t, ok = rt.(*RenderTarget)
		if !ok || t.tex.owner != r {
			r.fail(brine2d.ErrForeignTexture)
			return
		}
	}
	r.targets = append(r.targets, r.target)
	r.target = t
}

// PopRenderTarget implements brine2d.Renderer. Popping an empty stack is
// logged and ignored.
func (r *Renderer) PopRenderTarget() {
	n := len(r.targets)
	if n == 0 {
		brine2d.Logger().Warn("immediate: PopRenderTarget on empty stack ignored")
		return
	}
	r.target = r.targets[n-1]
	r.targets = r.targets[:n-1]
}

// RenderTarget returns the active render target, nil for the canvas.
func (r *Renderer) RenderTarget() brine2d.RenderTarget {
	if r.target == nil {
		return nil
	}
	return r.target
}

// PushScissorRect implements brine2d.Renderer. The rectangle is in
// destination pixels and is not transformed by the camera.
func (r *Renderer) PushScissorRect(rect *brine2d.Rect) {
	var s *brine2d.Rect
	if rect != nil {
		c := *rect
		s = &c
	}
	r.scissors = append(r.scissors, r.scissor)
	r.scissor = s
}

// PopScissorRect implements brine2d.Renderer.
func (r *Renderer) PopScissorRect() error {
	n := len(r.scissors)
	if n == 0 {
		return brine2d.ErrScissorStackEmpty
	}
	r.scissor = r.scissors[n-1]
	r.scissors = r.scissors[:n-1]
	return nil
}

// Scissor returns the active scissor rectangle, nil when unclipped.
func (r *Renderer) Scissor() *brine2d.Rect {
	if r.scissor == nil {
		return nil
	}
	c := *r.scissor
	return &c
}

func (r *Renderer) resetStacks() {
	if len(r.targets) > 0 || len(r.scissors) > 0 {
		brine2d.Logger().Warn("immediate: unbalanced stacks at frame start",
			"render_targets", len(r.targets),
			"scissors", len(r.scissors))
	}
	r.targets = r.targets[:0]
	r.scissors = r.scissors[:0]
	r.target = nil
	r.scissor = nil
}

// destination returns the image draws go to and the color it is cleared
// with on the first draw of the frame.
func (r *Renderer) destination() (*image.RGBA, brine2d.Color) {
	if r.target != nil {
		return r.target.tex.img, r.target.clear
	}
	return r.canvas, r.cfg.ClearColor
}

// clip returns the pixels of dst a draw may touch: the destination bounds
// narrowed by the scissor. Scissor edges are snapped the same way as GPU
// scissor rectangles.
func (r *Renderer) clip(dst *image.RGBA) image.Rectangle {
	b := dst.Bounds()
	if r.scissor == nil {
		return b
	}
	s := *r.scissor
	c := s.Intersect(brine2d.R(float32(b.Min.X), float32(b.Min.Y), float32(b.Dx()), float32(b.Dy())))
	if c.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(int(c.X), int(c.Y), int(c.Right()+0.5), int(c.Bottom()+0.5)).Intersect(b)
}
