package batch

import (
	"github.com/CrazyPickleStudios/brine2d"
)

// PushRenderTarget implements brine2d.Renderer. Pending draws are flushed
// to the previous destination before switching.
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
	r.setTarget(t)
}

// PopRenderTarget implements brine2d.Renderer. Popping an empty stack is
// logged and ignored.
func (r *Renderer) PopRenderTarget() {
	n := len(r.targets)
	if n == 0 {
		brine2d.Logger().Warn("batch: PopRenderTarget on empty stack ignored")
		return
	}
	prev := r.targets[n-1]
	r.targets = r.targets[:n-1]
	r.setTarget(prev)
}

func (r *Renderer) setTarget(t *RenderTarget) {
	if t == r.target {
		return
	}
	r.flush(FlushTarget)
	r.target = t
}

// RenderTarget returns the active render target, nil for the default
// destination.
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
	r.setScissor(s)
}

// PopScissorRect implements brine2d.Renderer. Popping an empty stack
// returns brine2d.ErrScissorStackEmpty and leaves clipping unchanged.
func (r *Renderer) PopScissorRect() error {
	n := len(r.scissors)
	if n == 0 {
		return brine2d.ErrScissorStackEmpty
	}
	prev := r.scissors[n-1]
	r.scissors = r.scissors[:n-1]
	r.setScissor(prev)
	return nil
}

func (r *Renderer) setScissor(s *brine2d.Rect) {
	if sameRect(s, r.scissor) {
		r.scissor = s
		return
	}
	r.flush(FlushScissor)
	r.scissor = s
}

// Scissor returns the active scissor rectangle, nil when unclipped.
func (r *Renderer) Scissor() *brine2d.Rect {
	if r.scissor == nil {
		return nil
	}
	c := *r.scissor
	return &c
}

func sameRect(a, b *brine2d.Rect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// resetStacks clears both stacks at the start of a frame. Leftover
// entries mean a push without a pop in the previous frame.
func (r *Renderer) resetStacks() {
	if len(r.targets) > 0 || len(r.scissors) > 0 {
		brine2d.Logger().Warn("batch: unbalanced stacks at frame start",
			"render_targets", len(r.targets),
			"scissors", len(r.scissors))
	}
	r.targets = r.targets[:0]
	r.scissors = r.scissors[:0]
	r.target = nil
	r.scissor = nil
}
