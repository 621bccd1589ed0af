package brine2d

import (
	"image"
)

// Texture is a drawable image owned by a renderer.
type Texture interface {
	Width() int
	Height() int
	Filter() Filter
}

// TextureContext creates and releases textures. Its methods must be called
// on the render goroutine; use Renderer.Async from other goroutines.
type TextureContext interface {
	// CreateTextureFromImage uploads img once and returns a texture with
	// the same dimensions.
	CreateTextureFromImage(img image.Image, filter Filter) (Texture, error)

	// CreateBlankTexture returns a transparent texture.
	CreateBlankTexture(w, h int, filter Filter) (Texture, error)

	// ReleaseTexture destroys t. Drawing a released texture is undefined.
	ReleaseTexture(t Texture)
}

// RenderTarget is an off-screen texture that draws can be redirected to
// with PushRenderTarget. Its Texture can be drawn like any other.
type RenderTarget interface {
	Texture() Texture
	Width() int
	Height() int
	// ClearColor is applied by the first flush into the target each frame.
	ClearColor() Color
	SetClearColor(c Color)
	Release()
}

// Renderer is the per-frame drawing API. All methods must be called from
// the goroutine that created the renderer.
//
// Draw calls between BeginFrame and EndFrame are batched; state changes
// (texture, blend mode, render target, scissor) may flush the pending
// batch, so paint order always equals call order.
type Renderer interface {
	TextureContext

	// BeginFrame starts a frame. When the surface is unavailable the frame
	// is skipped: BeginFrame returns nil and draws become no-ops until
	// EndFrame.
	BeginFrame() error

	// EndFrame flushes, composites post-processing, submits and presents.
	// It returns the first error recorded during the frame.
	EndFrame() error

	DrawRectangleFilled(r Rect, c Color)
	DrawRectangleOutline(r Rect, c Color, thickness float32)
	DrawCircleFilled(cx, cy, radius float32, c Color)
	DrawCircleOutline(cx, cy, radius float32, c Color, thickness float32)
	DrawLine(x0, y0, x1, y1 float32, c Color, thickness float32)

	// DrawTexture draws t at its natural size.
	DrawTexture(t Texture, x, y float32)

	// DrawTextureSized draws t stretched into dst, tinted.
	DrawTextureSized(t Texture, dst Rect, tint Color)

	// DrawTextureRegion draws the src pixels of t into dst, rotated by
	// rotation radians around the centre of dst.
	DrawTextureRegion(t Texture, src, dst Rect, rotation float32, tint Color)

	DrawText(s string, x, y float32, c Color)
	DrawTextWithOptions(s string, x, y float32, opts TextRenderOptions)
	MeasureText(s string, opts TextRenderOptions) (w, h float32)
	SetDefaultFont(f Font)

	SetBlendMode(m BlendMode)
	BlendMode() BlendMode

	// PushScissorRect clips subsequent draws to r. A nil r disables
	// clipping until the matching pop.
	PushScissorRect(r *Rect)
	PopScissorRect() error

	// PushRenderTarget redirects subsequent draws into rt; nil selects the
	// default destination.
	PushRenderTarget(rt RenderTarget)
	PopRenderTarget()
	CreateRenderTarget(w, h int, filter Filter) (RenderTarget, error)

	SetCamera(c Camera)
	Camera() Camera

	// Async returns a TextureContext safe to use from any goroutine. Calls
	// block until the render goroutine executes them during BeginFrame.
	Async() TextureContext

	// Size returns the current surface size in pixels.
	Size() (w, h int)

	Close() error
}
