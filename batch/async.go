package batch

import (
	"context"
	"image"

	"github.com/CrazyPickleStudios/brine2d"
)

// asyncContext forwards texture calls to the render thread.
type asyncContext struct{ r *Renderer }

// Async implements brine2d.Renderer. The returned context blocks until
// the next BeginFrame runs the call; it must not be used from the render
// thread itself.
func (r *Renderer) Async() brine2d.TextureContext { return asyncContext{r} }

// Pump runs queued Async calls now. BeginFrame does this implicitly; Pump
// is for loading screens that stay outside a frame.
func (r *Renderer) Pump() int { return r.dispatch.Pump() }

func (a asyncContext) CreateTextureFromImage(img image.Image, filter brine2d.Filter) (brine2d.Texture, error) {
	var tex brine2d.Texture
	err := a.r.dispatch.Do(context.Background(), func() error {
		var err error
		tex, err = a.r.CreateTextureFromImage(img, filter)
		return err
	})
	return tex, err
}

func (a asyncContext) CreateBlankTexture(w, h int, filter brine2d.Filter) (brine2d.Texture, error) {
	var tex brine2d.Texture
	err := a.r.dispatch.Do(context.Background(), func() error {
		var err error
		tex, err = a.r.CreateBlankTexture(w, h, filter)
		return err
	})
	return tex, err
}

func (a asyncContext) ReleaseTexture(t brine2d.Texture) {
	err := a.r.dispatch.Do(context.Background(), func() error {
		a.r.ReleaseTexture(t)
		return nil
	})
	if err != nil {
		brine2d.Logger().Warn("batch: async release failed", "err", err)
	}
}
