package immediate

import (
	"context"
	"image"

	"github.com/CrazyPickleStudios/brine2d"
)

type asyncContext struct{ r *Renderer }

// Async implements brine2d.Renderer. Calls block until the next
// BeginFrame or Pump on the render goroutine.
func (r *Renderer) Async() brine2d.TextureContext { return asyncContext{r} }

// Pump runs queued Async calls now.
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
		brine2d.Logger().Warn("immediate: async release failed", "err", err)
	}
}
