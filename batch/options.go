package batch

import (
	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/shader"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := batch.New(dev, cfg,
//		batch.WithCamera(brine2d.NewCamera2D(1280, 720)),
//		batch.WithPostProcessor(chain))
type Option func(*options)

type options struct {
	post     PostProcessor
	resolver *shader.Resolver
	camera   brine2d.Camera
	font     brine2d.Font
}

// WithPostProcessor sets the processor run on the scene at EndFrame. It
// takes effect only when Config.PostProcessing is on.
func WithPostProcessor(p PostProcessor) Option {
	return func(o *options) {
		o.post = p
	}
}

// WithShaderResolver replaces the resolver used to load the sprite shader,
// for example to supply a bundle of precompiled shaders.
func WithShaderResolver(r *shader.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithCamera sets the initial camera.
func WithCamera(c brine2d.Camera) Option {
	return func(o *options) {
		o.camera = c
	}
}

// WithFont sets the default font, skipping the atlas built from
// Config.Font on first use.
func WithFont(f brine2d.Font) Option {
	return func(o *options) {
		o.font = f
	}
}
