package batch

import (
	"context"
	"fmt"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
	"github.com/CrazyPickleStudios/brine2d/shader"
)

// PostPass is handed to a PostProcessor at EndFrame. Scene holds the
// frame as drawn; Scratch is a second target of the same size for
// ping-ponging; Output is the presentable surface.
type PostPass struct {
	Encoder gfx.Encoder
	Scene   gfx.Texture
	Scratch gfx.Texture
	Output  gfx.Texture
}

// PostProcessor composites the scene onto the surface. Process returns
// false when it wrote nothing, in which case the scene is copied to the
// output unchanged.
type PostProcessor interface {
	Process(p PostPass) (bool, error)
}

// Effect is a fullscreen shader pass reading one texture.
type Effect struct {
	Name     string
	pipeline gfx.Pipeline
}

// NewEffect builds a fullscreen pipeline from the named shader.
func (r *Renderer) NewEffect(ctx context.Context, name string) (*Effect, error) {
	sh, err := shader.CreateShader(ctx, r.dev, r.resolver, name)
	if err != nil {
		return nil, err
	}
	r.effectShaders = append(r.effectShaders, sh)
	p, err := r.dev.CreatePipeline(gfx.PipelineDescriptor{
		Label:         "effect/" + name,
		Shader:        sh,
		VertexEntry:   shader.VertexEntry,
		FragmentEntry: shader.FragmentEntry,
		TargetFormat:  r.format,
		Fullscreen:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("batch: create effect %s: %w", name, err)
	}
	r.effectPipelines = append(r.effectPipelines, p)
	return &Effect{Name: name, pipeline: p}, nil
}

// EffectChain applies effects in order, alternating between the scene and
// scratch targets, with the last effect writing to the output.
type EffectChain struct {
	Effects []*Effect
}

// NewEffectChain builds one Effect per shader name.
func NewEffectChain(ctx context.Context, r *Renderer, names ...string) (*EffectChain, error) {
	c := &EffectChain{}
	for _, n := range names {
		e, err := r.NewEffect(ctx, n)
		if err != nil {
			return nil, err
		}
		c.Effects = append(c.Effects, e)
	}
	return c, nil
}

// Process implements PostProcessor.
func (c *EffectChain) Process(p PostPass) (bool, error) {
	if len(c.Effects) == 0 {
		return false, nil
	}
	src, spare := p.Scene, p.Scratch
	for i, e := range c.Effects {
		dst := spare
		if i == len(c.Effects)-1 {
			dst = p.Output
		}
		if err := p.Encoder.Blit(src, dst, e.pipeline); err != nil {
			return false, fmt.Errorf("batch: effect %s: %w", e.Name, err)
		}
		src, spare = dst, src
	}
	return true, nil
}

// ensurePostTargets (re)creates the scene and scratch targets to match
// the surface size.
func (r *Renderer) ensurePostTargets(w, h int) error {
	if r.scene != nil && r.scene.Width() == w && r.scene.Height() == h {
		return nil
	}
	r.releasePostTargets()
	scene, err := r.newTexture("scene", w, h, r.format, r.cfg.DefaultFilter)
	if err != nil {
		return err
	}
	scratch, err := r.newTexture("scratch", w, h, r.format, r.cfg.DefaultFilter)
	if err != nil {
		r.dev.Release(scene.gpu)
		return err
	}
	r.scene, r.scratch = scene, scratch
	brine2d.Logger().Debug("batch: post-processing targets created", "width", w, "height", h)
	return nil
}

func (r *Renderer) releasePostTargets() {
	if r.scene != nil {
		r.dev.Release(r.scene.gpu)
		r.scene = nil
	}
	if r.scratch != nil {
		r.dev.Release(r.scratch.gpu)
		r.scratch = nil
	}
}

// composite writes the scene onto the surface through the post processor,
// or copies it when there is none or it declines.
func (r *Renderer) composite() error {
	r.ensureCleared(r.scene.gpu, r.cfg.ClearColor)
	if r.post != nil {
		done, err := r.post.Process(PostPass{
			Encoder: r.enc,
			Scene:   r.scene.gpu,
			Scratch: r.scratch.gpu,
			Output:  r.surface,
		})
		if err != nil {
			return err
		}
		if done {
			r.cleared[r.surface] = true
			return nil
		}
	}
	if err := r.enc.Blit(r.scene.gpu, r.surface, nil); err != nil {
		return fmt.Errorf("batch: blit scene: %w", err)
	}
	r.cleared[r.surface] = true
	return nil
}
