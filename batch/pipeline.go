package batch

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
	"github.com/CrazyPickleStudios/brine2d/shader"
)

// blendState returns the fixed-function blend of m, or nil when blending
// is disabled.
func blendState(m brine2d.BlendMode) *gputypes.BlendState {
	add := gputypes.BlendOperationAdd
	switch m {
	case brine2d.BlendAdditive:
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOne, Operation: add},
			Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: add},
		}
	case brine2d.BlendMultiply:
		// Destination alpha is kept.
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorDst, DstFactor: gputypes.BlendFactorZero, Operation: add},
			Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorZero, DstFactor: gputypes.BlendFactorOne, Operation: add},
		}
	case brine2d.BlendNone:
		return nil
	default:
		// Straight (non-premultiplied) alpha.
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: add},
			Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: add},
		}
	}
}

// pipelineLabel is the label of the sprite pipeline for m.
func pipelineLabel(m brine2d.BlendMode) string {
	return shader.Sprite + "/" + m.String()
}

// GetOrCreatePipeline returns the sprite pipeline for m, creating it on
// first use. Pipelines live until Close.
func (r *Renderer) GetOrCreatePipeline(m brine2d.BlendMode) (gfx.Pipeline, error) {
	if p, ok := r.pipelines[m]; ok {
		return p, nil
	}
	p, err := r.dev.CreatePipeline(gfx.PipelineDescriptor{
		Label:         pipelineLabel(m),
		Shader:        r.shader,
		VertexEntry:   shader.VertexEntry,
		FragmentEntry: shader.FragmentEntry,
		TargetFormat:  r.format,
		Blend:         blendState(m),
	})
	if err != nil {
		return nil, fmt.Errorf("batch: create %s pipeline (backend %s, shader format %s): %w",
			m, r.info.Backend, r.resolver.Format(), err)
	}
	r.pipelines[m] = p
	brine2d.Logger().Debug("batch: pipeline created", "blend", m.String())
	return p, nil
}

// SetBlendMode switches the blend mode of subsequent draws. Setting the
// current mode again does nothing; otherwise pending draws are flushed
// first. A pipeline creation failure is recorded and returned by EndFrame.
func (r *Renderer) SetBlendMode(m brine2d.BlendMode) {
	if m == r.blend {
		return
	}
	r.flush(FlushBlend)
	p, err := r.GetOrCreatePipeline(m)
	if err != nil {
		r.fail(err)
		return
	}
	r.blend = m
	r.pipeline = p
}

// BlendMode returns the current blend mode.
func (r *Renderer) BlendMode() brine2d.BlendMode { return r.blend }
