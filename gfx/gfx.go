// Package gfx is the graphics capability contract the batch renderer is
// written against.
//
// A Device creates GPU resources and hands out command encoders. An Encoder
// uploads vertex data, records render passes and blits, and finally submits
// the frame. Pass is a single render pass targeting one texture.
//
// The contract is deliberately narrow: every draw uses the fixed Vertex
// layout (see VertexStride) and one bind group of (viewport, texture,
// sampler). Implementations live in backend/wgpu (wgpu HAL) and
// gfx/gfxtest (recording device for tests).
package gfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrSurfaceUnavailable is returned by Device.AcquireSurface when there is
// nothing to present to this frame (minimized window, lost swapchain).
// Callers skip the frame.
var ErrSurfaceUnavailable = errors.New("gfx: surface unavailable")

// Backend identifies the native graphics API under a Device.
type Backend uint8

const (
	BackendNoop Backend = iota
	BackendVulkan
	BackendMetal
	BackendD3D12
	BackendOpenGL
	// BackendWebGPU is a portable layer that consumes WGSL and performs
	// its own translation to the native API.
	BackendWebGPU
)

func (b Backend) String() string {
	switch b {
	case BackendNoop:
		return "noop"
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	case BackendD3D12:
		return "d3d12"
	case BackendOpenGL:
		return "opengl"
	case BackendWebGPU:
		return "webgpu"
	default:
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
}

// FromGPUTypes maps a gputypes backend to Backend.
func FromGPUTypes(b gputypes.Backend) Backend {
	switch b {
	case gputypes.BackendVulkan:
		return BackendVulkan
	case gputypes.BackendMetal:
		return BackendMetal
	case gputypes.BackendDX12:
		return BackendD3D12
	case gputypes.BackendGL:
		return BackendOpenGL
	default:
		return BackendNoop
	}
}

// DriverInfo describes an open Device.
type DriverInfo struct {
	Backend Backend
	// API is the name of the underlying implementation, for logs.
	API string
	// Adapter is the GPU name reported by the driver.
	Adapter string
	// SurfaceFormat is the format of presentable surfaces and the format
	// every pipeline must target.
	SurfaceFormat gputypes.TextureFormat
}

// ShaderFormat is a shader bytecode or source language.
type ShaderFormat uint8

const (
	ShaderWGSL ShaderFormat = iota
	ShaderSPIRV
	ShaderMSL
	ShaderHLSL
	ShaderGLSL
)

func (f ShaderFormat) String() string {
	switch f {
	case ShaderWGSL:
		return "wgsl"
	case ShaderSPIRV:
		return "spirv"
	case ShaderMSL:
		return "msl"
	case ShaderHLSL:
		return "hlsl"
	case ShaderGLSL:
		return "glsl"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", uint8(f))
	}
}

// Ext returns the file extension used for bundled shaders of this format.
func (f ShaderFormat) Ext() string {
	switch f {
	case ShaderSPIRV:
		return ".spv"
	case ShaderMSL:
		return ".metal"
	case ShaderHLSL:
		return ".hlsl"
	case ShaderGLSL:
		return ".glsl"
	default:
		return ".wgsl"
	}
}

// ShaderCode is shader source or bytecode in one format.
//
// Stages is used by formats that need one translation unit per entry
// point (GLSL); it maps entry point name to code and Code is empty.
type ShaderCode struct {
	Format ShaderFormat
	Code   []byte
	Stages map[string][]byte
}

// Vertex layout shared by every pipeline: position (float32x2) at 0,
// color (float32x4) at 8, texture coordinates (float32x2) at 24.
const (
	VertexStride      = 32
	VertexColorOffset = 8
	VertexUVOffset    = 24
)

// Resource is any device-owned object.
type Resource interface {
	Label() string
}

// Texture is a 2D RGBA texture usable as a render target and for sampling.
type Texture interface {
	Resource
	Width() int
	Height() int
	Format() gputypes.TextureFormat
}

// Shader is a compiled shader module.
type Shader interface{ Resource }

// Pipeline is a render pipeline.
type Pipeline interface{ Resource }

// Sampler is a texture sampler.
type Sampler interface{ Resource }

// Buffer is a GPU vertex buffer.
type Buffer interface {
	Resource
	Size() uint64
}

// VertexSlice is a range of uploaded vertex data.
type VertexSlice struct {
	Buffer Buffer
	Offset uint64
	Size   uint64
}

// Count returns the number of vertices in the slice.
func (s VertexSlice) Count() uint32 { return uint32(s.Size / VertexStride) }

// ShaderDescriptor describes a shader module.
type ShaderDescriptor struct {
	Label string
	Code  ShaderCode
}

// PipelineDescriptor describes a render pipeline.
type PipelineDescriptor struct {
	Label string

	Shader         Shader
	VertexEntry    string
	FragmentEntry  string
	TargetFormat   gputypes.TextureFormat
	Blend          *gputypes.BlendState // nil disables blending
	// Fullscreen pipelines take no vertex buffer and draw a single
	// triangle covering the target (post-processing effects, blits).
	Fullscreen bool
}

// TextureDescriptor describes a texture.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// PassDescriptor describes a render pass.
type PassDescriptor struct {
	Label  string
	Target Texture
	Load   gputypes.LoadOp
	Clear  gputypes.Color
}

// Device creates resources and command encoders. A Device is used from a
// single render goroutine.
type Device interface {
	Info() DriverInfo

	CreateShader(desc ShaderDescriptor) (Shader, error)
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)
	CreateSampler(filter gputypes.FilterMode) (Sampler, error)
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads tightly packed RGBA8 pixels covering the whole
	// texture.
	WriteTexture(tex Texture, pixels []byte) error

	// AcquireSurface returns this frame's presentable texture, or
	// ErrSurfaceUnavailable.
	AcquireSurface() (Texture, error)

	// BeginCommands starts recording a frame.
	BeginCommands() (Encoder, error)

	// Release destroys a resource created by this device.
	Release(r Resource)

	Destroy()
}

// Encoder records a frame of work.
type Encoder interface {
	// Upload copies vertex bytes into GPU memory valid until Submit.
	Upload(vertices []byte) (VertexSlice, error)

	BeginPass(desc PassDescriptor) (Pass, error)

	// Blit draws src over the whole of dst using a Fullscreen pipeline.
	// A nil pipeline performs a plain copy.
	Blit(src, dst Texture, pipeline Pipeline) error

	// Submit finishes recording and queues the work. When present is true
	// the acquired surface is presented afterwards.
	Submit(present bool) error

	// Discard abandons the recording.
	Discard()
}

// Pass records draws into one target.
type Pass interface {
	SetPipeline(p Pipeline)
	SetTexture(t Texture, s Sampler)
	SetVertices(v VertexSlice)
	SetScissor(x, y, w, h uint32)
	Draw(vertexCount uint32)
	End() error
}
