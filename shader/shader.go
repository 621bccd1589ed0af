// Package shader resolves the engine's portable WGSL shaders into the
// format the active graphics backend consumes.
//
// Resolution order for a shader name:
//
//  1. a precompiled file "<format>/<name><ext>" in the resolver's bundle;
//  2. the WGSL source compiled with naga, directly to the target format;
//  3. for MSL, HLSL and GLSL, the WGSL compiled to SPIR-V and handed to a
//     registered Transpiler (SPIRV-Cross by default).
//
// Every failure is fatal to renderer start-up and is returned as a
// *ResolveError naming the backend, the format and what is missing.
package shader

import (
	"embed"
	"errors"
	"fmt"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Built-in shader names.
const (
	Sprite    = "sprite"
	Blit      = "blit"
	Grayscale = "grayscale"
)

// Entry points every built-in shader defines.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

//go:embed shaders/*.wgsl
var sources embed.FS

// Sources returns the embedded WGSL sources, named "shaders/<name>.wgsl".
func Sources() embed.FS { return sources }

// FormatFor returns the shader format consumed by a backend.
// The mapping is one-to-one.
func FormatFor(b gfx.Backend) gfx.ShaderFormat {
	switch b {
	case gfx.BackendVulkan:
		return gfx.ShaderSPIRV
	case gfx.BackendMetal:
		return gfx.ShaderMSL
	case gfx.BackendD3D12:
		return gfx.ShaderHLSL
	case gfx.BackendOpenGL:
		return gfx.ShaderGLSL
	default:
		return gfx.ShaderWGSL
	}
}

var (
	// ErrNotFound means neither the bundle nor the sources contain the
	// shader.
	ErrNotFound = errors.New("shader: not found")

	// ErrNoTranspiler means the target format needs a SPIR-V transpiler
	// and none is available.
	ErrNoTranspiler = errors.New("shader: no SPIR-V transpiler available")

	// ErrNotInitialized is returned when the toolchain is used before Init
	// or after Shutdown.
	ErrNotInitialized = errors.New("shader: toolchain not initialized")
)

// ResolveError describes a failed shader resolution.
type ResolveError struct {
	Shader  string
	Backend gfx.Backend
	Format  gfx.ShaderFormat
	// Hint tells the user what to install or change.
	Hint string
	Err  error
}

func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("shader: resolve %q for %s (%s): %v", e.Shader, e.Backend, e.Format, e.Err)
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

func (e *ResolveError) Unwrap() error { return e.Err }

func hintFor(err error, format gfx.ShaderFormat) string {
	switch {
	case errors.Is(err, ErrNoTranspiler):
		return fmt.Sprintf("install spirv-cross on PATH or bundle precompiled %s shaders", format)
	case errors.Is(err, ErrNotInitialized):
		return "call shader.Init before creating a renderer"
	case errors.Is(err, ErrNotFound):
		return "check the shader name and the bundle layout <format>/<name><ext>"
	default:
		return ""
	}
}
