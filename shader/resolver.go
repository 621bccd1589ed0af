package shader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Resolver produces shader code for one backend.
type Resolver struct {
	backend gfx.Backend
	format  gfx.ShaderFormat

	// Bundle holds precompiled shaders laid out as "<format>/<name><ext>",
	// e.g. "spirv/sprite.spv". May be nil.
	Bundle fs.FS

	// Sources holds WGSL sources as "shaders/<name>.wgsl". Defaults to the
	// embedded sources.
	Sources fs.FS

	// Toolchain compiles sources missing from the bundle. Defaults to the
	// shared toolchain.
	Toolchain *Toolchain
}

// NewResolver returns a resolver for backend using the embedded sources
// and the shared toolchain.
func NewResolver(backend gfx.Backend) *Resolver {
	return &Resolver{
		backend:   backend,
		format:    FormatFor(backend),
		Sources:   sources,
		Toolchain: Default(),
	}
}

// Format returns the format this resolver produces.
func (r *Resolver) Format() gfx.ShaderFormat { return r.format }

// Backend returns the backend this resolver targets.
func (r *Resolver) Backend() gfx.Backend { return r.backend }

// Resolve returns the named shader in the backend's format.
func (r *Resolver) Resolve(ctx context.Context, name string) (gfx.ShaderCode, error) {
	code, err := r.resolve(ctx, name)
	if err != nil {
		return gfx.ShaderCode{}, &ResolveError{
			Shader:  name,
			Backend: r.backend,
			Format:  r.format,
			Hint:    hintFor(err, r.format),
			Err:     err,
		}
	}
	return code, nil
}

func (r *Resolver) resolve(ctx context.Context, name string) (gfx.ShaderCode, error) {
	if r.Bundle != nil {
		p := path.Join(r.format.String(), name+r.format.Ext())
		data, err := fs.ReadFile(r.Bundle, p)
		switch {
		case err == nil:
			brine2d.Logger().Debug("shader: using bundled shader", "path", p)
			return gfx.ShaderCode{Format: r.format, Code: data}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return gfx.ShaderCode{}, fmt.Errorf("read bundled shader %s: %w", p, err)
		}
	}

	if r.Sources == nil {
		return gfx.ShaderCode{}, ErrNotFound
	}
	src, err := fs.ReadFile(r.Sources, path.Join("shaders", name+".wgsl"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return gfx.ShaderCode{}, ErrNotFound
		}
		return gfx.ShaderCode{}, err
	}

	tc := r.Toolchain
	if tc == nil {
		tc = Default()
	}
	return tc.Compile(ctx, string(src), r.format)
}

// CreateShader resolves name and creates the module on dev.
func CreateShader(ctx context.Context, dev gfx.Device, r *Resolver, name string) (gfx.Shader, error) {
	code, err := r.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	s, err := dev.CreateShader(gfx.ShaderDescriptor{Label: name, Code: code})
	if err != nil {
		return nil, &ResolveError{
			Shader:  name,
			Backend: r.backend,
			Format:  r.format,
			Hint:    "the device rejected the compiled shader; check driver support for " + r.format.String(),
			Err:     err,
		}
	}
	return s, nil
}
