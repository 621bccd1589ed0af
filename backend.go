package brine2d

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Host supplies the platform resources a backend needs.
type Host struct {
	// Device is the GPU device used by the "gpu" backend.
	Device gfx.Device

	// Canvas is the destination of the "immediate" backend. A canvas of
	// Config.Width x Config.Height is allocated when nil.
	Canvas *image.RGBA
}

// BackendFactory constructs a Renderer for a validated Config.
type BackendFactory func(cfg Config, host Host) (Renderer, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]BackendFactory{}
)

// RegisterBackend makes a renderer implementation available to
// NewRenderer under name. Backend packages call it from init:
//
//	import _ "github.com/CrazyPickleStudios/brine2d/batch" // registers "gpu"
//
// Registering the same name twice replaces the earlier factory.
func RegisterBackend(name string, f BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = f
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewRenderer validates cfg and constructs the backend it names. The choice
// is made once; a Renderer never switches backends.
func NewRenderer(cfg Config, host Host) (Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backendsMu.RLock()
	f, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, cfg.Backend, Backends())
	}

	r, err := f(cfg, host)
	if err != nil {
		return nil, fmt.Errorf("brine2d: create %s renderer: %w", cfg.Backend, err)
	}
	Logger().Info("brine2d: renderer created",
		"backend", cfg.Backend,
		"width", cfg.Width,
		"height", cfg.Height)
	return r, nil
}
