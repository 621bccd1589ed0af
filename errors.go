package brine2d

import "errors"

var (
	// ErrUnknownBackend is returned by NewRenderer when Config.Backend
	// names a backend that was never registered.
	ErrUnknownBackend = errors.New("brine2d: unknown renderer backend")

	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("brine2d: invalid config")

	// ErrScissorStackEmpty is returned by PopScissorRect when nothing was
	// pushed. Unbalanced scissor pops are programming errors.
	ErrScissorStackEmpty = errors.New("brine2d: scissor stack is empty")

	// ErrNotInFrame is returned when a frame operation is called outside
	// BeginFrame/EndFrame.
	ErrNotInFrame = errors.New("brine2d: not inside a frame")

	// ErrClosed is returned by operations on a closed renderer.
	ErrClosed = errors.New("brine2d: renderer is closed")

	// ErrNoFont is returned by text operations when no font was set.
	ErrNoFont = errors.New("brine2d: no font set")

	// ErrForeignTexture is returned when a texture created by one renderer
	// is passed to another.
	ErrForeignTexture = errors.New("brine2d: texture belongs to a different renderer")
)
