package batch

import "fmt"

// FlushReason records why a batch was submitted. Reasons are listed in
// the order they are checked.
type FlushReason uint8

const (
	FlushCapacity FlushReason = iota
	FlushTexture
	FlushBlend
	FlushTarget
	FlushScissor
	FlushEndFrame

	numFlushReasons
)

func (r FlushReason) String() string {
	switch r {
	case FlushCapacity:
		return "capacity"
	case FlushTexture:
		return "texture"
	case FlushBlend:
		return "blend"
	case FlushTarget:
		return "target"
	case FlushScissor:
		return "scissor"
	case FlushEndFrame:
		return "end_frame"
	default:
		return fmt.Sprintf("FlushReason(%d)", uint8(r))
	}
}

// Stats counts the work of the current (or last completed) frame.
type Stats struct {
	DrawCalls int
	Vertices  int
	Flushes   [numFlushReasons]int

	// Frames and SkippedFrames are totals since the renderer was created.
	Frames        uint64
	SkippedFrames uint64
}

// TotalFlushes returns the number of flushes that issued a draw.
func (s Stats) TotalFlushes() int {
	var n int
	for _, f := range s.Flushes {
		n += f
	}
	return n
}

// FlushesByReason maps reason names to counts, omitting zeros.
func (s Stats) FlushesByReason() map[string]int {
	m := make(map[string]int)
	for i, f := range s.Flushes {
		if f > 0 {
			m[FlushReason(i).String()] = f
		}
	}
	return m
}
