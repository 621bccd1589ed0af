package brine2d

import (
	"fmt"
	"strings"
)

// BlendMode selects how drawn pixels combine with the destination.
// Each mode maps to exactly one GPU pipeline.
type BlendMode uint8

const (
	// BlendAlpha is straight alpha blending: src*a + dst*(1-a).
	BlendAlpha BlendMode = iota

	// BlendAdditive adds the source scaled by its alpha to the destination.
	BlendAdditive

	// BlendMultiply multiplies destination color by the source color.
	// Destination alpha is left unchanged.
	BlendMultiply

	// BlendNone writes the source unmodified.
	BlendNone
)

// BlendModes lists every blend mode in declaration order.
var BlendModes = []BlendMode{BlendAlpha, BlendAdditive, BlendMultiply, BlendNone}

func (m BlendMode) String() string {
	switch m {
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	case BlendNone:
		return "none"
	default:
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
}

// ParseBlendMode parses the names produced by BlendMode.String.
func ParseBlendMode(s string) (BlendMode, error) {
	for _, m := range BlendModes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return BlendAlpha, fmt.Errorf("brine2d: unknown blend mode %q", s)
}

// Filter selects texture sampling.
type Filter uint8

const (
	// FilterLinear interpolates between texels.
	FilterLinear Filter = iota

	// FilterNearest picks the closest texel (pixel art).
	FilterNearest
)

func (f Filter) String() string {
	if f == FilterNearest {
		return "nearest"
	}
	return "linear"
}

// ParseFilter parses "linear" or "nearest".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return FilterLinear, nil
	case "nearest":
		return FilterNearest, nil
	}
	return FilterLinear, fmt.Errorf("brine2d: unknown filter %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Filter) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Filter) UnmarshalText(b []byte) error {
	v, err := ParseFilter(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
