// Package blend implements the compositing operators behind brine2d blend
// modes for the software renderer.
//
// All operations work with premultiplied alpha values in the range 0-255 and
// match the fixed-function GPU blend states used by the batch renderer.
package blend

import "github.com/CrazyPickleStudios/brine2d"

// Func is the signature for blend operations.
// All values are premultiplied alpha, 0-255.
// Parameters:
//   - sr, sg, sb, sa: source color (red, green, blue, alpha)
//   - dr, dg, db, da: destination color (red, green, blue, alpha)
//
// Returns: resulting color (r, g, b, a) after blending.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// For returns the blend function for m. Unknown modes composite as
// BlendAlpha.
func For(m brine2d.BlendMode) Func {
	switch m {
	case brine2d.BlendAdditive:
		return blendPlus
	case brine2d.BlendMultiply:
		return blendMultiply
	case brine2d.BlendNone:
		return blendSource
	default:
		return blendSourceOver
	}
}

// blendSource replaces destination with source.
func blendSource(sr, sg, sb, sa, _, _, _, _ byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

// blendSourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func blendSourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addDiv255(sr, MulDiv255(dr, invSa)),
		addDiv255(sg, MulDiv255(dg, invSa)),
		addDiv255(sb, MulDiv255(db, invSa)),
		addDiv255(sa, MulDiv255(da, invSa))
}

// blendPlus adds source and destination colors (clamped to 255).
// Formula: min(S + D, 255)
func blendPlus(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return addDiv255(sr, dr), addDiv255(sg, dg), addDiv255(sb, db), addDiv255(sa, da)
}

// blendMultiply darkens the destination by the source color. Where the
// source is transparent the destination is kept; alpha is unchanged.
// Formula: D.rgb * (S.rgb + 1 - Sa)
func blendMultiply(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return MulDiv255(dr, addDiv255(sr, invSa)),
		MulDiv255(dg, addDiv255(sg, invSa)),
		MulDiv255(db, addDiv255(sb, invSa)),
		da
}

// Scale multiplies a premultiplied color by coverage c.
func Scale(r, g, b, a, c byte) (byte, byte, byte, byte) {
	if c == 255 {
		return r, g, b, a
	}
	return MulDiv255(r, c), MulDiv255(g, c), MulDiv255(b, c), MulDiv255(a, c)
}

// Lerp interpolates from d to s by t.
// Formula: S * t + D * (1 - t)
func Lerp(sr, sg, sb, sa, dr, dg, db, da, t byte) (byte, byte, byte, byte) {
	invT := 255 - t
	return addDiv255(MulDiv255(sr, t), MulDiv255(dr, invT)),
		addDiv255(MulDiv255(sg, t), MulDiv255(dg, invT)),
		addDiv255(MulDiv255(sb, t), MulDiv255(db, invT)),
		addDiv255(MulDiv255(sa, t), MulDiv255(da, invT))
}

// MulDiv255 multiplies two byte values and divides by 255 with proper rounding.
// Formula: (a * b + 127) / 255
func MulDiv255(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

// addDiv255 adds two byte values with clamping to 255.
func addDiv255(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}
