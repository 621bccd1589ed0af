package fontatlas

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// packingSlack inflates the summed glyph area when estimating the atlas
// size, to account for space lost at row ends and under short glyphs.
const packingSlack = 1.2

// OverflowError is returned when glyphs do not fit in the estimated atlas.
type OverflowError struct {
	Side   int
	Glyphs int
	Rune   rune
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("fontatlas: %d glyphs overflow %dx%d atlas at rune %q", e.Glyphs, e.Side, e.Side, e.Rune)
}

// packItem is a glyph bitmap waiting for a position.
type packItem struct {
	r    rune
	w, h int
	x, y int
}

// estimateSide returns the power-of-two side of a square atlas whose area
// is at least the summed padded glyph area, and which is at least as wide
// as the widest padded glyph.
func estimateSide(items []packItem, padding int) int {
	var area float64
	widest := 1
	for _, it := range items {
		pw, ph := it.w+padding, it.h+padding
		area += float64(pw * ph)
		widest = max(widest, pw+padding)
	}
	side := max(int(math.Ceil(math.Sqrt(area*packingSlack))), widest, 1)
	return nextPow2(side)
}

func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

// packRows places items left to right in rows, tallest first. A row wraps
// to y = rowY + rowHeight + padding. Every item is separated from its
// neighbours and the atlas edge by at least padding pixels. Items with no
// area are left at (0, 0).
func packRows(items []packItem, side, padding int) error {
	order := make([]int, 0, len(items))
	for i, it := range items {
		if it.w > 0 && it.h > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := items[order[a]], items[order[b]]
		if ia.h != ib.h {
			return ia.h > ib.h
		}
		return ia.r < ib.r
	})

	x, y, rowH := padding, padding, 0
	for _, i := range order {
		it := &items[i]
		if x+it.w+padding > side {
			x = padding
			y += rowH + padding
			rowH = 0
		}
		if y+it.h+padding > side || it.w+2*padding > side {
			return &OverflowError{Side: side, Glyphs: len(order), Rune: it.r}
		}
		it.x, it.y = x, y
		x += it.w + padding
		rowH = max(rowH, it.h)
	}
	return nil
}
