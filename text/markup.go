// Package text lays out plain and marked-up text against a glyph atlas and
// emits positioned glyph quads and decoration rectangles.
package text

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/CrazyPickleStudios/brine2d"
)

// DefaultMarkupCacheSize is the number of parsed strings kept by the
// package-level parser.
const DefaultMarkupCacheSize = 256

type markupKey struct {
	text  string
	color brine2d.Color
}

// MarkupParser turns BBCode-style markup into TextRuns and caches the
// result per (text, base color). Safe for concurrent use.
//
// Supported tags:
//
//	[color=red] [color=#ff8800] ... [/color]
//	[b] ... [/b]          bold
//	[u] ... [/u]          underline
//	[s] ... [/s]          strikethrough
//	[size=24] ... [/size] font size in pixels
//	[[                    a literal '['
//
// Anything that is not a well-formed known tag is kept as literal text.
type MarkupParser struct {
	cache *lru.Cache[markupKey, []brine2d.TextRun]
}

// NewMarkupParser returns a parser caching up to size results.
func NewMarkupParser(size int) *MarkupParser {
	c, err := lru.New[markupKey, []brine2d.TextRun](max(size, 1))
	if err != nil {
		panic("text: " + err.Error())
	}
	return &MarkupParser{cache: c}
}

var defaultParser = NewMarkupParser(DefaultMarkupCacheSize)

// ParseMarkup parses s with the package-level parser.
func ParseMarkup(s string, base brine2d.Color) []brine2d.TextRun {
	return defaultParser.Parse(s, base)
}

// Parse returns the runs of s. Text outside any color tag uses base. The
// returned slice is shared with the cache and must not be modified.
func (p *MarkupParser) Parse(s string, base brine2d.Color) []brine2d.TextRun {
	key := markupKey{text: s, color: base}
	if runs, ok := p.cache.Get(key); ok {
		return runs
	}
	runs := parseMarkup(s, base)
	p.cache.Add(key, runs)
	return runs
}

type markupState struct {
	colors []brine2d.Color
	sizes  []float32
	bold   int
	under  int
	strike int
}

func (st *markupState) style() brine2d.TextStyle {
	var s brine2d.TextStyle
	if st.bold > 0 {
		s |= brine2d.StyleBold
	}
	if st.under > 0 {
		s |= brine2d.StyleUnderline
	}
	if st.strike > 0 {
		s |= brine2d.StyleStrikethrough
	}
	return s
}

func (st *markupState) run(text string) brine2d.TextRun {
	return brine2d.TextRun{
		Text:  text,
		Color: st.colors[len(st.colors)-1],
		Style: st.style(),
		Size:  st.sizes[len(st.sizes)-1],
	}
}

func parseMarkup(s string, base brine2d.Color) []brine2d.TextRun {
	st := &markupState{
		colors: []brine2d.Color{base},
		sizes:  []float32{0},
	}
	var runs []brine2d.TextRun
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		r := st.run(buf.String())
		// Merge with the previous run when nothing changed in between.
		if n := len(runs); n > 0 && runs[n-1].Color == r.Color && runs[n-1].Style == r.Style && runs[n-1].Size == r.Size {
			runs[n-1].Text += r.Text
		} else {
			runs = append(runs, r)
		}
		buf.Reset()
	}

	for i := 0; i < len(s); {
		if s[i] != '[' {
			j := strings.IndexByte(s[i:], '[')
			if j < 0 {
				j = len(s) - i
			}
			buf.WriteString(s[i : i+j])
			i += j
			continue
		}
		if strings.HasPrefix(s[i:], "[[") {
			buf.WriteByte('[')
			i += 2
			continue
		}
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			buf.WriteString(s[i:])
			break
		}
		tag := s[i+1 : i+end]
		// The state change applies to text after the tag, so pending text
		// is flushed with the old state first.
		pending := buf.String()
		buf.Reset()
		snapshot := *st
		snapshot.colors = append([]brine2d.Color(nil), st.colors...)
		snapshot.sizes = append([]float32(nil), st.sizes...)
		if !st.apply(tag) {
			buf.WriteString(pending)
			buf.WriteString(s[i : i+end+1])
			i += end + 1
			continue
		}
		if pending != "" {
			applied := *st
			*st = snapshot
			buf.WriteString(pending)
			flush()
			*st = applied
		}
		i += end + 1
	}
	flush()
	return runs
}

// apply updates the state for one tag body and reports whether the tag
// was recognized.
func (st *markupState) apply(tag string) bool {
	if name, ok := strings.CutPrefix(tag, "/"); ok {
		return st.close(strings.ToLower(strings.TrimSpace(name)))
	}
	name, value, hasValue := strings.Cut(tag, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)

	switch {
	case name == "b" && !hasValue:
		st.bold++
	case name == "u" && !hasValue:
		st.under++
	case name == "s" && !hasValue:
		st.strike++
	case name == "color" && hasValue:
		c, err := brine2d.ParseColor(value)
		if err != nil {
			return false
		}
		st.colors = append(st.colors, c)
	case name == "size" && hasValue:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil || v <= 0 {
			return false
		}
		st.sizes = append(st.sizes, float32(v))
	default:
		return false
	}
	return true
}

// close pops one level of the named tag. Closing a tag that is not open is
// recognized (and swallowed) but changes nothing.
func (st *markupState) close(name string) bool {
	switch name {
	case "b":
		st.bold = max(st.bold-1, 0)
	case "u":
		st.under = max(st.under-1, 0)
	case "s":
		st.strike = max(st.strike-1, 0)
	case "color":
		if len(st.colors) > 1 {
			st.colors = st.colors[:len(st.colors)-1]
		}
	case "size":
		if len(st.sizes) > 1 {
			st.sizes = st.sizes[:len(st.sizes)-1]
		}
	default:
		return false
	}
	return true
}
