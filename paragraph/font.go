package paragraph

import (
	"sync/atomic"

	"github.com/npillmayer/raqmgo/ot"
)

// FontHandle is a reference-counted handle to a loaded OpenType font.
//
// Font loading and the font's own lifetime are external concerns (see the
// package doc); FontHandle only tracks how many paragraphs currently hold a
// reference, so a caller knows when it is safe to dispose of the underlying
// [ot.Font]. The zero value is not a valid handle; use [NewFontHandle].
type FontHandle struct {
	font *ot.Font
	refs *int32
}

// NewFontHandle wraps f in a fresh, reference-counted handle with one
// outstanding reference, owned by the caller.
func NewFontHandle(f *ot.Font) FontHandle {
	n := int32(1)
	return FontHandle{font: f, refs: &n}
}

// Valid reports whether h wraps a font, as opposed to the zero FontHandle.
func (h FontHandle) Valid() bool { return h.font != nil }

// Acquire records one additional reference to h's font and returns h, so a
// Paragraph can bind a font and track its own ownership of it.
func (h FontHandle) Acquire() FontHandle {
	if h.refs != nil {
		atomic.AddInt32(h.refs, 1)
	}
	return h
}

// Release drops one reference. It reports the reference count remaining
// after the release; callers that loaded the font themselves may free it
// once this reaches zero. Releasing an invalid handle is a no-op.
func (h FontHandle) Release() int32 {
	if h.refs == nil {
		return 0
	}
	return atomic.AddInt32(h.refs, -1)
}

// fontBinding maps a code-point index to the font that covers it. A
// Paragraph holds exactly one, rebuilt whenever the bound font(s) change;
// see singleFontBinding and rangeFontBinding.
type fontBinding interface {
	at(i int) FontHandle
}

// singleFontBinding binds every code point in the paragraph to the same
// font, the common case.
type singleFontBinding struct {
	font FontHandle
}

func (b singleFontBinding) at(int) FontHandle { return b.font }

// fontRange is one [start, start+length) span of a rangeFontBinding.
// Ranges are stored in the order set_font was called; a later call whose
// range overlaps an earlier one wins for the overlap, matching sequential
// rebinding semantics.
type fontRange struct {
	start, length int
	font          FontHandle
}

func (r fontRange) end() int { return r.start + r.length }

// rangeFontBinding supports per-code-point font binding built up by
// repeated set_font calls on sub-ranges of the paragraph.
type rangeFontBinding struct {
	fallback FontHandle
	ranges   []fontRange
}

// at returns the font bound to code point i: the most recently added range
// that covers i, or, if none does, the fallback: the font of the most recent
// SetFont call, whatever range it covered.
func (b *rangeFontBinding) at(i int) FontHandle {
	for k := len(b.ranges) - 1; k >= 0; k-- {
		r := b.ranges[k]
		if i >= r.start && i < r.end() {
			return r.font
		}
	}
	return b.fallback
}
