package paragraph

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/npillmayer/raqmgo/otshape"
	"golang.org/x/text/language"
)

// Paragraph is the top-level layout session: an immutable-once-set
// code-point sequence, a base direction, feature toggles and font binding,
// plus the derived state the pipeline fills in on Layout.
//
// A Paragraph is not safe for concurrent mutation. Distinct Paragraphs may
// be laid out concurrently provided their bound fonts are, per the font
// collaborator's own documentation.
type Paragraph struct {
	refs int32

	text []rune
	base Direction

	features []otshape.FeatureRange
	font     fontBinding

	script   []Script
	bidiRuns []bidiRun
	runs     []Run
	glyphs   []Glyph
	laidOut  bool
}

// New creates a Paragraph with no text, base direction Default, and one
// outstanding reference owned by the caller.
func New() *Paragraph {
	return &Paragraph{refs: 1, base: DefaultDirection}
}

// Acquire records one additional reference to p and returns p.
func (p *Paragraph) Acquire() *Paragraph {
	atomic.AddInt32(&p.refs, 1)
	return p
}

// Release drops one reference, tearing p's owned state down once the last
// one goes. It reports the reference count remaining after the release.
func (p *Paragraph) Release() int32 {
	n := atomic.AddInt32(&p.refs, -1)
	if n <= 0 {
		p.destroy()
	}
	return n
}

// destroy releases every resource the Paragraph owns: held font references,
// the shaped run buffers, and the derived arrays.
func (p *Paragraph) destroy() {
	p.releaseFonts()
	p.text = nil
	p.features = nil
	p.font = nil
	p.resetDerived()
}

func (p *Paragraph) releaseFonts() {
	if rb, ok := p.font.(*rangeFontBinding); ok {
		for _, r := range rb.ranges {
			r.font.Release()
		}
	}
}

// resetDerived discards the script array, run list and glyph array, as
// SetText and a fresh Layout call both require.
func (p *Paragraph) resetDerived() {
	p.script = nil
	p.bidiRuns = nil
	p.runs = nil
	p.glyphs = nil
	p.laidOut = false
}

// SetText replaces p's code-point sequence. Invalid code points (surrogate
// halves, values beyond the Unicode range) are replaced with U+FFFD. Any
// derived state from a prior Layout is discarded.
func (p *Paragraph) SetText(text []rune) {
	clean := make([]rune, len(text))
	for i, r := range text {
		if validCodePoint(r) {
			clean[i] = r
		} else {
			clean[i] = utf8.RuneError
		}
	}
	p.text = clean
	p.resetDerived()
}

func validCodePoint(r rune) bool {
	if r < 0 || r > utf8.MaxRune {
		return false
	}
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return true
}

// Len returns the paragraph's code-point count N.
func (p *Paragraph) Len() int { return len(p.text) }

// SetBaseDirection sets the paragraph's base writing direction.
func (p *Paragraph) SetBaseDirection(d Direction) { p.base = d }

// AddFeature parses featureString in the shaper's textual feature grammar
// and appends it to the feature list; a later call whose range overlaps an
// earlier one overrides it during shaping. It reports whether the string
// parsed; on failure the feature list is left unchanged.
func (p *Paragraph) AddFeature(featureString string) bool {
	f, err := parseFeatureString(featureString)
	if err != nil {
		tracer().Debugf("add_feature: %s", err)
		return false
	}
	p.features = append(p.features, f)
	return true
}

// SetFont binds font to the code-point range [start, start+length). length
// is clipped to the paragraph's end; a start at or beyond N is a no-op.
// font is acquired for as long as the Paragraph holds it.
//
// Repeated whole-paragraph calls (start=0, length=N) implement the common
// single-font case, where the last call wins; narrower ranges implement
// per-code-point font binding.
func (p *Paragraph) SetFont(font FontHandle, start, length int) bool {
	n := len(p.text)
	if n == 0 || start < 0 || start >= n || !font.Valid() {
		return false
	}
	if length < 0 {
		length = 0
	}
	if start+length > n {
		length = n - start
	}
	font = font.Acquire()
	rb, ok := p.font.(*rangeFontBinding)
	if !ok {
		rb = &rangeFontBinding{}
		p.font = rb
	}
	if start == 0 && length == n {
		// A whole-paragraph bind replaces every earlier binding, so the
		// references held for those are released here.
		for _, r := range rb.ranges {
			r.font.Release()
		}
		rb.ranges = rb.ranges[:0]
	}
	rb.ranges = append(rb.ranges, fontRange{start: start, length: length, font: font})
	rb.fallback = font
	return true
}

// Layout runs the full pipeline — script resolution, bidi itemization, run
// splitting and shaping — rebuilding all derived state. It is idempotent
// with respect to the paragraph's current inputs. It reports false (and
// leaves the paragraph's derived state cleared) for N=0 or a bidi failure.
func (p *Paragraph) Layout() bool {
	n := len(p.text)
	if n == 0 {
		p.resetDerived()
		return false
	}

	script := newScriptArray(p.text)
	bidiRuns, err := itemizeBidi(p.text, p.base)
	if err != nil {
		tracer().Debugf("layout: %s", err)
		p.resetDerived()
		return false
	}

	binding := p.font
	if binding == nil {
		binding = singleFontBinding{}
	}
	runs := splitRuns(bidiRuns, script, binding)
	if err := shapeRuns(p.text, runs, binding, hostLanguage, p.features); err != nil {
		tracer().Debugf("layout: %s", err)
		p.resetDerived()
		return false
	}

	p.script = script
	p.bidiRuns = bidiRuns
	p.runs = runs
	p.glyphs = collectGlyphs(runs)
	p.laidOut = true
	return true
}

// hostLanguage is the shaper's language-system default: undetermined,
// letting each OpenType engine fall back to its script's default
// language-system rather than a specific BCP 47 tag.
var hostLanguage = language.Und

// GetGlyphs returns the paragraph's shaped glyph array and its length.
// Ownership remains with the Paragraph; callers who need to outlive it
// (e.g. [ShapeU32]) must copy.
func (p *Paragraph) GetGlyphs() ([]Glyph, int) {
	return p.glyphs, len(p.glyphs)
}

// Runs returns the shaping-ready run list produced by the last successful
// Layout call, in visual order.
func (p *Paragraph) Runs() []Run { return p.runs }
