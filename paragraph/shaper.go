package paragraph

import (
	"io"

	"github.com/npillmayer/raqmgo/otshape"
	"github.com/npillmayer/raqmgo/otshape/otarabic"
	"github.com/npillmayer/raqmgo/otshape/otcore"
	"github.com/npillmayer/raqmgo/otshape/othebrew"
	"golang.org/x/text/language"
)

// candidateEngines lists the shaping engines offered to otshape.Shaper for a
// run, in preference order. otshape picks whichever one actually matches
// the run's script; listing script-specific engines ahead of the core
// engine costs nothing for scripts they don't claim.
func candidateEngines() []otshape.ShapingEngine {
	return []otshape.ShapingEngine{
		otarabic.New(),
		othebrew.New(),
		otcore.New(),
	}
}

// runeSliceSource adapts a []rune window to otshape.RuneSource.
type runeSliceSource struct {
	runes []rune
	pos   int
}

func (s *runeSliceSource) ReadRune() (rune, int, error) {
	if s.pos >= len(s.runes) {
		return 0, 0, io.EOF
	}
	r := s.runes[s.pos]
	s.pos++
	return r, 1, nil
}

// runGlyphSink collects otshape.GlyphRecord output for one run, rewriting
// cluster values from run-local to paragraph-absolute code-point indices.
type runGlyphSink struct {
	base   uint32
	glyphs []Glyph
}

func (s *runGlyphSink) WriteGlyph(g otshape.GlyphRecord) error {
	s.glyphs = append(s.glyphs, Glyph{
		GlyphIndex: g.GID,
		Cluster:    s.base + g.Cluster,
		XAdvance:   g.Pos.XAdvance,
		YAdvance:   g.Pos.YAdvance,
		XOffset:    g.Pos.XOffset,
		YOffset:    g.Pos.YOffset,
	})
	return nil
}

// shapeRuns drives the OpenType shaping engine over every run in list
// order, filling each run's glyph buffer in place. text is the full
// paragraph; a run only ever sees its own [Pos, Pos+Len) window — otshape's
// public streaming interface has no notion of a surrounding context window,
// so cross-run contextual shaping (e.g. Arabic joining across a bidi or
// script boundary) is approximated at the run boundary rather than fed
// adjoining context, same limitation as shaping scripts with no boundary
// context at all.
func shapeRuns(text []rune, runs []Run, font fontBinding, lang language.Tag, features []otshape.FeatureRange) error {
	shaper := otshape.NewShaper(candidateEngines()...)
	for i := range runs {
		r := &runs[i]
		f := font.at(r.Pos)
		if !f.Valid() {
			continue
		}
		opts := otshape.ShapeOptions{
			Params: otshape.Params{
				Font:      f.font,
				Direction: r.Direction.otDirection(),
				Script:    r.Script.otScript(),
				Language:  lang,
				Features:  featuresInRange(features, r.Pos, r.End()),
			},
			FlushBoundary: otshape.FlushOnRunBoundary,
		}
		src := &runeSliceSource{runes: text[r.Pos:r.End()]}
		sink := &runGlyphSink{base: uint32(r.Pos), glyphs: make([]Glyph, 0, r.Len)}
		if err := shaper.Shape(opts, src, sink); err != nil {
			// Per the contract, shaper-internal failures surface as an
			// empty buffer rather than aborting the whole paragraph.
			tracer().Debugf("run [%d,%d) failed to shape: %s", r.Pos, r.End(), err)
			r.buffer = nil
			continue
		}
		r.buffer = sink.glyphs
	}
	return nil
}

// featuresInRange narrows paragraph-wide feature ranges to the ones
// overlapping [start, end), rebasing Start/End into the run's own
// code-point-relative coordinate space (0 means start/end of run, matching
// otshape.FeatureRange's own start/end-of-run convention).
func featuresInRange(features []otshape.FeatureRange, start, end int) []otshape.FeatureRange {
	if len(features) == 0 {
		return nil
	}
	var out []otshape.FeatureRange
	for _, f := range features {
		fs, fe := f.Start, f.End
		if fs <= 0 {
			fs = start
		}
		if fe <= 0 {
			fe = end
		}
		if fe <= start || fs >= end {
			continue
		}
		rebased := f
		if fs > start {
			rebased.Start = fs - start
		} else {
			rebased.Start = 0
		}
		if fe < end {
			rebased.End = fe - start
		} else {
			rebased.End = 0
		}
		out = append(out, rebased)
	}
	return out
}
