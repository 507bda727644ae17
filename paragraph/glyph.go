package paragraph

import "github.com/npillmayer/raqmgo/ot"

// Glyph is one shaped, positioned glyph: a font glyph index, the source
// code-point index it was produced from, and its advance/offset in font
// units.
type Glyph struct {
	GlyphIndex ot.GlyphIndex
	Cluster    uint32
	XAdvance   int32
	YAdvance   int32
	XOffset    int32
	YOffset    int32
}

// collectGlyphs concatenates each run's shaped buffer into one owned array,
// in run-list (visual) order, leaving cluster values in code-point index
// space.
func collectGlyphs(runs []Run) []Glyph {
	total := 0
	for _, r := range runs {
		total += len(r.buffer)
	}
	if total == 0 {
		return nil
	}
	out := make([]Glyph, 0, total)
	for _, r := range runs {
		out = append(out, r.buffer...)
	}
	return out
}
