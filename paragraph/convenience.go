package paragraph

import "unicode/utf8"

// ShapeU32 is a pure convenience wrapper: it constructs a transient
// Paragraph bound to a single font, lays it out, and returns a caller-owned
// copy of the shaped glyphs. Cluster values are code-point indices; see
// [ShapeU8] for the UTF-8 byte-offset variant.
func ShapeU32(text []rune, font FontHandle, direction Direction, features []string) ([]Glyph, error) {
	p := New()
	defer p.Release()

	p.SetText(text)
	p.SetBaseDirection(direction)
	for _, f := range features {
		if !p.AddFeature(f) {
			return nil, errParagraphf("shape_u32: invalid feature %q", f)
		}
	}
	// A single set_font call over the whole paragraph; earlier transcriptions
	// of this entry point called set_font twice, which was a bug.
	p.SetFont(font, 0, len(text))

	if !p.Layout() {
		return nil, errParagraph("shape_u32: layout failed")
	}
	glyphs, _ := p.GetGlyphs()
	return append([]Glyph(nil), glyphs...), nil
}

// ShapeU8 transcodes utf8Text to UTF-32, shapes it via [ShapeU32], then
// rewrites each glyph's cluster from a code-point index into the byte
// offset of that code point in utf8Text.
func ShapeU8(utf8Text []byte, font FontHandle, direction Direction, features []string) ([]Glyph, error) {
	text := []rune(string(utf8Text))
	glyphs, err := ShapeU32(text, font, direction, features)
	if err != nil {
		return nil, err
	}
	offsets := codePointByteOffsets(text)
	out := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		g.Cluster = uint32(offsets[g.Cluster])
		out[i] = g
	}
	return out, nil
}

// codePointByteOffsets returns, for each index i in text, the byte offset
// of text[i] in the UTF-8 encoding of text; offsets[len(text)] is the total
// byte length.
func codePointByteOffsets(text []rune) []int {
	offsets := make([]int, len(text)+1)
	off := 0
	for i, r := range text {
		offsets[i] = off
		off += utf8.RuneLen(r)
	}
	offsets[len(text)] = off
	return offsets
}
