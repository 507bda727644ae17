/*
Package paragraph performs complex text layout on a single paragraph of
Unicode text.

Given a sequence of code points, a base direction, a font binding and an
optional list of OpenType feature toggles, it runs the Unicode
Bidirectional Algorithm to derive directional runs, resolves a script for
every code point, splits the bidi runs further at script boundaries, and
drives an OpenType shaping engine over each resulting run. The collected
output is a single slice of positioned glyphs in visual order, ready for
a renderer.

Font loading, the OpenType shaping engine itself (package otshape) and
line breaking are treated as external collaborators; this package only
itemizes text and orchestrates calls into them.
*/
package paragraph

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer returns a trace sink for the paragraph package namespace.
func tracer() tracing.Trace {
	return tracing.Select("opentype.paragraph")
}
