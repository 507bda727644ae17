package paragraph

import "golang.org/x/text/unicode/bidi"

// Direction is a paragraph or run's writing direction.
type Direction int

const (
	// DefaultDirection resolves via UBA rule P2: the first strong character
	// decides, falling back to LeftToRight when the paragraph has none.
	DefaultDirection Direction = iota
	LeftToRight
	RightToLeft
	TopToBottom
)

func (d Direction) String() string {
	switch d {
	case DefaultDirection:
		return "Default"
	case LeftToRight:
		return "LTR"
	case RightToLeft:
		return "RTL"
	case TopToBottom:
		return "TTB"
	default:
		return "Invalid"
	}
}

// otDirection converts d to the direction type the OpenType shaping engine
// (package otshape, via golang.org/x/text/unicode/bidi) expects. TTB runs
// are shaped as plain left-to-right glyph streams; vertical placement is the
// caller's responsibility (see the Non-goals in the design notes).
func (d Direction) otDirection() bidi.Direction {
	if d == RightToLeft {
		return bidi.RightToLeft
	}
	return bidi.LeftToRight
}
