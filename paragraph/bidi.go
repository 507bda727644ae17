package paragraph

import (
	xbidi "golang.org/x/text/unicode/bidi"
)

// bidiRun is a maximal contiguous range of code points that share a bidi
// embedding level, expressed directly as the resolved run direction (see
// itemizeBidi: RightToLeft for an RTL level run, LeftToRight otherwise, and
// TopToBottom for a vertical paragraph). Bidi runs are listed in visual order.
type bidiRun struct {
	pos, len int
	dir      Direction
}

// itemizeBidi splits text into bidi level-runs in visual order, honoring
// base. It never fails for TopToBottom (every code point is forced to a
// single strong-LTR run at level 0, per the design notes on vertical text);
// otherwise it fails if the Unicode Bidirectional Algorithm rejects the
// input (e.g. an invalid embedding level is computed).
func itemizeBidi(text []rune, base Direction) ([]bidiRun, error) {
	n := len(text)
	if n == 0 {
		return nil, nil
	}
	if base == TopToBottom {
		return []bidiRun{{pos: 0, len: n, dir: TopToBottom}}, nil
	}

	baseDir := resolveParagraphDirection(text, base)

	var p xbidi.Paragraph
	opts := []xbidi.Option{}
	if baseDir == RightToLeft {
		opts = append(opts, xbidi.DefaultDirection(xbidi.RightToLeft))
	}
	if _, err := p.SetString(string(text), opts...); err != nil {
		return nil, errParagraphf("bidi: %s", err)
	}
	ordering, err := p.Order()
	if err != nil {
		return nil, errParagraphf("bidi: %s", err)
	}

	runs := make([]bidiRun, 0, ordering.NumRuns())
	covered := 0
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		length := end - start + 1
		dir := LeftToRight
		if run.Direction() == xbidi.RightToLeft {
			dir = RightToLeft
		}
		runs = append(runs, bidiRun{pos: start, len: length, dir: dir})
		covered = start + length
	}
	if covered < n {
		// golang.org/x/text/unicode/bidi stops at a paragraph separator
		// (bidi class B); fold any remainder into a trailing run of the
		// paragraph's base direction so coverage of [0,N) is preserved.
		runs = append(runs, bidiRun{pos: covered, len: n - covered, dir: baseDir})
	}

	// golang.org/x/text/unicode/bidi reports runs grouped by direction in
	// logical (input) order; it does not perform the recursive UAX #9 L2
	// reordering for nested embedding levels (that machinery is
	// unexported). For a base-LTR paragraph the logical run sequence
	// already equals the visual sequence at this single level of nesting.
	// For a base-RTL paragraph the run sequence itself must be reversed to
	// read left-to-right in memory order, while each run's own code points
	// stay in their original order (the shaper reverses glyph order within
	// an RTL run). This reproduces L2's outer-level effect; it is an
	// approximation for paragraphs with more than one level of embedding.
	if baseDir == RightToLeft {
		reverseBidiRuns(runs)
	}
	return runs, nil
}

func reverseBidiRuns(runs []bidiRun) {
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
}

// resolveParagraphDirection applies UBA rule P2/P3 for DefaultDirection,
// and otherwise trusts the caller's explicit base direction directly.
func resolveParagraphDirection(text []rune, base Direction) Direction {
	switch base {
	case LeftToRight, RightToLeft:
		return base
	default:
		return firstStrongDirection(text)
	}
}

// firstStrongDirection implements UBA P2: scan for the first character with
// a strong bidi class (L, R or AL) and return the direction it implies,
// falling back to LeftToRight per P3 when the paragraph has none.
func firstStrongDirection(text []rune) Direction {
	for _, r := range text {
		props, _ := xbidi.LookupRune(r)
		switch props.Class() {
		case xbidi.L:
			return LeftToRight
		case xbidi.R, xbidi.AL:
			return RightToLeft
		}
	}
	return LeftToRight
}
