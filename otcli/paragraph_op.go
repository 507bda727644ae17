package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/raqmgo/paragraph"
	"github.com/pterm/pterm"
)

// paragraphOp lays out op.arg (UTF-8 text, each '_' replaced by a space since
// the command parser splits the line on spaces) against the currently loaded
// font and prints the resulting run list and glyph array. op.format optionally
// names a base direction (ltr|rtl|ttb|default), defaulting to Default.
//
// Example: "paragraph:hello_world:ltr"
func paragraphOp(intp *Intp, op *Op) (error, bool) {
	if intp.font == nil {
		pterm.Error.Println("no font loaded")
		return nil, false
	}
	text, ok := op.hasArg()
	if !ok {
		pterm.Error.Println("paragraph needs text, e.g. paragraph:hello:ltr")
		return nil, false
	}
	text = strings.ReplaceAll(text, "_", " ")

	p := paragraph.New()
	defer p.Release()
	p.SetText([]rune(text))
	p.SetBaseDirection(parseDirection(op.format))
	p.SetFont(paragraph.NewFontHandle(intp.font), 0, len([]rune(text)))

	if !p.Layout() {
		pterm.Error.Println("layout failed")
		return nil, false
	}
	printRuns(p.Runs())
	printGlyphs(p)
	return nil, false
}

func parseDirection(s string) paragraph.Direction {
	switch strings.ToLower(s) {
	case "ltr":
		return paragraph.LeftToRight
	case "rtl":
		return paragraph.RightToLeft
	case "ttb":
		return paragraph.TopToBottom
	default:
		return paragraph.DefaultDirection
	}
}

func printRuns(runs []paragraph.Run) {
	pterm.Printf("%d shaping run(s)\n", len(runs))
	data := [][]string{
		{"Pos", "Len", "Direction", "Script"},
	}
	for _, r := range runs {
		data = append(data, []string{
			fmt.Sprintf("%d", r.Pos),
			fmt.Sprintf("%d", r.Len),
			r.Direction.String(),
			r.Script.String(),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printGlyphs(p *paragraph.Paragraph) {
	glyphs, count := p.GetGlyphs()
	pterm.Printf("%d glyph(s)\n", count)
	data := [][]string{
		{"GID", "Cluster", "XAdvance", "YAdvance", "XOffset", "YOffset"},
	}
	for _, g := range glyphs {
		data = append(data, []string{
			fmt.Sprintf("%d", g.GlyphIndex),
			fmt.Sprintf("%d", g.Cluster),
			fmt.Sprintf("%d", g.XAdvance),
			fmt.Sprintf("%d", g.YAdvance),
			fmt.Sprintf("%d", g.XOffset),
			fmt.Sprintf("%d", g.YOffset),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
