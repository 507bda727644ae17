package paragraph

import "testing"

func TestSplitOneBidiRunLTRAscendingOrder(t *testing.T) {
	script := []Script{Latin, Latin, Arabic, Arabic}
	br := bidiRun{pos: 0, len: 4, dir: LeftToRight}
	runs := splitOneBidiRun(br, script, singleFontBinding{})
	if len(runs) != 2 {
		t.Fatalf("len(runs)=%d, want 2", len(runs))
	}
	if runs[0].Pos != 0 || runs[0].Len != 2 || runs[0].Script != Latin {
		t.Fatalf("runs[0]=%+v, want {Pos:0 Len:2 Script:Latin}", runs[0])
	}
	if runs[1].Pos != 2 || runs[1].Len != 2 || runs[1].Script != Arabic {
		t.Fatalf("runs[1]=%+v, want {Pos:2 Len:2 Script:Arabic}", runs[1])
	}
}

func TestSplitOneBidiRunRTLVisualOrder(t *testing.T) {
	// Logical script layout [A A B B]; walking high to low, the segment
	// nearest the end of the logical range (B, positions 2-3) renders
	// leftmost and must come first in the visual run list.
	script := []Script{Latin, Latin, Arabic, Arabic}
	br := bidiRun{pos: 0, len: 4, dir: RightToLeft}
	runs := splitOneBidiRun(br, script, singleFontBinding{})
	if len(runs) != 2 {
		t.Fatalf("len(runs)=%d, want 2", len(runs))
	}
	if runs[0].Pos != 2 || runs[0].Len != 2 || runs[0].Script != Arabic {
		t.Fatalf("runs[0]=%+v, want {Pos:2 Len:2 Script:Arabic}", runs[0])
	}
	if runs[1].Pos != 0 || runs[1].Len != 2 || runs[1].Script != Latin {
		t.Fatalf("runs[1]=%+v, want {Pos:0 Len:2 Script:Latin}", runs[1])
	}
}

func TestSplitRunsCoversWholeRangeExactlyOnce(t *testing.T) {
	script := []Script{Latin, Latin, Arabic, Arabic, Latin}
	bidiRuns := []bidiRun{
		{pos: 0, len: 4, dir: LeftToRight},
		{pos: 4, len: 1, dir: LeftToRight},
	}
	runs := splitRuns(bidiRuns, script, singleFontBinding{})
	seen := make([]bool, len(script))
	for _, r := range runs {
		for i := r.Pos; i < r.End(); i++ {
			if seen[i] {
				t.Fatalf("index %d covered by more than one run", i)
			}
			seen[i] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("index %d not covered by any run", i)
		}
	}
}

func TestRunEnd(t *testing.T) {
	r := Run{Pos: 3, Len: 5}
	if got := r.End(); got != 8 {
		t.Fatalf("End()=%d, want 8", got)
	}
}
