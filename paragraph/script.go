package paragraph

import (
	"sort"

	xlanguage "github.com/benoitkugler/textlayout/language"
	"golang.org/x/text/language"
)

// Script identifies a Unicode script (UAX #24) for one code point or for an
// entire shaping-ready run. The underlying representation is the 4-byte
// big-endian OpenType/ISO-15924 script tag, the same packing HarfBuzz uses
// for hb_script_t, so a Script converts to an OpenType tag without a lookup
// table.
type Script uint32

// Sentinel and script-neutral values. Common and Inherited code points carry
// no script of their own and must be resolved to a neighbor's script; see
// resolveScripts.
const (
	ScriptInvalid   Script = 0
	ScriptCommon           = Script(xlanguage.Common)
	ScriptInherited        = Script(xlanguage.Inherited)
	ScriptUnknown          = Script(xlanguage.Unknown)
)

// A practical subset of scripts, reused from the same script-tag library
// other shaping-aware code in this codebase's lineage depends on. Any script
// the library knows is usable as a Script value even without a named
// constant here; these exist for readability and tests.
const (
	Arabic     = Script(xlanguage.Arabic)
	Armenian   = Script(xlanguage.Armenian)
	Bengali    = Script(xlanguage.Bengali)
	Cyrillic   = Script(xlanguage.Cyrillic)
	Devanagari = Script(xlanguage.Devanagari)
	Georgian   = Script(xlanguage.Georgian)
	Greek      = Script(xlanguage.Greek)
	Gujarati   = Script(xlanguage.Gujarati)
	Gurmukhi   = Script(xlanguage.Gurmukhi)
	Han        = Script(xlanguage.Han)
	Hangul     = Script(xlanguage.Hangul)
	Hebrew     = Script(xlanguage.Hebrew)
	Hiragana   = Script(xlanguage.Hiragana)
	Kannada    = Script(xlanguage.Kannada)
	Katakana   = Script(xlanguage.Katakana)
	Khmer      = Script(xlanguage.Khmer)
	Lao        = Script(xlanguage.Lao)
	Latin      = Script(xlanguage.Latin)
	Malayalam  = Script(xlanguage.Malayalam)
	Mongolian  = Script(xlanguage.Mongolian)
	Myanmar    = Script(xlanguage.Myanmar)
	Oriya      = Script(xlanguage.Oriya)
	Sinhala    = Script(xlanguage.Sinhala)
	Syriac     = Script(xlanguage.Syriac)
	Tamil      = Script(xlanguage.Tamil)
	Telugu     = Script(xlanguage.Telugu)
	Thaana     = Script(xlanguage.Thaana)
	Thai       = Script(xlanguage.Thai)
	Tibetan    = Script(xlanguage.Tibetan)
)

// String returns the 4-letter ISO-15924 tag, e.g. "Latn", "Arab", "Zyyy".
func (s Script) String() string {
	b := [4]byte{
		byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s),
	}
	return string(b[:])
}

// otScript converts s to the script identifier expected by the OpenType
// shaping engine (package otshape, via golang.org/x/text/language). Unknown
// or zero scripts fall back to the unspecified script value.
func (s Script) otScript() language.Script {
	if s == ScriptInvalid {
		return language.Script{}
	}
	scr, err := language.ParseScript(s.String())
	if err != nil {
		tracer().Debugf("script %s has no known OpenType tag: %s", s, err)
		return language.Script{}
	}
	return scr
}

// runeScript looks up the Unicode script property of r.
func runeScript(r rune) Script {
	return Script(xlanguage.LookupScript(r))
}

// resolveScripts fills script[i] with the resolved script of text[i], for
// every i. script must already have been populated with each code point's
// raw Unicode script property value (see runeScript); resolveScripts
// rewrites Common and Inherited entries in place.
//
// After this call, script contains Common or Inherited only if the whole
// paragraph carries no strong script, per invariant 4.
func resolveScripts(text []rune, script []Script) {
	n := len(text)
	if n == 0 {
		return
	}
	stack := newPairedScriptStack(n)

	var (
		haveLast      bool
		lastScript    Script
		lastSetIndex  = -1
	)

	for i := 0; i < n; i++ {
		switch {
		case script[i] == ScriptCommon && haveLast:
			if pairIndex, isOpen, isPair := lookupPairedPunctuation(text[i]); isPair && isOpen {
				script[i] = lastScript
				stack.push(i, pairIndex)
			} else if isPair && !isOpen {
				resolved := lastScript
				for {
					top, ok := stack.pop()
					if !ok {
						break
					}
					if top.pairIndex == openingOfPairIndex(pairIndex) {
						// Re-read the opener's current script rather than
						// any value cached at push time: a strong-script
						// character seen since the opener was pushed may
						// have backfilled over the opener's own array slot
						// (see the default branch below), and the closer
						// must observe that final resolved value to satisfy
						// invariant 5.
						resolved = script[top.openerIndex]
						break
					}
				}
				script[i] = resolved
				lastScript = resolved
				// The closer (and with it its opener) is final: later
				// strong-script text must not backfill over the pair.
				lastSetIndex = i
			} else {
				script[i] = lastScript
			}
		case script[i] == ScriptInherited && haveLast:
			script[i] = lastScript
		default:
			if script[i] == ScriptCommon || script[i] == ScriptInherited {
				// No strong script has been seen yet; leave as-is.
				continue
			}
			for j := lastSetIndex + 1; j < i; j++ {
				script[j] = script[i]
			}
			lastScript = script[i]
			haveLast = true
			lastSetIndex = i
		}
	}
}

// newScriptArray builds the initial per-code-point script array from the raw
// Unicode script property, then resolves Common/Inherited propagation and
// paired punctuation (see resolveScripts).
func newScriptArray(text []rune) []Script {
	script := make([]Script, len(text))
	for i, r := range text {
		script[i] = runeScript(r)
	}
	resolveScripts(text, script)
	return script
}

// knownScriptNames lists the script constant names defined above, sorted,
// for diagnostics and tests.
func knownScriptNames() []string {
	names := []string{
		"Arabic", "Armenian", "Bengali", "Cyrillic", "Devanagari", "Georgian",
		"Greek", "Gujarati", "Gurmukhi", "Han", "Hangul", "Hebrew", "Hiragana",
		"Kannada", "Katakana", "Khmer", "Lao", "Latin", "Malayalam",
		"Mongolian", "Myanmar", "Oriya", "Sinhala", "Syriac", "Tamil",
		"Telugu", "Thaana", "Thai", "Tibetan",
	}
	sort.Strings(names)
	return names
}
