package paragraph

import "sort"

// pairedPunctuation lists the paired-punctuation code points the script
// resolver anchors a closer's script to its opener's, so that e.g.
// quotation marks wrapped around an Arabic phrase resolve to Arabic on both
// sides instead of splitting into their own Common-script run.
//
// Entries come in (opener, closer) pairs; pairIndex is the position in this
// table. Openers sit at even indices, closers at the following odd index,
// so opening_of(p) = p &^ 1 always recovers the opener's index from either
// half of a pair.
var pairedPunctuation = [...]rune{
	'(', ')',
	'[', ']',
	'{', '}',
	'<', '>',
	0x00AB, 0x00BB, // « »
	0x2018, 0x2019, // ‘ ’
	0x201C, 0x201D, // “ ”
	0x2039, 0x203A, // ‹ ›
	0x3008, 0x3009, // 〈 〉
	0x300A, 0x300B, // 《 》
	0x300C, 0x300D, // 「 」
	0x300E, 0x300F, // 『 』
	0x3010, 0x3011, // 【 】
	0x3014, 0x3015, // 〔 〕
	0x3016, 0x3017, // 〖 〗
	0x3018, 0x3019, // 〘 〙
	0x301A, 0x301B, // 〚 〛
}

// pairedPunctuationSorted is pairedPunctuation's contents sorted by code
// point, paired with their original table index, to support binary search
// lookup independent of the declared (opener, closer) ordering.
var pairedPunctuationSorted = func() []struct {
	r   rune
	idx int
} {
	entries := make([]struct {
		r   rune
		idx int
	}, len(pairedPunctuation))
	for i, r := range pairedPunctuation {
		entries[i] = struct {
			r   rune
			idx int
		}{r, i}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].r < entries[j].r })
	return entries
}()

// lookupPairedPunctuation reports whether r is one of the paired
// punctuation marks in pairedPunctuation, its table index, and whether it is
// an opener (even index) or closer (odd index).
func lookupPairedPunctuation(r rune) (pairIndex int, isOpen bool, isPair bool) {
	entries := pairedPunctuationSorted
	i := sort.Search(len(entries), func(i int) bool { return entries[i].r >= r })
	if i >= len(entries) || entries[i].r != r {
		return 0, false, false
	}
	idx := entries[i].idx
	return idx, idx%2 == 0, true
}

// openingOfPairIndex returns the table index of the opener for the pair
// that pairIndex belongs to, whether pairIndex itself is the opener or the
// closer.
func openingOfPairIndex(pairIndex int) int {
	return pairIndex &^ 1
}
