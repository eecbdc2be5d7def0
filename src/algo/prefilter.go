package algo

import (
	"unicode/utf8"

	"github.com/ember-match/ember/src/util"
)

// trySkip advances from the byte offset `from` to the first occurrence of
// b in input, honoring cfg.IgnoreCase by also searching the paired case
// when b is a lowercase ASCII letter.
func trySkip(cfg *Config, input *util.Chars, b byte, from int) int {
	byteArray := input.Bytes()[from:]
	if !cfg.IgnoreCase || b < 'a' || b > 'z' {
		idx := indexByteOf(byteArray, b)
		if idx < 0 {
			return -1
		}
		return from + idx
	}
	idx := indexByteTwo(byteArray, b, b-32)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func indexByteOf(s []byte, b byte) int {
	for i, c := range s {
		if c == b {
			return i
		}
	}
	return -1
}

func isAsciiRunes(runes []rune) bool {
	for _, r := range runes {
		if r >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// asciiFuzzyIndex implements the ASCII fast path of §4.4.1: it walks the
// needle over the haystack's raw bytes, requiring each character to appear
// strictly after the previous one, and returns (start, end) where start is
// stepped back one position from the first match to find the right
// boundary bonus, and end is the latest column at which the match can span
// (located via a reverse scan for the final needle character). Returns
// (-1, -1) when any needle character is missing, or when the needle holds
// a non-ASCII character while the haystack is pure ASCII. A non-ASCII
// haystack is not filtered at all: the result is (0, input.Length()).
func asciiFuzzyIndex(cfg *Config, input *util.Chars, needle []rune) (int, int) {
	if !input.IsBytes() {
		// Can't determine via the byte fast path; caller falls back to
		// the codepoint-by-codepoint path.
		return 0, input.Length()
	}
	if !isAsciiRunes(needle) {
		return -1, -1
	}

	firstIdx, idx := 0, 0
	for pidx := 0; pidx < len(needle); pidx++ {
		idx = trySkip(cfg, input, byte(needle[pidx]), idx)
		if idx < 0 {
			return -1, -1
		}
		if pidx == 0 && idx > 0 {
			firstIdx = idx - 1
		}
		idx++
	}

	lastChar := byte(needle[len(needle)-1])
	var lastIdx int
	if !cfg.IgnoreCase || lastChar < 'a' || lastChar > 'z' {
		lastIdx = lastIndexByteOf(input.Bytes(), lastChar)
	} else {
		lastIdx = lastIndexByteTwo(input.Bytes(), lastChar, lastChar-32)
	}
	if lastIdx < 0 || lastIdx < idx-1 {
		lastIdx = idx - 1
	}
	return firstIdx, lastIdx + 1
}

func lastIndexByteOf(s []byte, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
