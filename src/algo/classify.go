package algo

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ember-match/ember/src/util"
)

// CharClass is the coarse character category used to compute boundary
// bonuses. Delimiter and Whitespace sit ahead of NonWord so config-supplied
// delimiters can be distinguished from ordinary punctuation.
type CharClass int

const (
	CharNonWord CharClass = iota
	CharWhite
	CharDelimiter
	CharLower
	CharUpper
	CharLetter
	CharNumber
)

const (
	scoreMatch               = 16
	penaltyGapStart          = 3
	penaltyGapExtension      = 1
	bonusBoundary            = 8
	bonusNonWord             = 8
	bonusCamel123            = bonusBoundary - penaltyGapExtension
	bonusConsecutive         = penaltyGapStart + penaltyGapExtension
	bonusFirstCharMultiplier = 2
)

// diacriticFolder strips combining marks left behind by NFD decomposition,
// collapsing Latin letters with diacritics to their bare ASCII form
// (e.g. ç -> c, Ñ -> N) while leaving case intact.
var diacriticFolder = runes.Remove(runes.In(unicode.Mn))

// NormalizeRunes returns a copy of rs with every Latin diacritic folded off,
// the same transform foldChar applies per-character on the hot path. The
// pattern layer uses it once per atom, at parse time, to decide whether
// normalizing that atom's text would be a no-op (see pattern.ParseAtom).
func NormalizeRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = foldDiacritics(r)
	}
	return out
}

// foldDiacritics normalizes r to NFD and drops any combining mark that
// results, returning the base rune. Runes with no decomposition are
// returned unchanged.
func foldDiacritics(r rune) rune {
	if r < 0x00C0 {
		return r
	}
	decomposed := norm.NFD.String(string(r))
	stripped, _, err := transform.String(diacriticFolder, decomposed)
	if err != nil || stripped == "" {
		return r
	}
	folded := []rune(stripped)
	if len(folded) == 0 {
		return r
	}
	return folded[0]
}

// classifyASCII classifies a byte-range rune using a raw range check; cfg's
// delimiter set is consulted first so configured delimiters win over the
// generic NonWord bucket.
func classifyASCII(cfg *Config, r rune) CharClass {
	switch {
	case r == ' ' || r == '\t' || r == '\n' || r == '\v' || r == '\f' || r == '\r':
		return CharWhite
	case cfg.isDelimiter(byte(r)):
		return CharDelimiter
	case r >= 'a' && r <= 'z':
		return CharLower
	case r >= 'A' && r <= 'Z':
		return CharUpper
	case r >= '0' && r <= '9':
		return CharNumber
	}
	return CharNonWord
}

// classifyNonASCII classifies using Unicode category predicates.
func classifyNonASCII(r rune) CharClass {
	switch {
	case unicode.IsSpace(r):
		return CharWhite
	case unicode.IsLower(r):
		return CharLower
	case unicode.IsUpper(r):
		return CharUpper
	case unicode.IsNumber(r):
		return CharNumber
	case unicode.IsLetter(r):
		return CharLetter
	}
	return CharNonWord
}

func classify(cfg *Config, r rune) CharClass {
	if r <= unicode.MaxASCII {
		return classifyASCII(cfg, r)
	}
	return classifyNonASCII(r)
}

// bonusFor returns the boundary bonus for a transition from prevClass to
// class, per the table in §4.1: word-boundary transitions first, then
// camelCase/digit-run edges, then the target-class fallbacks.
func bonusFor(cfg *Config, prevClass CharClass, class CharClass) int16 {
	if prevClass == CharWhite && class != CharWhite && class != CharNonWord {
		return cfg.BonusBoundaryWhite
	}
	if prevClass == CharDelimiter && class != CharWhite && class != CharNonWord && class != CharDelimiter {
		return cfg.BonusBoundaryDelimiter
	}
	if (prevClass == CharNonWord) && class != CharNonWord && class != CharWhite && class != CharDelimiter {
		return bonusBoundary
	}
	if prevClass == CharLower && class == CharUpper ||
		prevClass != CharNumber && class == CharNumber {
		return bonusCamel123
	}
	if class == CharNonWord || class == CharDelimiter {
		return bonusNonWord
	}
	if class == CharWhite {
		return cfg.BonusBoundaryWhite
	}
	return 0
}

// bonusAt returns the boundary bonus at codepoint position idx of input,
// using cfg's initial_char_class as the virtual class before position 0.
func bonusAt(cfg *Config, input *util.Chars, idx int) int16 {
	if idx == 0 {
		return bonusFor(cfg, cfg.InitialCharClass, classify(cfg, input.Get(0)))
	}
	return bonusFor(cfg, classify(cfg, input.Get(idx-1)), classify(cfg, input.Get(idx)))
}
