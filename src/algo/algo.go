// Package algo implements the fuzzy scoring kernel: a modified
// Smith-Waterman alignment over codepoint strings, plus the faster
// substring/prefix/postfix/exact variants and a greedy O(n) fallback for
// haystacks too large for the optimal DP.
//
// Scoring criteria
// ----------------
//
// - Matches at word boundaries (after whitespace, a delimiter, or any other
//   non-word run) score higher than matches in the middle of a word.
// - The first needle character carries extra weight when it lands on a
//   boundary, since the first character a user types is usually the most
//   deliberate one.
// - Gaps between matched characters are penalized, with the penalty growing
//   with gap length, so that an acronym-style match doesn't always beat a
//   tighter but longer one.
// - Consecutive runs of matched characters get a bonus so that "foobar" on
//   "foob" is not outscored by "foo-bar" on the same pattern.
package algo

import (
	"unicode"

	"github.com/pkg/errors"

	"github.com/ember-match/ember/src/util"
)

// Result carries the span and score of a single match.
type Result struct {
	Start int
	End   int
	Score int32
}

// maxHaystackLen is the hard limit from §4.4: haystacks longer than this
// are rejected rather than scored, since column indices are carried in
// 32-bit slab offsets.
const maxHaystackLen = int(^uint32(0)) - 1

// ErrHaystackTooLong is returned by every matcher operation when the
// haystack exceeds maxHaystackLen codepoints.
var ErrHaystackTooLong = errors.New("algo: haystack exceeds maximum length")

// Config is the immutable set of knobs that parameterize a scoring call.
// A zero Config is not valid; use DefaultConfig or MatchPathsConfig.
type Config struct {
	IgnoreCase   bool
	Normalize    bool
	PreferPrefix bool

	// DelimiterChars is consulted byte-by-byte against ASCII haystack
	// characters; non-ASCII delimiters are not supported.
	DelimiterChars string

	InitialCharClass CharClass

	BonusBoundaryWhite     int16
	BonusBoundaryDelimiter int16
}

// DefaultConfig returns the baseline configuration: case-insensitive,
// diacritic-folding, no configured delimiters.
func DefaultConfig() Config {
	return Config{
		IgnoreCase:             true,
		Normalize:              true,
		InitialCharClass:       CharNonWord,
		BonusBoundaryWhite:     bonusBoundary,
		BonusBoundaryDelimiter: bonusBoundary,
	}
}

// MatchPathsConfig returns a preset tuned for filesystem paths: '/' is the
// only delimiter, the virtual class before position 0 is Delimiter (so a
// match at column 0 gets the boundary bonus as if preceded by a path
// separator), and the whitespace boundary bonus is set to the ordinary
// word-boundary bonus. DefaultConfig already uses that value, so neither
// config scores a boundary after whitespace above other word boundaries.
func MatchPathsConfig() Config {
	cfg := DefaultConfig()
	cfg.DelimiterChars = "/"
	cfg.InitialCharClass = CharDelimiter
	cfg.BonusBoundaryWhite = bonusBoundary
	return cfg
}

func (c *Config) isDelimiter(b byte) bool {
	for i := 0; i < len(c.DelimiterChars); i++ {
		if c.DelimiterChars[i] == b {
			return true
		}
	}
	return false
}

func (c *Config) foldCase(r rune) rune {
	if !c.IgnoreCase {
		return r
	}
	if r <= unicode.MaxASCII {
		if r >= 'A' && r <= 'Z' {
			return r + 32
		}
		return r
	}
	return unicode.ToLower(r)
}

// foldChar applies case folding and then diacritic normalization. The two
// are separate steps; there is no combined per-character lookup table.
func (c *Config) foldChar(r rune) rune {
	r = c.foldCase(r)
	if c.Normalize {
		r = foldDiacritics(r)
	}
	return r
}

func indexAt(index int, max int, forward bool) int {
	if forward {
		return index
	}
	return max - index - 1
}

// Matcher is a stateful scoring engine: it owns a scratch slab reused
// across calls. A single Matcher's calls are sequential, but many Matchers
// (e.g. one per worker thread) can run concurrently.
type Matcher struct {
	cfg  Config
	slab *util.Slab
}

// NewMatcher allocates a Matcher with the given configuration and a slab
// sized per §4.3 (haystack copy up to 2048 codepoints, needle up to 2048,
// matrix up to 100K cells).
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg, slab: util.MakeSlab(100*1024+4*2048, 2*2048)}
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config { return m.cfg }

// WithConfig returns a Matcher that shares this one's scratch slab but
// scores with cfg instead. Used by the pattern layer to apply a single
// atom's case/normalize override without allocating a fresh slab per atom.
func (m *Matcher) WithConfig(cfg Config) *Matcher {
	return &Matcher{cfg: cfg, slab: m.slab}
}

func checkLength(input *util.Chars) error {
	if input.Length() > maxHaystackLen {
		return ErrHaystackTooLong
	}
	return nil
}

// FuzzyMatch returns the best-scoring alignment allowing gaps between
// needle characters, without recording match positions.
func (m *Matcher) FuzzyMatch(forward bool, input *util.Chars, needle []rune) (Result, error) {
	res, _, err := m.fuzzyMatch(forward, input, needle, false)
	return res, err
}

// FuzzyIndices is FuzzyMatch plus the matched codepoint positions.
func (m *Matcher) FuzzyIndices(forward bool, input *util.Chars, needle []rune) (Result, []int, error) {
	return m.fuzzyMatch(forward, input, needle, true)
}

func (m *Matcher) fuzzyMatch(forward bool, input *util.Chars, needle []rune, withPos bool) (Result, []int, error) {
	if err := checkLength(input); err != nil {
		return Result{}, nil, err
	}
	if len(needle) == 0 {
		return Result{0, 0, 0}, nil, nil
	}
	n := input.Length()
	nm := len(needle)

	// Fall back to the greedy algorithm when the matrix would exceed the
	// slab's 100K-cell budget, or the haystack/needle exceed the 2048-copy
	// limit.
	if n*nm > 100*1024 || n > 2048 || nm > 2048 {
		return m.fuzzyMatchGreedy(forward, input, needle, withPos)
	}
	return m.fuzzyMatchOptimal(forward, input, needle, withPos)
}

// FuzzyMatchGreedy runs the O(n) greedy algorithm directly, bypassing the
// optimal DP. It may return a suboptimal (but valid) match.
func (m *Matcher) FuzzyMatchGreedy(forward bool, input *util.Chars, needle []rune) (Result, error) {
	res, _, err := m.fuzzyMatchGreedy(forward, input, needle, false)
	return res, err
}

// FuzzyIndicesGreedy is FuzzyMatchGreedy plus match positions.
func (m *Matcher) FuzzyIndicesGreedy(forward bool, input *util.Chars, needle []rune) (Result, []int, error) {
	return m.fuzzyMatchGreedy(forward, input, needle, true)
}
