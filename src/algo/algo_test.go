package algo

import (
	"sort"
	"testing"

	"github.com/ember-match/ember/src/util"
)

type matchFunc func(m *Matcher, forward bool, text *util.Chars, needle []rune) (Result, []int, error)

func fuzzyFn(greedy bool) matchFunc {
	if greedy {
		return func(m *Matcher, forward bool, text *util.Chars, needle []rune) (Result, []int, error) {
			return m.FuzzyIndicesGreedy(forward, text, needle)
		}
	}
	return func(m *Matcher, forward bool, text *util.Chars, needle []rune) (Result, []int, error) {
		return m.FuzzyIndices(forward, text, needle)
	}
}

func substringFn() matchFunc {
	return func(m *Matcher, forward bool, text *util.Chars, needle []rune) (Result, []int, error) {
		return m.SubstringIndices(forward, text, needle)
	}
}

func prefixFn() matchFunc {
	return func(m *Matcher, _ bool, text *util.Chars, needle []rune) (Result, []int, error) {
		return m.PrefixIndices(text, needle)
	}
}

func postfixFn() matchFunc {
	return func(m *Matcher, _ bool, text *util.Chars, needle []rune) (Result, []int, error) {
		return m.PostfixIndices(text, needle)
	}
}

func runMatch(t *testing.T, fn matchFunc, cfg Config, forward bool, input, needle string) (Result, []int) {
	t.Helper()
	m := NewMatcher(cfg)
	chars := util.ToChars([]byte(input))
	res, pos, err := fn(m, forward, &chars, []rune(needle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Ints(pos)
	return res, pos
}

func assertIndices(t *testing.T, fn matchFunc, cfg Config, forward bool, input, needle string, want []int) {
	t.Helper()
	res, pos := runMatch(t, fn, cfg, forward, input, needle)
	if want == nil {
		if res.Start >= 0 {
			t.Errorf("expected no match for %q / %q, got %+v", input, needle, res)
		}
		return
	}
	if len(pos) != len(want) {
		t.Fatalf("index count mismatch for %q / %q: got %v, want %v", input, needle, pos, want)
	}
	for i := range want {
		if pos[i] != want[i] {
			t.Errorf("index %d mismatch for %q / %q: got %v, want %v", i, input, needle, pos, want)
		}
	}
}

// Scenario 2 of the spec's worked examples: camelCase boundary detection.
func TestFuzzyMatchCamelCase(t *testing.T) {
	cfg := DefaultConfig()
	want := []int{2, 3, 5}
	wantScore := int32(bonusConsecutive - penaltyGapStart + 3*scoreMatch)
	for _, greedy := range []bool{false, true} {
		res, pos := runMatch(t, fuzzyFn(greedy), cfg, true, "fooBarbaz1", "oBr")
		if len(pos) != len(want) {
			t.Fatalf("greedy=%v: index count mismatch: got %v, want %v", greedy, pos, want)
		}
		for i := range want {
			if pos[i] != want[i] {
				t.Errorf("greedy=%v: index %d mismatch: got %v, want %v", greedy, i, pos, want)
			}
		}
		if res.Score != wantScore {
			t.Errorf("greedy=%v: score = %d, want %d", greedy, res.Score, wantScore)
		}
	}
}

// Scenario 3: Latin diacritic folding.
func TestFuzzyMatchUnicodeNormalize(t *testing.T) {
	cfg := DefaultConfig()
	assertIndices(t, fuzzyFn(false), cfg, true, "Só Danço Samba", "danco", []int{3, 4, 5, 6, 7})
	assertIndices(t, fuzzyFn(true), cfg, true, "Só Danço Samba", "danco", []int{3, 4, 5, 6, 7})
}

func TestFuzzyMatchNonMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreCase = false
	assertIndices(t, fuzzyFn(false), cfg, true, "fooBarbaz", "oBZ", nil)
	assertIndices(t, fuzzyFn(false), cfg, true, "Foo Bar Baz", "fbb", nil)
	assertIndices(t, fuzzyFn(false), cfg, true, "fooBarbaz", "fooBarbazz", nil)
}

func TestSubstringMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreCase = false
	assertIndices(t, substringFn(), cfg, true, "fooBarbaz", "oBA", nil)
	assertIndices(t, substringFn(), cfg, true, "fooBarbaz", "fooBarbazz", nil)

	cfg.IgnoreCase = true
	assertIndices(t, substringFn(), cfg, true, "fooBarbaz", "oba", []int{2, 3, 4})
	assertIndices(t, substringFn(), cfg, true, "/AutomatorDocument.icns", "rdoc", []int{9, 10, 11, 12})
}

func TestPrefixMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreCase = false
	assertIndices(t, prefixFn(), cfg, true, "fooBarbaz", "Foo", nil)
	assertIndices(t, prefixFn(), cfg, true, "fooBarBaz", "baz", nil)

	cfg.IgnoreCase = true
	assertIndices(t, prefixFn(), cfg, true, "fooBarbaz", "Foo", []int{0, 1, 2})
	assertIndices(t, prefixFn(), cfg, true, "foOBarBaZ", "foo", []int{0, 1, 2})
	assertIndices(t, prefixFn(), cfg, true, " fooBar", "foo", []int{1, 2, 3})
	assertIndices(t, prefixFn(), cfg, true, "     fo", "foo", nil)
}

func TestPostfixMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreCase = false
	assertIndices(t, postfixFn(), cfg, true, "fooBarbaz", "Baz", nil)
	assertIndices(t, postfixFn(), cfg, true, "fooBarbaz", "Foo", nil)

	cfg.IgnoreCase = true
	assertIndices(t, postfixFn(), cfg, true, "fooBarbaz", "baz", []int{6, 7, 8})
	// Trailing whitespace in the haystack is ignored.
	assertIndices(t, postfixFn(), cfg, true, "fooBarbaz ", "baz", []int{6, 7, 8})
}

func TestEmptyNeedle(t *testing.T) {
	cfg := DefaultConfig()
	for _, forward := range []bool{true, false} {
		for _, fn := range []matchFunc{fuzzyFn(false), fuzzyFn(true), substringFn()} {
			res, _ := runMatch(t, fn, cfg, forward, "foobar", "")
			if res.Start != 0 || res.End != 0 || res.Score != 0 {
				t.Errorf("expected {0,0,0} for empty needle, got %+v", res)
			}
		}
	}
}

func TestExactMatch(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMatcher(cfg)
	chars := util.ToChars([]byte("Danço"))
	res, err := m.ExactMatch(&chars, []rune("danco"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Start != 0 || res.End != 5 {
		t.Errorf("expected a full-length match, got %+v", res)
	}

	res, err = m.ExactMatch(&chars, []rune("dan"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Start >= 0 {
		t.Errorf("expected no match on length mismatch, got %+v", res)
	}
}

// Property law 4: optimal never scores lower than greedy when both match.
func TestGreedyNeverBeatsOptimal(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct{ haystack, needle string }{
		{"fooBarbaz1", "oBr"},
		{"/AutomatorDocument.icns", "rdoc"},
		{"ab0123 456", "12356"},
		{"foo-bar-baz-quux", "fbbq"},
	}
	for _, c := range cases {
		optimal, _ := runMatch(t, fuzzyFn(false), cfg, true, c.haystack, c.needle)
		greedy, _ := runMatch(t, fuzzyFn(true), cfg, true, c.haystack, c.needle)
		if optimal.Start < 0 || greedy.Start < 0 {
			t.Fatalf("expected both to match: %q / %q", c.haystack, c.needle)
		}
		if optimal.Score < greedy.Score {
			t.Errorf("%q / %q: optimal score %d < greedy score %d", c.haystack, c.needle, optimal.Score, greedy.Score)
		}
	}
}

// Property law 2: returned indices are strictly increasing and in range.
func TestIndicesStrictlyIncreasing(t *testing.T) {
	cfg := DefaultConfig()
	_, pos := runMatch(t, fuzzyFn(false), cfg, true, "/.oh-my-zsh/cache", "zshc")
	for i := 1; i < len(pos); i++ {
		if pos[i] <= pos[i-1] {
			t.Fatalf("indices not strictly increasing: %v", pos)
		}
	}
	n := len([]rune("/.oh-my-zsh/cache"))
	for _, p := range pos {
		if p < 0 || p >= n {
			t.Fatalf("index %d out of range [0,%d)", p, n)
		}
	}
}

func TestMatchPathsConfig(t *testing.T) {
	cfg := MatchPathsConfig()
	res, pos := runMatch(t, fuzzyFn(false), cfg, true, "/man1/zshcompctl.1", "zshc")
	if res.Start < 0 {
		t.Fatalf("expected a match, got %+v", res)
	}
	if pos[0] != 6 {
		t.Errorf("expected match to start at 6, got %v", pos)
	}
}

// Scenario 1 of the spec's worked examples: path-mode preset.
func TestMatchPathsConfigScenario(t *testing.T) {
	cfg := MatchPathsConfig()
	want := []int{8, 9, 10, 12}
	wantScore := int32(bonusBoundary*2+bonusConsecutive*2-penaltyGapStart) + int32(cfg.BonusBoundaryDelimiter) + 4*scoreMatch
	res, pos := runMatch(t, fuzzyFn(false), cfg, true, "/.oh-my-zsh/cache", "zshc")
	if len(pos) != len(want) {
		t.Fatalf("index count mismatch: got %v, want %v", pos, want)
	}
	for i := range want {
		if pos[i] != want[i] {
			t.Errorf("index %d mismatch: got %v, want %v", i, pos, want)
		}
	}
	if res.Score != wantScore {
		t.Errorf("score = %d, want %d", res.Score, wantScore)
	}
}

func TestShortHaystackIsNotRejected(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMatcher(cfg)
	chars := util.ToChars([]byte("short"))
	if _, err := m.FuzzyMatch(true, &chars, []rune("sh")); err != nil {
		t.Fatalf("unexpected error for a short haystack: %v", err)
	}
}
