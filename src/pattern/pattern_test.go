package pattern

import (
	"reflect"
	"testing"

	"github.com/ember-match/ember/src/algo"
	"github.com/ember-match/ember/src/util"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"foo bar", []string{"foo", "bar"}},
		{"  foo   bar  ", []string{"foo", "bar"}},
		{`foo\ bar baz`, []string{"foo bar", "baz"}},
		{"", nil},
		{"   ", nil},
	}
	for _, c := range cases {
		got := Tokenize(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseAtomKinds(t *testing.T) {
	cases := []struct {
		token      string
		wantKind   Kind
		wantNegate bool
		wantText   string
	}{
		{"foo", KindFuzzy, false, "foo"},
		{"'foo", KindSubstring, false, "foo"},
		{"^foo", KindPrefix, false, "foo"},
		{"foo$", KindPostfix, false, "foo"},
		{"^foo$", KindExact, false, "foo"},
		{"!foo", KindSubstring, true, "foo"},
		{"!^foo", KindPrefix, true, "foo"},
		{"!foo$", KindPostfix, true, "foo"},
		{"!^foo$", KindExact, true, "foo"},
	}
	for _, c := range cases {
		a := ParseAtom(c.token, CaseSmart, false)
		if a.Kind != c.wantKind {
			t.Errorf("%q: kind = %v, want %v", c.token, a.Kind, c.wantKind)
		}
		if a.Negate != c.wantNegate {
			t.Errorf("%q: negate = %v, want %v", c.token, a.Negate, c.wantNegate)
		}
		if string(a.Text) != c.wantText {
			t.Errorf("%q: text = %q, want %q", c.token, string(a.Text), c.wantText)
		}
	}
}

func TestParseAtomEscapes(t *testing.T) {
	a := ParseAtom(`\!\^foo\$bar`, CaseSmart, false)
	if a.Kind != KindFuzzy || a.Negate {
		t.Fatalf("expected an unadorned fuzzy atom, got %+v", a)
	}
	if string(a.Text) != "!^foo$bar" {
		t.Errorf("text = %q, want %q", string(a.Text), "!^foo$bar")
	}
}

func TestParseAtomCaseMatching(t *testing.T) {
	lower := ParseAtom("foo", CaseSmart, false)
	if lower.CaseSensitive {
		t.Errorf("CaseSmart + all-lowercase: expected caseSensitive=false, got true")
	}

	mixed := ParseAtom("Foo", CaseSmart, false)
	if !mixed.CaseSensitive {
		t.Errorf("CaseSmart + mixed case: expected caseSensitive=true")
	}

	respected := ParseAtom("foo", CaseRespect, false)
	if !respected.CaseSensitive {
		t.Errorf("CaseRespect: expected caseSensitive=true regardless of text")
	}

	ignored := ParseAtom("Foo", CaseIgnore, false)
	if ignored.CaseSensitive {
		t.Errorf("CaseIgnore: expected caseSensitive=false regardless of text")
	}
	if string(ignored.Text) != "foo" {
		t.Errorf("CaseIgnore: text = %q, want lowercased %q", string(ignored.Text), "foo")
	}
}

func scoreColumn(t *testing.T, p Pattern, haystack string) (int32, bool) {
	t.Helper()
	m := algo.NewMatcher(algo.DefaultConfig())
	chars := util.ToChars([]byte(haystack))
	return p.Score(m, &chars)
}

func TestPatternScoreNegation(t *testing.T) {
	p := Parse("foo !bar", CaseSmart, false)
	if _, ok := scoreColumn(t, p, "foobaz"); !ok {
		t.Errorf("expected a match for foobaz")
	}
	if _, ok := scoreColumn(t, p, "foobar"); ok {
		t.Errorf("expected no match for foobar (negated term present)")
	}
}

func TestPatternScorePositiveFailure(t *testing.T) {
	p := Parse("foo baz", CaseSmart, false)
	if _, ok := scoreColumn(t, p, "foobar"); ok {
		t.Errorf("expected no match: second atom does not appear")
	}
}

func TestPatternEmptyMatchesEverything(t *testing.T) {
	p := Parse("", CaseSmart, false)
	if !p.IsEmpty() {
		t.Fatalf("expected an empty pattern")
	}
	score, ok := scoreColumn(t, p, "anything")
	if !ok || score != 0 {
		t.Errorf("empty pattern: got (%d, %v), want (0, true)", score, ok)
	}
}

func TestMultiPatternReparseAppend(t *testing.T) {
	mp := NewMultiPattern(1)

	mp.Reparse(0, "fo", CaseSmart, false, false)
	if mp.ColumnStatus(0) != StatusRescore {
		t.Fatalf("first reparse (append=false): status = %v, want Rescore", mp.ColumnStatus(0))
	}

	// The coordinator clears statuses once it has cloned the pattern for a
	// worker run; simulate that here before exercising the append rule.
	mp.ClearStatuses()
	mp.Reparse(0, "foo", CaseSmart, false, true)
	if mp.ColumnStatus(0) != StatusUpdate {
		t.Errorf("append after positive atom, prior status Unchanged: status = %v, want Update", mp.ColumnStatus(0))
	}

	// Adding a negated atom only filters the previous match set further, and
	// the rule looks at the prior pattern's last atom ("foo", positive).
	mp.ClearStatuses()
	mp.Reparse(0, "foo !b", CaseSmart, false, true)
	if mp.ColumnStatus(0) != StatusUpdate {
		t.Errorf("append after positive atom \"foo\", new last atom negated: status = %v, want Update", mp.ColumnStatus(0))
	}

	// Appending again right away gives Rescore even though the new last atom
	// is positive: the prior pattern's last atom ("!b") is negated.
	mp.Reparse(0, "foo !b x", CaseSmart, false, true)
	if mp.ColumnStatus(0) != StatusRescore {
		t.Errorf("append while still marked Rescore: status = %v, want Rescore", mp.ColumnStatus(0))
	}
}

func TestMultiPatternStatusAggregation(t *testing.T) {
	mp := NewMultiPattern(2)
	mp.Reparse(0, "foo", CaseSmart, false, false)
	mp.Reparse(1, "bar", CaseSmart, false, false)
	mp.ClearStatuses()
	if mp.Status() != StatusUnchanged {
		t.Fatalf("after ClearStatuses: status = %v, want Unchanged", mp.Status())
	}

	mp.Reparse(0, "foobar", CaseSmart, false, true)
	if mp.Status() != StatusUpdate {
		t.Errorf("one column Update: status = %v, want Update", mp.Status())
	}

	mp.Reparse(1, "baz", CaseSmart, false, false)
	if mp.Status() != StatusRescore {
		t.Errorf("one column Rescore: status = %v, want Rescore", mp.Status())
	}
}

func TestMultiPatternScore(t *testing.T) {
	mp := NewMultiPattern(2)
	mp.Reparse(0, "foo", CaseSmart, false, false)
	mp.Reparse(1, "bar", CaseSmart, false, false)

	matchers := []*algo.Matcher{algo.NewMatcher(algo.DefaultConfig()), algo.NewMatcher(algo.DefaultConfig())}
	c0 := util.ToChars([]byte("foobar"))
	c1 := util.ToChars([]byte("barbaz"))
	score, ok := mp.Score(matchers, []*util.Chars{&c0, &c1})
	if !ok {
		t.Fatalf("expected both columns to match")
	}
	if score <= 0 {
		t.Errorf("expected a positive combined score, got %d", score)
	}

	c1fail := util.ToChars([]byte("quux"))
	_, ok = mp.Score(matchers, []*util.Chars{&c0, &c1fail})
	if ok {
		t.Errorf("expected no match: column 1 text does not contain \"bar\"")
	}
}

func TestMultiPatternClone(t *testing.T) {
	mp := NewMultiPattern(1)
	mp.Reparse(0, "foo", CaseSmart, false, false)
	clone := mp.Clone()
	mp.Reparse(0, "foobar", CaseSmart, false, true)
	if len(clone.ColumnPattern(0).Atoms) != 1 || string(clone.ColumnPattern(0).Atoms[0].Text) != "foo" {
		t.Errorf("clone was mutated by a later reparse on the original: %+v", clone.ColumnPattern(0))
	}
}
