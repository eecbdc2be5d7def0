package pattern

import (
	"github.com/ember-match/ember/src/algo"
	"github.com/ember-match/ember/src/util"
)

// Pattern is the ordered sequence of atoms parsed from a single column's
// query text. All atoms of a Pattern must match (after applying Negate) for
// the column to contribute a score.
type Pattern struct {
	Atoms []Atom
}

// Parse tokenizes text and parses every token into an Atom.
func Parse(text string, caseMode CaseMatching, normalize bool) Pattern {
	tokens := Tokenize(text)
	atoms := make([]Atom, 0, len(tokens))
	for _, token := range tokens {
		atoms = append(atoms, ParseAtom(token, caseMode, normalize))
	}
	return Pattern{Atoms: atoms}
}

// IsEmpty reports whether the pattern has no atoms.
func (p Pattern) IsEmpty() bool {
	return len(p.Atoms) == 0
}

// lastPositive reports whether the pattern's last atom is a positive
// (non-negated) one; an empty pattern has none.
func (p Pattern) lastPositive() bool {
	if len(p.Atoms) == 0 {
		return false
	}
	return !p.Atoms[len(p.Atoms)-1].Negate
}

// score applies the atom scoring contract of §4.5: a negated atom
// contributes 0 when the positive match it negates would fail, and fails
// the whole pattern when that positive match would succeed; a positive atom
// contributes its matcher score or fails the pattern.
func (a *Atom) score(m *algo.Matcher, text *util.Chars) (int32, bool) {
	atomCfg := m.Config()
	atomCfg.IgnoreCase = !a.CaseSensitive
	atomCfg.Normalize = a.Normalize
	scorer := m.WithConfig(atomCfg)

	var res algo.Result
	var err error
	switch a.Kind {
	case KindFuzzy:
		res, err = scorer.FuzzyMatch(true, text, a.Text)
	case KindSubstring:
		res, err = scorer.SubstringMatch(true, text, a.Text)
	case KindPrefix:
		res, err = scorer.PrefixMatch(text, a.Text)
	case KindPostfix:
		res, err = scorer.PostfixMatch(text, a.Text)
	case KindExact:
		res, err = scorer.ExactMatch(text, a.Text)
	}
	matched := err == nil && res.Start >= 0

	if a.Negate {
		if matched {
			return 0, false
		}
		return 0, true
	}
	if !matched {
		return 0, false
	}
	return res.Score, true
}

// Score sums the scores of every atom against a single column's text.
// Returns ok=false the moment any atom fails.
func (p Pattern) Score(m *algo.Matcher, text *util.Chars) (int32, bool) {
	var total int32
	for i := range p.Atoms {
		s, ok := p.Atoms[i].score(m, text)
		if !ok {
			return 0, false
		}
		total += s
	}
	return total, true
}

// PatternStatus tracks how much of a column's previous match results
// remain valid after a reparse, per §4.5's reparse semantics.
type PatternStatus int

const (
	// StatusUnchanged means the column's text did not change since the
	// last run; previous results are still exact.
	StatusUnchanged PatternStatus = iota
	// StatusUpdate means the new text is an append to the old one whose
	// last atom was positive: matches can only be filtered out of the
	// previous match set, never added or reordered upward, so the worker
	// can rescore in place instead of reprocessing every item.
	StatusUpdate
	// StatusRescore means no such guarantee holds; every item must be
	// reprocessed against the new pattern from scratch.
	StatusRescore
)

type column struct {
	pattern Pattern
	status  PatternStatus
}

// MultiPattern is a fixed-length vector of (Pattern, PatternStatus) pairs,
// one per item column, with transition rules that let the coordinator avoid
// a full rescore whenever a column's query text is merely extended.
type MultiPattern struct {
	columns []column
}

// NewMultiPattern returns a MultiPattern with numColumns empty columns.
func NewMultiPattern(numColumns int) *MultiPattern {
	return &MultiPattern{columns: make([]column, numColumns)}
}

// NumColumns returns the number of columns.
func (mp *MultiPattern) NumColumns() int {
	return len(mp.columns)
}

// Reparse replaces column col's pattern with the one parsed from text,
// deriving its status per §4.5: when append is true and the prior column's
// last atom was positive and its status was not already Rescore, the new
// status is Update; otherwise it is Rescore.
func (mp *MultiPattern) Reparse(col int, text string, caseMode CaseMatching, normalize bool, append bool) {
	old := mp.columns[col]
	next := Parse(text, caseMode, normalize)

	status := StatusRescore
	if append && old.pattern.lastPositive() && old.status != StatusRescore {
		status = StatusUpdate
	}
	mp.columns[col] = column{pattern: next, status: status}
}

// ColumnPattern returns column col's current pattern.
func (mp *MultiPattern) ColumnPattern(col int) Pattern {
	return mp.columns[col].pattern
}

// ColumnStatus returns column col's current status.
func (mp *MultiPattern) ColumnStatus(col int) PatternStatus {
	return mp.columns[col].status
}

// Status returns the combined status across every column: Rescore if any
// column needs one, else Update if any column needs one, else Unchanged.
func (mp *MultiPattern) Status() PatternStatus {
	status := StatusUnchanged
	for _, c := range mp.columns {
		if c.status == StatusRescore {
			return StatusRescore
		}
		if c.status == StatusUpdate {
			status = StatusUpdate
		}
	}
	return status
}

// ClearStatuses resets every column's status to Unchanged. The coordinator
// calls this when a tick picks up a pattern change, before it clones the
// pattern for the next worker run, so the next tick sees Unchanged unless
// the UI thread reparses again in the meantime.
func (mp *MultiPattern) ClearStatuses() {
	for i := range mp.columns {
		mp.columns[i].status = StatusUnchanged
	}
}

// Clone returns an independent deep copy, for the worker to run against
// while the UI thread continues to mutate the original.
func (mp *MultiPattern) Clone() *MultiPattern {
	cp := &MultiPattern{columns: make([]column, len(mp.columns))}
	copy(cp.columns, mp.columns)
	return cp
}

// IsEmpty reports whether every column is empty (no atoms anywhere), in
// which case MultiPattern.Score matches every item at score 0.
func (mp *MultiPattern) IsEmpty() bool {
	for _, c := range mp.columns {
		if !c.pattern.IsEmpty() {
			return false
		}
	}
	return true
}

// Score sums every column's atom scores against the corresponding entry of
// columns, using matchers[i] to score columns[i] (so each worker thread can
// pass its own per-thread scoring engines). ok is false the instant any
// atom in any column fails to match.
func (mp *MultiPattern) Score(matchers []*algo.Matcher, columns []*util.Chars) (int32, bool) {
	var total int32
	for i, c := range mp.columns {
		if c.pattern.IsEmpty() {
			continue
		}
		s, ok := c.pattern.Score(matchers[i], columns[i])
		if !ok {
			return 0, false
		}
		total += s
	}
	return total, true
}
