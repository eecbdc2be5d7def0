// Package pattern implements the atom grammar and multi-column pattern
// state machine that sits between the raw query text a UI thread edits and
// the scoring calls the coordinator issues against each item column.
package pattern

import (
	"strings"

	"github.com/ember-match/ember/src/algo"
)

// Kind selects which algo matcher an atom is scored with.
type Kind int

const (
	KindFuzzy Kind = iota
	KindSubstring
	KindPrefix
	KindPostfix
	KindExact
)

func (k Kind) String() string {
	switch k {
	case KindFuzzy:
		return "fuzzy"
	case KindSubstring:
		return "substring"
	case KindPrefix:
		return "prefix"
	case KindPostfix:
		return "postfix"
	case KindExact:
		return "exact"
	default:
		return "unknown"
	}
}

// CaseMatching selects how an atom's case sensitivity is derived from its
// text.
type CaseMatching int

const (
	CaseSmart CaseMatching = iota
	CaseIgnore
	CaseRespect
)

// Atom is a single parsed term of the pattern mini-language: a kind, a
// negation flag, the unescaped needle text, and the case/normalize policy
// it was parsed with.
type Atom struct {
	Kind          Kind
	Negate        bool
	Text          []rune
	CaseSensitive bool
	Normalize     bool
}

// Tokenize splits a line on unescaped whitespace. `\ ` is kept as a literal
// space within a token rather than splitting it; a run of unescaped
// whitespace collapses to a single separator and never produces an empty
// token.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	hasCur := false
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && runes[i+1] == ' ' {
			cur.WriteRune(' ')
			hasCur = true
			i++
			continue
		}
		if r == ' ' || r == '\t' {
			if hasCur {
				tokens = append(tokens, cur.String())
				cur.Reset()
				hasCur = false
			}
			continue
		}
		cur.WriteRune(r)
		hasCur = true
	}
	if hasCur {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// isEscapeOf reports whether body[i] is a backslash that escapes target at
// body[i+1], per §4.5's escape table.
func isEscapeOf(body []rune, i int, target rune) bool {
	return i >= 0 && body[i] == '\\' && i+1 < len(body) && body[i+1] == target
}

// ParseAtom parses a single whitespace-delimited token (already split by
// Tokenize) into an Atom, per the grammar in §4.5:
//
//	atom    := ['!'|'\!']? kind? body suffix?
//	kind    := '^' | '\''                 (leading)
//	suffix  := '$'                        (trailing)
//
// `\` escapes `!`, `^`, `'`, `$`, and space anywhere in the token; an
// escaped leading/trailing character is treated as ordinary body text
// rather than an operator.
func ParseAtom(token string, caseMode CaseMatching, normalize bool) Atom {
	runes := []rune(token)
	i := 0

	negate := false
	if i < len(runes) && runes[i] == '!' {
		negate = true
		i++
	}

	hasLeadingQuote := false
	hasLeadingCaret := false
	if i < len(runes) {
		switch runes[i] {
		case '\'':
			hasLeadingQuote = true
			i++
		case '^':
			hasLeadingCaret = true
			i++
		}
	}

	end := len(runes)
	hasTrailingDollar := end > i && runes[end-1] == '$' && !isEscapeOf(runes, end-2, '$')
	if hasTrailingDollar {
		end--
	}

	kind := KindFuzzy
	switch {
	case hasLeadingCaret && hasTrailingDollar:
		kind = KindExact
	case hasLeadingCaret:
		kind = KindPrefix
	case hasTrailingDollar:
		kind = KindPostfix
	case hasLeadingQuote:
		kind = KindSubstring
	}

	if negate && kind == KindFuzzy {
		// "!" on an otherwise-fuzzy atom forces a substring match: there is
		// no such thing as a negated fuzzy match.
		kind = KindSubstring
	}

	body := unescape(runes[i:end])

	lower := strings.ToLower(string(body))
	caseSensitive := caseMode == CaseRespect ||
		(caseMode == CaseSmart && string(body) != lower)

	text := body
	if !caseSensitive {
		text = []rune(lower)
	}

	lowerRunes := []rune(lower)
	normalizeAtom := normalize && lower == string(algo.NormalizeRunes(lowerRunes))

	return Atom{
		Kind:          kind,
		Negate:        negate,
		Text:          text,
		CaseSensitive: caseSensitive,
		Normalize:     normalizeAtom,
	}
}

// unescape strips the backslash from every \!, \^, \', \$, \space, and \\
// pair, leaving an unrecognized backslash (including a trailing one) as a
// literal character.
func unescape(body []rune) []rune {
	out := make([]rune, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case '!', '^', '\'', '$', ' ', '\\':
				out = append(out, body[i+1])
				i++
				continue
			}
		}
		out = append(out, body[i])
	}
	return out
}
