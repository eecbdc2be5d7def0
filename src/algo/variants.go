package algo

import "github.com/ember-match/ember/src/util"

// SubstringMatch finds the occurrence of needle as a contiguous run within
// text with the highest boundary bonus at its start, rather than stopping
// at the first occurrence. Since there is only one possible alignment per
// occurrence, this is much cheaper than the DP.
func (m *Matcher) SubstringMatch(forward bool, text *util.Chars, needle []rune) (Result, error) {
	res, _, err := m.substringMatch(forward, text, needle, false)
	return res, err
}

// SubstringIndices is SubstringMatch plus match positions.
func (m *Matcher) SubstringIndices(forward bool, text *util.Chars, needle []rune) (Result, []int, error) {
	return m.substringMatch(forward, text, needle, true)
}

func (m *Matcher) substringMatch(forward bool, text *util.Chars, needle []rune, withPos bool) (Result, []int, error) {
	cfg := &m.cfg
	if err := checkLength(text); err != nil {
		return Result{}, nil, err
	}
	if len(needle) == 0 {
		return Result{0, 0, 0}, nil, nil
	}
	needle = foldNeedle(cfg, needle)

	lenRunes := text.Length()
	lenNeedle := len(needle)
	if lenRunes < lenNeedle {
		return Result{-1, -1, 0}, nil, nil
	}
	if idx, _ := asciiFuzzyIndex(cfg, text, needle); idx < 0 {
		return Result{-1, -1, 0}, nil, nil
	}

	pidx := 0
	bestPos, bonus, bestBonus := -1, int16(0), int16(-1)
	for index := 0; index < lenRunes; index++ {
		index_ := indexAt(index, lenRunes, forward)
		char := cfg.foldChar(text.Get(index_))
		pidx_ := indexAt(pidx, lenNeedle, forward)
		pchar := needle[pidx_]
		if pchar == char {
			if pidx_ == 0 {
				bonus = bonusAt(cfg, text, index_)
			}
			pidx++
			if pidx == lenNeedle {
				if bonus > bestBonus {
					bestPos, bestBonus = index, bonus
				}
				if bonus == bonusBoundary {
					break
				}
				index -= pidx - 1
				pidx, bonus = 0, 0
			}
		} else {
			index -= pidx
			pidx, bonus = 0, 0
		}
	}
	if bestPos < 0 {
		return Result{-1, -1, 0}, nil, nil
	}

	var sidx, eidx int
	if forward {
		sidx = bestPos - lenNeedle + 1
		eidx = bestPos + 1
	} else {
		sidx = lenRunes - (bestPos + 1)
		eidx = lenRunes - (bestPos - lenNeedle + 1)
	}
	score, pos := calculateScore(cfg, text, needle, sidx, eidx, withPos)
	return Result{sidx, eidx, score}, derefPos(pos), nil
}

// PrefixMatch tests exact equality of the first len(needle) codepoints.
func (m *Matcher) PrefixMatch(text *util.Chars, needle []rune) (Result, error) {
	cfg := &m.cfg
	if err := checkLength(text); err != nil {
		return Result{}, err
	}
	if len(needle) == 0 {
		return Result{0, 0, 0}, nil
	}
	if text.Length() < len(needle) {
		return Result{-1, -1, 0}, nil
	}
	needle = foldNeedle(cfg, needle)
	for index, r := range needle {
		if cfg.foldChar(text.Get(index)) != r {
			return Result{-1, -1, 0}, nil
		}
	}
	score, _ := calculateScore(cfg, text, needle, 0, len(needle), false)
	return Result{0, len(needle), score}, nil
}

// PostfixMatch tests exact equality of the last len(needle) codepoints,
// ignoring trailing whitespace in text.
func (m *Matcher) PostfixMatch(text *util.Chars, needle []rune) (Result, error) {
	cfg := &m.cfg
	if err := checkLength(text); err != nil {
		return Result{}, err
	}
	lenRunes := text.Length()
	trimmedLen := lenRunes - text.TrailingWhitespaces()
	if len(needle) == 0 {
		return Result{trimmedLen, trimmedLen, 0}, nil
	}
	diff := trimmedLen - len(needle)
	if diff < 0 {
		return Result{-1, -1, 0}, nil
	}
	needle = foldNeedle(cfg, needle)
	for index, r := range needle {
		if cfg.foldChar(text.Get(index+diff)) != r {
			return Result{-1, -1, 0}, nil
		}
	}
	sidx, eidx := trimmedLen-len(needle), trimmedLen
	score, _ := calculateScore(cfg, text, needle, sidx, eidx, false)
	return Result{sidx, eidx, score}, nil
}

// ExactMatch requires text and needle to be codepoint-length-equal and
// equal under the current case/normalize policy.
func (m *Matcher) ExactMatch(text *util.Chars, needle []rune) (Result, error) {
	cfg := &m.cfg
	if err := checkLength(text); err != nil {
		return Result{}, err
	}
	if text.Length() != len(needle) {
		return Result{-1, -1, 0}, nil
	}
	runes := text.ToRunes()
	for idx, n := range needle {
		if cfg.foldChar(runes[idx]) != cfg.foldChar(n) {
			return Result{-1, -1, 0}, nil
		}
	}
	n := len(needle)
	return Result{0, n, int32((scoreMatch+bonusBoundary)*n + (bonusFirstCharMultiplier-1)*bonusBoundary)}, nil
}

func contiguousIndices(res Result) []int {
	if res.Start < 0 {
		return nil
	}
	pos := make([]int, 0, res.End-res.Start)
	for i := res.Start; i < res.End; i++ {
		pos = append(pos, i)
	}
	return pos
}

// PrefixIndices is PrefixMatch plus match positions.
func (m *Matcher) PrefixIndices(text *util.Chars, needle []rune) (Result, []int, error) {
	res, err := m.PrefixMatch(text, needle)
	if err != nil || res.Start < 0 {
		return res, nil, err
	}
	return res, contiguousIndices(res), nil
}

// PostfixIndices is PostfixMatch plus match positions.
func (m *Matcher) PostfixIndices(text *util.Chars, needle []rune) (Result, []int, error) {
	res, err := m.PostfixMatch(text, needle)
	if err != nil || res.Start < 0 {
		return res, nil, err
	}
	return res, contiguousIndices(res), nil
}

// ExactIndices is ExactMatch plus match positions.
func (m *Matcher) ExactIndices(text *util.Chars, needle []rune) (Result, []int, error) {
	res, err := m.ExactMatch(text, needle)
	if err != nil || res.Start < 0 {
		return res, nil, err
	}
	return res, contiguousIndices(res), nil
}
