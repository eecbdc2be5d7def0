package algo

import "github.com/ember-match/ember/src/util"

// fuzzyMatchGreedy implements the O(n) greedy algorithm: scan forward (or
// backward) for the first position where every needle character appears in
// order, then walk backward from the end to find the shortest matching
// span, and finally score that span with calculateScore. It may miss a
// higher-scoring alignment that the optimal DP would find; it exists for
// haystacks or needles too large for the slab budget.
func (m *Matcher) fuzzyMatchGreedy(forward bool, text *util.Chars, needle []rune, withPos bool) (Result, []int, error) {
	cfg := &m.cfg
	if err := checkLength(text); err != nil {
		return Result{}, nil, err
	}
	if len(needle) == 0 {
		return Result{0, 0, 0}, nil, nil
	}
	needle = foldNeedle(cfg, needle)

	if startIdx, _ := asciiFuzzyIndex(cfg, text, needle); startIdx < 0 {
		return Result{-1, -1, 0}, nil, nil
	}

	pidx := 0
	sidx := -1
	eidx := -1

	lenRunes := text.Length()
	lenNeedle := len(needle)

	for index := 0; index < lenRunes; index++ {
		char := cfg.foldChar(text.Get(indexAt(index, lenRunes, forward)))
		pchar := needle[indexAt(pidx, lenNeedle, forward)]
		if char == pchar {
			if sidx < 0 {
				sidx = index
			}
			if pidx++; pidx == lenNeedle {
				eidx = index + 1
				break
			}
		}
	}

	if sidx < 0 || eidx < 0 {
		return Result{-1, -1, 0}, nil, nil
	}

	pidx--
	for index := eidx - 1; index >= sidx; index-- {
		tidx := indexAt(index, lenRunes, forward)
		char := cfg.foldChar(text.Get(tidx))
		pidx_ := indexAt(pidx, lenNeedle, forward)
		pchar := needle[pidx_]
		if char == pchar {
			if pidx--; pidx < 0 {
				sidx = index
				break
			}
		}
	}

	if !forward {
		sidx, eidx = lenRunes-eidx, lenRunes-sidx
	}

	score, pos := calculateScore(cfg, text, needle, sidx, eidx, withPos)
	return Result{sidx, eidx, score}, derefPos(pos), nil
}

// calculateScore scores the already-located span [sidx, eidx) of text
// against needle (gaps inside the span are penalized), applying the same boundary and
// consecutive-run bonuses as the optimal DP so V1 and the DP agree on the
// score of a given alignment.
func calculateScore(cfg *Config, text *util.Chars, needle []rune, sidx int, eidx int, withPos bool) (int32, *[]int) {
	pidx, score, inGap, consecutive, firstBonus := 0, int32(0), false, 0, int16(0)
	pos := posArray(withPos, len(needle))
	prevClass := cfg.InitialCharClass
	if sidx > 0 {
		prevClass = classify(cfg, text.Get(sidx-1))
	}
	for idx := sidx; idx < eidx; idx++ {
		raw := text.Get(idx)
		class := classify(cfg, raw)
		char := cfg.foldChar(raw)
		if char == needle[pidx] {
			if withPos {
				*pos = append(*pos, idx)
			}
			score += scoreMatch
			bonus := bonusFor(cfg, prevClass, class)
			if consecutive == 0 {
				firstBonus = bonus
			} else {
				if bonus >= bonusBoundary {
					firstBonus = bonus
				}
				bonus = util.Max16(util.Max16(bonus, firstBonus), bonusConsecutive)
			}
			if pidx == 0 {
				score += int32(bonus) * bonusFirstCharMultiplier
			} else {
				score += int32(bonus)
			}
			inGap = false
			consecutive++
			pidx++
		} else {
			if inGap {
				score -= penaltyGapExtension
			} else {
				score -= penaltyGapStart
			}
			inGap = true
			consecutive = 0
			firstBonus = 0
		}
		prevClass = class
	}
	return score, pos
}
