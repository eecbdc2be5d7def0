package algo

import (
	"github.com/ember-match/ember/src/util"
)

func alloc16(offset int, slab *util.Slab, size int) (int, []int16) {
	if slab != nil && cap(slab.I16) > offset+size {
		slice := slab.I16[offset : offset+size]
		return offset + size, slice
	}
	return offset, make([]int16, size)
}

func alloc32(offset int, slab *util.Slab, size int) (int, []int32) {
	if slab != nil && cap(slab.I32) > offset+size {
		slice := slab.I32[offset : offset+size]
		return offset + size, slice
	}
	return offset, make([]int32, size)
}

func posArray(withPos bool, n int) *[]int {
	if withPos {
		pos := make([]int, 0, n)
		return &pos
	}
	return nil
}

// prefixBonus implements §4.4.2's prefer_prefix tie-break: a small bonus
// folded into the first-row setup that decays with distance from column 0.
// It is too small to change the outcome between a close and a distant
// match; it only breaks ties between otherwise equal-scoring alignments in
// favor of the one closer to the start of the haystack.
func prefixBonus(cfg *Config, col int) int16 {
	if !cfg.PreferPrefix {
		return 0
	}
	decayed := 2 - col/32
	if decayed < 0 {
		return 0
	}
	return int16(decayed)
}

// fuzzyMatchOptimal implements the modified Smith-Waterman DP of §4.4.2.
// It case/normalize-folds needle itself via foldNeedle.
func (m *Matcher) fuzzyMatchOptimal(forward bool, input *util.Chars, needle []rune, withPos bool) (Result, []int, error) {
	cfg := &m.cfg
	nn := len(needle)
	n := input.Length()

	needle = foldNeedle(cfg, needle)

	// Phase 1: ASCII prefilter.
	idx, _ := asciiFuzzyIndex(cfg, input, needle)
	if idx < 0 {
		return Result{-1, -1, 0}, nil, nil
	}

	slab := m.slab
	offset16, offset32 := 0, 0
	offset16, H0 := alloc16(offset16, slab, n)
	offset16, C0 := alloc16(offset16, slab, n)
	offset16, B := alloc16(offset16, slab, n)
	offset32, F := alloc32(offset32, slab, nn)
	offset32, T := alloc32(offset32, slab, n)
	input.CopyRunes(T, 0)

	maxScore, maxScorePos := int16(0), 0
	pidx, lastIdx := 0, 0
	pchar0, pchar, prevH0, prevClass, inGap := needle[0], needle[0], int16(0), cfg.InitialCharClass, false
	if idx > 0 {
		prevClass = classify(cfg, input.Get(idx-1))
	}

	Tsub := T[idx:]
	H0sub, C0sub, Bsub := H0[idx:][:len(Tsub)], C0[idx:][:len(Tsub)], B[idx:][:len(Tsub)]
	for off, char := range Tsub {
		class := classify(cfg, char)
		char = cfg.foldChar(char)
		Tsub[off] = char
		bonus := bonusFor(cfg, prevClass, class)
		Bsub[off] = bonus
		prevClass = class

		if char == pchar {
			if pidx < nn {
				F[pidx] = int32(idx + off)
				pidx++
				pchar = needle[util.Min(pidx, nn-1)]
			}
			lastIdx = idx + off
		}

		if char == pchar0 {
			score := scoreMatch + bonus*bonusFirstCharMultiplier + prefixBonus(cfg, idx+off)
			H0sub[off] = score
			C0sub[off] = 1
			if nn == 1 && (forward && score > maxScore || !forward && score >= maxScore) {
				maxScore, maxScorePos = score, idx+off
				if forward && bonus == bonusBoundary {
					break
				}
			}
			inGap = false
		} else {
			if inGap {
				H0sub[off] = util.Max16(prevH0+int16(-penaltyGapExtension), 0)
			} else {
				H0sub[off] = util.Max16(prevH0+int16(-penaltyGapStart), 0)
			}
			C0sub[off] = 0
			inGap = true
		}
		prevH0 = H0sub[off]
	}
	if pidx != nn {
		return Result{-1, -1, 0}, nil, nil
	}
	if nn == 1 {
		result := Result{maxScorePos, maxScorePos + 1, int32(maxScore)}
		if !withPos {
			return result, nil, nil
		}
		return result, []int{maxScorePos}, nil
	}

	// Phase 3: fill in the remaining rows.
	f0 := int(F[0])
	width := lastIdx - f0 + 1
	offset16, H := alloc16(offset16, slab, width*nn)
	copy(H, H0[f0:lastIdx+1])
	offset16, C := alloc16(offset16, slab, width*nn)
	copy(C, C0[f0:lastIdx+1])

	Fsub := F[1:]
	Nsub := needle[1:][:len(Fsub)]
	for off, f := range Fsub {
		f := int(f)
		pchar := Nsub[off]
		pidx := off + 1
		row := pidx * width
		inGap := false
		Tsub := T[f : lastIdx+1]
		Bsub := B[f:][:len(Tsub)]
		Csub := C[row+f-f0:][:len(Tsub)]
		Cdiag := C[row+f-f0-1-width:][:len(Tsub)]
		Hsub := H[row+f-f0:][:len(Tsub)]
		Hdiag := H[row+f-f0-1-width:][:len(Tsub)]
		Hleft := H[row+f-f0-1:][:len(Tsub)]
		Hleft[0] = 0
		for off, char := range Tsub {
			col := off + f
			var s1, s2, consecutive int16

			if inGap {
				s2 = Hleft[off] - penaltyGapExtension
			} else {
				s2 = Hleft[off] - penaltyGapStart
			}

			if pchar == char {
				s1 = Hdiag[off] + scoreMatch
				b := Bsub[off]
				consecutive = Cdiag[off] + 1
				if b >= bonusBoundary {
					consecutive = 1
				} else if consecutive > 1 {
					b = util.Max16(b, util.Max16(bonusConsecutive, B[col-int(consecutive)+1]))
				}
				if s1+b < s2 {
					s1 += Bsub[off]
					consecutive = 0
				} else {
					s1 += b
				}
			}
			Csub[off] = consecutive

			inGap = s1 < s2
			score := util.Max16(util.Max16(s1, s2), 0)
			if pidx == nn-1 && (forward && score > maxScore || !forward && score >= maxScore) {
				maxScore, maxScorePos = score, col
			}
			Hsub[off] = score
		}
	}

	// Phase 4: backtrace.
	pos := posArray(withPos, nn)
	j := f0
	if withPos {
		i := nn - 1
		j = maxScorePos
		preferMatch := true
		for {
			I := i * width
			j0 := j - f0
			s := H[I+j0]

			var s1, s2 int16
			if i > 0 && j >= int(F[i]) {
				s1 = H[I-width+j0-1]
			}
			if j > int(F[i]) {
				s2 = H[I+j0-1]
			}

			if s > s1 && (s > s2 || s == s2 && preferMatch) {
				*pos = append(*pos, j)
				if i == 0 {
					break
				}
				i--
			}
			preferMatch = C[I+j0] > 1 || I+width+j0+1 < len(C) && C[I+width+j0+1] > 0
			j--
		}
	}
	return Result{j, maxScorePos + 1, int32(maxScore)}, derefPos(pos), nil
}

func derefPos(pos *[]int) []int {
	if pos == nil {
		return nil
	}
	return *pos
}

// foldNeedle returns a case/normalize-folded copy of needle, per cfg. Every
// matcher entry point folds its needle this way on each call, so callers
// (including the pattern layer, which only lowercases case-insensitive
// atoms) may pass needles unfolded.
func foldNeedle(cfg *Config, needle []rune) []rune {
	out := make([]rune, len(needle))
	for i, r := range needle {
		out[i] = cfg.foldChar(r)
	}
	return out
}
