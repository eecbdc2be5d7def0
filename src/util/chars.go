package util

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/width"
)

const (
	overflow64 uint64 = 0x8080808080808080
	overflow32 uint32 = 0x80808080
)

// Chars is a tagged codepoint string: either a run of ASCII bytes (the
// common, allocation-free case) or a slice of full runes. Indexing is always
// by grapheme position: a CR LF pair is folded to a single LF codepoint
// before the string is ever stored, so Length() never counts the CR half of
// a CR LF pair as a position of its own. No broader grapheme segmentation
// is attempted; that is an explicit non-goal (spec.md §1, §9).
type Chars struct {
	slice           []byte // or []rune
	inBytes         bool
	trimLengthKnown bool
	trimLength      uint16

	// Index carries the originating item's store index through the
	// scoring pipeline without a separate lookup.
	Index int32
}

func checkAscii(b []byte) (bool, int) {
	i := 0
	for ; i <= len(b)-8; i += 8 {
		if (overflow64 & *(*uint64)(unsafe.Pointer(&b[i]))) > 0 {
			return false, i
		}
	}
	for ; i <= len(b)-4; i += 4 {
		if (overflow32 & *(*uint32)(unsafe.Pointer(&b[i]))) > 0 {
			return false, i
		}
	}
	for ; i < len(b); i++ {
		if b[i] >= utf8.RuneSelf {
			return false, i
		}
	}
	return true, 0
}

// collapseCRLF folds every CR LF pair in b down to a bare LF. CR and LF are
// both ASCII, so this has to run before the ASCII fast path below, not just
// on the decoded-rune path.
func collapseCRLF(b []byte) []byte {
	if !bytes.Contains(b, []byte("\r\n")) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\r' && i+1 < len(b) && b[i+1] == '\n' {
			continue
		}
		out = append(out, b[i])
	}
	return out
}

// ToChars converts a UTF-8 byte slice into a Chars value.
func ToChars(b []byte) Chars {
	b = collapseCRLF(b)
	inBytes, bytesUntil := checkAscii(b)
	if inBytes {
		return Chars{slice: b, inBytes: inBytes}
	}

	runes := make([]rune, bytesUntil, len(b))
	for i := 0; i < bytesUntil; i++ {
		runes[i] = rune(b[i])
	}
	for i := bytesUntil; i < len(b); {
		r, sz := utf8.DecodeRune(b[i:])
		i += sz
		runes = append(runes, r)
	}
	return RunesToChars(runes)
}

func RunesToChars(runes []rune) Chars {
	return Chars{slice: *(*[]byte)(unsafe.Pointer(&runes)), inBytes: false}
}

func (chars *Chars) IsBytes() bool {
	return chars.inBytes
}

func (chars *Chars) Bytes() []byte {
	return chars.slice
}

func (chars *Chars) optionalRunes() []rune {
	if chars.inBytes {
		return nil
	}
	return *(*[]rune)(unsafe.Pointer(&chars.slice))
}

// Get returns the codepoint at grapheme position i.
func (chars *Chars) Get(i int) rune {
	if runes := chars.optionalRunes(); runes != nil {
		return runes[i]
	}
	return rune(chars.slice[i])
}

// Length returns the number of graphemes (per the CR-LF collapse rule).
func (chars *Chars) Length() int {
	if runes := chars.optionalRunes(); runes != nil {
		return len(runes)
	}
	return len(chars.slice)
}

// IsEmpty reports whether the string has zero graphemes.
func (chars *Chars) IsEmpty() bool {
	return chars.Length() == 0
}

// First returns the first grapheme.
func (chars *Chars) First() rune {
	return chars.Get(0)
}

// Last returns the final grapheme.
func (chars *Chars) Last() rune {
	return chars.Get(chars.Length() - 1)
}

// Slice returns the sub-range [from, until) sharing the underlying storage;
// no allocation.
func (chars *Chars) Slice(from int, until int) Chars {
	if runes := chars.optionalRunes(); runes != nil {
		return RunesToChars(runes[from:until])
	}
	return Chars{slice: chars.slice[from:until], inBytes: true}
}

// Each calls fn for every grapheme from first to last, or in reverse when
// forward is false. Iteration stops as soon as fn returns false.
func (chars *Chars) Each(forward bool, fn func(idx int, r rune) bool) {
	n := chars.Length()
	if forward {
		for i := 0; i < n; i++ {
			if !fn(i, chars.Get(i)) {
				return
			}
		}
		return
	}
	for i := n - 1; i >= 0; i-- {
		if !fn(i, chars.Get(i)) {
			return
		}
	}
}

// String returns the string representation of a Chars object, for debugging.
func (chars *Chars) String() string {
	return fmt.Sprintf("Chars{slice: []byte(%q), inBytes: %v, trimLengthKnown: %v, trimLength: %d, Index: %d}", chars.slice, chars.inBytes, chars.trimLengthKnown, chars.trimLength, chars.Index)
}

// TrimLength returns the length after trimming leading and trailing whitespaces
func (chars *Chars) TrimLength() uint16 {
	if chars.trimLengthKnown {
		return chars.trimLength
	}
	chars.trimLengthKnown = true
	var i int
	length := chars.Length()
	for i = length - 1; i >= 0; i-- {
		char := chars.Get(i)
		if !unicode.IsSpace(char) {
			break
		}
	}
	// Completely empty
	if i < 0 {
		return 0
	}

	var j int
	for j = 0; j < length; j++ {
		char := chars.Get(j)
		if !unicode.IsSpace(char) {
			break
		}
	}
	chars.trimLength = AsUint16(i - j + 1)
	return chars.trimLength
}

func (chars *Chars) LeadingWhitespaces() int {
	whitespaces := 0
	for i := 0; i < chars.Length(); i++ {
		char := chars.Get(i)
		if !unicode.IsSpace(char) {
			break
		}
		whitespaces++
	}
	return whitespaces
}

func (chars *Chars) TrailingWhitespaces() int {
	whitespaces := 0
	for i := chars.Length() - 1; i >= 0; i-- {
		char := chars.Get(i)
		if !unicode.IsSpace(char) {
			break
		}
		whitespaces++
	}
	return whitespaces
}

func (chars *Chars) ToString() string {
	if runes := chars.optionalRunes(); runes != nil {
		return string(runes)
	}
	return unsafe.String(unsafe.SliceData(chars.slice), len(chars.slice))
}

func (chars *Chars) ToRunes() []rune {
	if runes := chars.optionalRunes(); runes != nil {
		return runes
	}
	b := chars.slice
	runes := make([]rune, len(b))
	for idx, c := range b {
		runes[idx] = rune(c)
	}
	return runes
}

// DisplayWidth reports the terminal column width of the grapheme at index
// i: 2 for East Asian wide and fullwidth codepoints, 1 for everything else
// (combining marks included, since Normalize already folds the marks this
// library cares about away before scoring). A renderer laying matched items
// out in fixed-width columns uses this instead of assuming one column per
// grapheme.
func (chars *Chars) DisplayWidth(i int) int {
	switch width.LookupRune(chars.Get(i)).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// CopyRunes copies len(dest) runes starting at from into dest.
func (chars *Chars) CopyRunes(dest []rune, from int) {
	if runes := chars.optionalRunes(); runes != nil {
		copy(dest, runes[from:])
		return
	}
	for idx, b := range chars.slice[from:][:len(dest)] {
		dest[idx] = rune(b)
	}
}
