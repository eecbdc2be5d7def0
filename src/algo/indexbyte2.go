package algo

import "bytes"

// indexByteTwo returns the index of the first occurrence of b1 or b2 in s,
// or -1 if neither appears. Used by the ASCII prefilter to locate the next
// candidate position for either case of a letter in one pass.
func indexByteTwo(s []byte, b1, b2 byte) int {
	i1 := bytes.IndexByte(s, b1)
	if i1 == 0 {
		return 0
	}
	scope := s
	if i1 > 0 {
		scope = s[:i1]
	}
	if i2 := bytes.IndexByte(scope, b2); i2 >= 0 {
		return i2
	}
	return i1
}

// lastIndexByteTwo returns the index of the last occurrence of b1 or b2 in s,
// or -1 if neither appears.
func lastIndexByteTwo(s []byte, b1, b2 byte) int {
	i1 := bytes.LastIndexByte(s, b1)
	i2 := bytes.LastIndexByte(s, b2)
	if i1 > i2 {
		return i1
	}
	return i2
}
