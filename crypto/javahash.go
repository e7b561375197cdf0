package crypto

// JavaByteStringHashCode reproduces the legacy Java String.hashCode()-style
// hash the reference implementation uses to break schedule-sort ties (spec
// §4.7 step 4, §9 "Legacy compatibility traps"). It must match bit-for-bit:
//
//	h = len(bytes)
//	for b in bytes: h = h*31 + int8(b)   // wrapping i32 arithmetic
//	return h == 0 ? 1 : h
//
// The h==0 guard exists because Java's own hashCode() would return 0 both
// for the empty string and for certain byte sequences; the reference
// implementation disambiguates "unset" (0) from a genuine zero hash by
// forcing the latter to 1.
func JavaByteStringHashCode(b []byte) int32 {
	h := int32(len(b))
	for _, c := range b {
		// Java bytes are signed; widen through int8 before mixing in.
		h = h*31 + int32(int8(c))
	}
	if h == 0 {
		return 1
	}
	return h
}
