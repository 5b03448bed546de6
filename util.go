package arq

// minU32 and maxU32 are small integer helpers; the core uses no floating
// point anywhere.
func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func boundU32(lo, mid, hi uint32) uint32 {
	return minU32(maxU32(lo, mid), hi)
}

// timeDiff computes later-earlier as a signed difference, safe across the
// 32-bit wrap of a millisecond clock (wraps roughly every 49.7 days). The
// uint32 subtraction itself wraps modulo 2^32; reinterpreting the result as
// int32 recovers the correct signed difference for any pair of timestamps
// less than ~24 days apart.
func timeDiff(later, earlier uint32) int32 {
	return int32(later - earlier)
}
