package store

// Search performs a comparator-driven binary search over the positions
// [lo, hi). test compares the target against the element stored at a
// position: positive if the target sorts after it, negative if before,
// zero on a match.
//
// It returns the matching position if one exists; otherwise it returns
// -(ip+1), where ip is the insertion point at which the target would keep
// the sequence ordered. Callers can distinguish found (>= 0) from not found
// (< 0) and recover the insertion point.
func Search(lo, hi int, test func(pos int) int) int {
	low, high := lo, hi-1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		cmp := test(mid)
		switch {
		case cmp > 0:
			low = mid + 1
		case cmp < 0:
			high = mid - 1
		default:
			return mid
		}
	}
	return -(low + 1)
}
