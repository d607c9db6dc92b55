package chordsim

import "slices"

// DefaultBits is the identifier bit width. All node IDs, lookup targets and
// finger starts live in the cyclic space [0, 2^bits).
const DefaultBits = 16

// maxEstimatedHops caps the per-lookup hop estimate regardless of ring size.
const maxEstimatedHops = 16

// RingSize returns the number of identifiers for the given bit width.
func RingSize(bits int) uint64 {
	return 1 << uint(bits)
}

func pow2(i int) uint64 {
	return 1 << uint(i)
}

// InRange reports whether v lies on the clockwise arc (start, end].
func InRange(v, start, end uint64) bool {
	if start < end {
		return v > start && v <= end
	}
	// wrap around
	return v > start || v <= end
}

// InRangeExclusive reports whether v lies on the clockwise arc (start, end),
// both endpoints excluded.
func InRangeExclusive(v, start, end uint64) bool {
	if start < end {
		return v > start && v < end
	}
	return v > start || v < end
}

// SuccessorInSorted returns the first ID >= target from a sorted ascending
// list of participant IDs, wrapping to the smallest when target is beyond
// the largest. The list must be non-empty.
func SuccessorInSorted(target uint64, sorted []uint64) uint64 {
	i, _ := slices.BinarySearch(sorted, target)
	if i == len(sorted) {
		return sorted[0]
	}
	return sorted[i]
}

// NodeIDs generates n evenly spaced identifiers: id_k = floor(k * ring / n).
// IDs are distinct as long as n does not exceed the ring size.
func NodeIDs(n, bits int) []uint64 {
	ring := RingSize(bits)
	ids := make([]uint64, n)
	for k := range ids {
		ids[k] = uint64(k) * ring / uint64(n)
	}
	return ids
}

// EstimatedHops returns ceil(log2 n) capped at maxEstimatedHops. The workload
// charges this per successful lookup instead of a measured count, matching
// the theoretical O(log N) routing bound.
func EstimatedHops(n int) int {
	for i := 0; i <= maxEstimatedHops; i++ {
		if uint64(n) <= pow2(i) {
			return i
		}
	}
	return maxEstimatedHops
}
