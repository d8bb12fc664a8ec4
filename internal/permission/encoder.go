// Package permission turns permission ordinals into bit values and folds them
// into the single authorization mask carried by a session.
//
// Bit positions cycle every 31 ordinals, so at most 31 distinct bits are live
// per modulus class. Ordinals that share a slot are indistinguishable in a mask.
package permission

// SlotCount is the number of distinct bit positions an ordinal can map to.
const SlotCount = 31

// Slot returns the bit slot in [1,31] for the given ordinal. Exact multiples
// of 31 (including 0) map to slot 31.
func Slot(ordinal uint64) uint {
	slot := uint(ordinal % SlotCount)
	if slot == 0 {
		return SlotCount
	}
	return slot
}

// Encode maps a permission ordinal to its bit value: 1 << (slot-1).
func Encode(ordinal uint64) uint64 {
	return 1 << (Slot(ordinal) - 1)
}
