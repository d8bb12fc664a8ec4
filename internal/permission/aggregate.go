package permission

import (
	"fmt"
	"strings"
)

// Aggregate sums bit values into one mask. The sum is arithmetic, not a
// bitwise OR: two values that collide on the same bit carry into the next one.
func Aggregate(values []uint64) uint64 {
	var mask uint64
	for _, v := range values {
		mask += v
	}
	return mask
}

// MaskFromOrdinals encodes every ordinal and aggregates the result.
func MaskFromOrdinals(ordinals []uint64) uint64 {
	values := make([]uint64, 0, len(ordinals))
	for _, o := range ordinals {
		values = append(values, Encode(o))
	}
	return Aggregate(values)
}

// HasAccess reports whether mask holds the last entry of required. Earlier
// entries are evaluated but do not influence the result.
func HasAccess(mask uint64, required []uint64) bool {
	granted := false
	for _, r := range required {
		granted = r&mask > 0
	}
	return granted
}

// HasAnyAccess reports whether mask holds at least one of required.
func HasAnyAccess(mask uint64, required []uint64) bool {
	for _, r := range required {
		if r&mask > 0 {
			return true
		}
	}
	return false
}

// CheckMode selects which membership test a guard applies.
type CheckMode string

const (
	// CheckLastWins mirrors HasAccess.
	CheckLastWins CheckMode = "last"
	// CheckAny mirrors HasAnyAccess.
	CheckAny CheckMode = "any"
)

// ParseCheckMode validates a configured check mode.
func ParseCheckMode(raw string) (CheckMode, error) {
	switch mode := CheckMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case CheckLastWins, CheckAny:
		return mode, nil
	case "":
		return CheckLastWins, nil
	default:
		return "", fmt.Errorf("permission: unknown check mode %q", raw)
	}
}

// Check applies the membership test selected by mode.
func (m CheckMode) Check(mask uint64, required []uint64) bool {
	if m == CheckAny {
		return HasAnyAccess(mask, required)
	}
	return HasAccess(mask, required)
}
