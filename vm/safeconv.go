package vm

import (
	"fmt"
	"math"
)

// SafeInt64ToUint32 safely converts int64 to uint32
// Returns error if value is negative or exceeds uint32 range
func SafeInt64ToUint32(v int64) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("cannot convert negative int64 %d to uint32", v)
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("int64 value %d exceeds uint32 maximum", v)
	}
	return uint32(v), nil
}

// SafeUintToUint32 safely converts uint to uint32
// Returns error if value exceeds uint32 range
func SafeUintToUint32(v uint) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("uint value %d exceeds uint32 maximum", v)
	}
	return uint32(v), nil
}

// AsInt32 converts uint32 to int32 for display purposes
// This is intentional for showing the signed interpretation of a uint32 value
// No error checking as the bit pattern is preserved
func AsInt32(v uint32) int32 {
	//nolint:gosec // G115: Intentional conversion for signed display
	return int32(v)
}
