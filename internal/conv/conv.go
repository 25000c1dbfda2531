// Package conv provides checked narrowing conversions for the engine's
// 32-bit indices.
//
// Instruction pointers and visited-bitset word indices are uint32. A value
// past that width means a size limit upstream was bypassed or miscalibrated,
// so these helpers panic instead of wrapping silently.
package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts n to uint32, panicking when it does not fit.
func IntToUint32(n int) uint32 {
	if n < 0 || uint64(n) > math.MaxUint32 {
		panic(fmt.Sprintf("BUG: %d is too big to fit into uint32", n))
	}
	return uint32(n)
}

// Uint64ToUint32 converts n to uint32, panicking when it does not fit.
func Uint64ToUint32(n uint64) uint32 {
	if n > math.MaxUint32 {
		panic(fmt.Sprintf("BUG: %d is too big to fit into uint32", n))
	}
	return uint32(n)
}
