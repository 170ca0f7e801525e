// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used for FFT sizes and
wavetable lengths.

	tableSize := bitint.NextPowerOfTwo(4 * harmonics) // 1000 -> 1024
	valid := bitint.IsPowerOfTwo(fftSize)

Both are allocation free and constant time.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, or 1 when size
// is not positive. Subtracting 1 first keeps exact powers unchanged: 8-1 is
// 0b0111, whose bit length 3 shifts back to 8.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2
// have one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
