// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to size the sample
FIFO and the FFT. Everything here is allocation free and safe to call from
the real-time audio callback.

Usage:

	// Round a requested FIFO depth up to a maskable capacity
	capacity := bitint.NextPowerOfTwo(30) // Returns 32

	// Verify an FFT size and get its order
	if bitint.IsPowerOfTwo(fftSize) {
		order := bitint.Log2(fftSize) // 2048 -> 11
	}

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so an exact
power of two maps to itself:

	size = 8, size-1 = 7 (0111), bits.Len(7) = 3, 1 << 3 = 8
	size = 9, size-1 = 8 (1000), bits.Len(8) = 4, 1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2. A power of two has exactly one
// bit set, so clearing the lowest set bit leaves zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise. For powers of two
// it is the exact exponent, which is what FFT orders are expressed in.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}
