// Package rng provides unbiased integer sampling from the operating
// system's cryptographic entropy source.
//
// Sampling uses rejection: draws from the smallest byte width covering
// the range are discarded when they fall above the largest multiple of
// the range size, which removes modulo bias. The entropy source failing
// is not a recoverable condition and aborts the process.
package rng

import (
	"crypto/rand"
	"fmt"
	"math/bits"
)

// Sample returns a uniformly distributed integer in the inclusive range
// [min, max]. It panics if min > max; a caller passing an inverted range
// is a programming error, not an input error.
func Sample(min, max int) int {
	if min > max {
		panic(fmt.Sprintf("rng: invalid range [%d, %d]", min, max))
	}

	span := uint64(max-min) + 1
	if span == 1 {
		return min
	}

	nBytes := (bits.Len64(span-1) + 7) / 8
	// cutoff is the largest multiple of span representable in nBytes
	// bytes; draws at or above it are rejected and retried.
	var cutoff uint64
	if nBytes == 8 {
		// 2^64 mod span, computed with wraparound arithmetic.
		cutoff = 0 - (0-span)%span
	} else {
		maxValue := uint64(1) << (8 * nBytes)
		cutoff = maxValue - maxValue%span
	}

	buf := make([]byte, nBytes)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("rng: entropy source failure: %v", err))
		}
		var value uint64
		for _, b := range buf {
			value = value<<8 | uint64(b)
		}
		if value < cutoff || cutoff == 0 {
			return min + int(value%span)
		}
	}
}
