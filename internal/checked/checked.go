// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package checked provides overflow-checked integer arithmetic for bounds
// computations on pixel and arena buffers.
//
// Every helper reports ok == false instead of returning a wrapped value.
// Callers are expected to treat a failed computation as its own error class,
// separate from a logical out-of-range result.
package checked

import (
	"math"
	"math/bits"
)

// Add returns a+b, or ok == false if the sum overflows int.
func Add(a, b int) (sum int, ok bool) {
	s := a + b
	// Overflow iff both operands share a sign that the result does not.
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		return 0, false
	}
	return s, true
}

// Mul returns a*b, or ok == false if the product overflows int.
func Mul(a, b int) (product int, ok bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := abs(a), abs(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > uint64(math.MaxInt)+1 {
			return 0, false
		}
		return int(-lo), true //nolint:gosec // G115: bounded above
	}
	if lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// MulAdd returns a*b+c, or ok == false if any step overflows int.
func MulAdd(a, b, c int) (int, bool) {
	p, ok := Mul(a, b)
	if !ok {
		return 0, false
	}
	return Add(p, c)
}

// Product returns the product of all factors, or ok == false on overflow.
func Product(factors ...int) (int, bool) {
	p := 1
	for _, f := range factors {
		var ok bool
		if p, ok = Mul(p, f); !ok {
			return 0, false
		}
	}
	return p, true
}

// AlignUp rounds v up to the next multiple of align, which must be a power
// of two. It reports ok == false if the result overflows int.
func AlignUp(v, align int) (int, bool) {
	if align <= 1 {
		return v, true
	}
	s, ok := Add(v, align-1)
	if !ok {
		return 0, false
	}
	return s &^ (align - 1), true
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func abs(v int) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1 //nolint:gosec // G115: handles MinInt
	}
	return uint64(v)
}
