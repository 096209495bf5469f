// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitio

import (
	"math/bits"

	"github.com/klauspost/cpuid"
)

// popcountLUT maps a byte to its population count, built at package
// init the same way internal/common.go built IdentityLUT/ReverseLUT in
// the teacher repo: a single pass filling a [256]byte table.
var popcountLUT [256]byte

// hasPOPCNT records whether the host advertises a native population
// count instruction. Go's math/bits.OnesCount64 already lowers to
// POPCNT/VCNT on architectures that support it; this flag makes that
// choice explicit in PopCount64: when the CPU lacks POPCNT, select1's word-scan falls back
// to summing the byte-wise popcountLUT instead, matching the teacher's
// own LUT-over-bit-twiddling preference (ReverseLUT vs a clever
// bit-reversal trick).
var hasPOPCNT = cpuid.CPU.Supports(cpuid.POPCNT)

func init() {
	for i := range popcountLUT {
		b := byte(i)
		var c byte
		for b != 0 {
			c += b & 1
			b >>= 1
		}
		popcountLUT[i] = c
	}
}

// PopCount64 returns the number of set bits in x.
func PopCount64(x uint64) int {
	if hasPOPCNT {
		return bits.OnesCount64(x)
	}
	var n int
	for i := 0; i < 8; i++ {
		n += int(popcountLUT[byte(x>>(8*i))])
	}
	return n
}

// PopCountLUT returns the number of set bits in b using the byte LUT
// directly; exposed for tests that want to exercise the fallback path
// independent of what the host CPU actually supports.
func PopCountLUT(b byte) int {
	return int(popcountLUT[b])
}
