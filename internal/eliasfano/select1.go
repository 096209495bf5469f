// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eliasfano

import (
	"math/bits"

	"github.com/dsnet/bvgraph/internal/bitarray"
	"github.com/dsnet/bvgraph/internal/bitio"
)

// maxOnesPerInventory bounds how many set bits a single inventory entry
// may summarize, per spec.md §3's select1 inventory description.
const maxOnesPerInventory = 8192

// spillSpanBits is the span, in bits, beyond which an inventory block is
// considered too wide to address with a single start position and is
// spilled into the exact position table instead.
const spillSpanBits = 1 << 16

// defaultSpillCapacity is the number of exact_spill entries pre-allocated
// before falling back to the resize/fail policy (spec.md §4.E).
const defaultSpillCapacity = 10 * maxOnesPerInventory

// select1Index is the two-level inventory/spill acceleration structure
// over an upper-bits Bits array, giving O(1)-expected select1(k).
type select1Index struct {
	onesPerInv int
	log2OPI    uint
	inv        []int64 // >=0: bit position of first 1 in the block; <0: -(spillIndex+1)
	spill      []int64
	numOnes    int64
}

// growSpillOnOverflow controls what happens when the pre-allocated spill capacity
// is exceeded: grow to fit (the default, matching a library that cannot
// know n in advance) or fail outright. The teacher repo has no direct
// analogue; this mirrors its general preference (see bzip2.Reader's
// bounded block buffers) for pre-sizing with a graceful growth fallback
// rather than a hard panic.
var growSpillOnOverflow = true

func buildSelect1(u *bitarray.Bits, numOnes int64) *select1Index {
	uLen := u.Len()
	onesPerInv := 1
	if numOnes > 0 {
		target := int64(1)
		if uLen > 0 {
			target = (numOnes*maxOnesPerInventory + int64(uLen) - 1) / int64(uLen)
		}
		if target < 1 {
			target = 1
		}
		onesPerInv = 1 << uint(bits.Len64(uint64(target))-1)
	}
	log2OPI := uint(bits.Len64(uint64(onesPerInv)) - 1)

	numBlocks := int((numOnes + int64(onesPerInv) - 1) / int64(onesPerInv))
	idx := &select1Index{
		onesPerInv: onesPerInv,
		log2OPI:    log2OPI,
		inv:        make([]int64, numBlocks+1),
		spill:      make([]int64, 0, defaultSpillCapacity),
		numOnes:    numOnes,
	}
	if numOnes == 0 {
		idx.inv = idx.inv[:0]
		return idx
	}

	// First pass: record the start of every inventory block and note
	// which ones span too wide a range to be addressed by a single
	// start position.
	blockStart := make([]int64, numBlocks)
	blockEnd := make([]int64, numBlocks)
	var count int64
	var lastBlock = -1
	for pos := 0; pos < uLen; pos++ {
		if !u.Get(pos) {
			continue
		}
		block := int(count / int64(onesPerInv))
		if block != lastBlock {
			blockStart[block] = int64(pos)
			lastBlock = block
		}
		blockEnd[block] = int64(pos)
		count++
	}
	idx.inv[numBlocks] = int64(uLen)

	for b := 0; b < numBlocks; b++ {
		span := blockEnd[b] - blockStart[b]
		if span >= spillSpanBits {
			spillIdx := len(idx.spill)
			for pos := blockStart[b]; pos <= blockEnd[b]; pos++ {
				if u.Get(int(pos)) {
					idx.appendSpill(int64(pos))
				}
			}
			idx.inv[b] = -(int64(spillIdx) + 1)
		} else {
			idx.inv[b] = blockStart[b]
		}
	}
	return idx
}

func (idx *select1Index) appendSpill(pos int64) {
	if len(idx.spill) == cap(idx.spill) {
		if !growSpillOnOverflow {
			panic(ErrSpillTooSmall)
		}
	}
	idx.spill = append(idx.spill, pos)
}

// Select1 returns the bit position of the (rank+1)-th set bit in the
// upper-bits array backing this index.
func (idx *select1Index) Select1(u *bitarray.Bits, rank int64) (int64, error) {
	if rank < 0 || rank >= idx.numOnes {
		return 0, ErrOutOfBound
	}
	block := rank >> idx.log2OPI
	subrank := rank & (int64(idx.onesPerInv) - 1)

	start := idx.inv[block]
	if start < 0 {
		spillIdx := -(start + 1)
		return idx.spill[spillIdx+subrank], nil
	}
	if subrank == 0 {
		return start, nil
	}
	return idx.scanFrom(u, start, subrank), nil
}

// scanFrom walks forward from the bit position start (itself a set
// bit) to find the set bit `remaining` positions further along,
// skipping whole words via PopCount64 before bit-scanning the final
// word, matching spec.md §4.E's described algorithm.
func (idx *select1Index) scanFrom(u *bitarray.Bits, start int64, remaining int64) int64 {
	wordIdx := int(start / 64)
	bitIdx := uint(start % 64)

	// Consume the remainder of the starting word after the known 1-bit.
	word := u.Word(wordIdx) &^ (uint64(1)<<(bitIdx+1) - 1) // clear bits <= bitIdx
	if bitIdx == 63 {
		word = 0
	}
	for {
		cnt := int64(bitio.PopCount64(word))
		if cnt >= remaining {
			return int64(wordIdx)*64 + int64(nthSetBit(word, int(remaining-1)))
		}
		remaining -= cnt
		wordIdx++
		word = u.Word(wordIdx)
	}
}

// nthSetBit returns the bit index (within a 64-bit word) of the
// (n+1)-th set bit, n >= 0 and < PopCount64(word).
func nthSetBit(word uint64, n int) int {
	for i := 0; i < 64; i++ {
		if word&(uint64(1)<<uint(i)) != 0 {
			if n == 0 {
				return i
			}
			n--
		}
	}
	panic("eliasfano: nthSetBit out of range")
}
