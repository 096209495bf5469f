// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"github.com/dsnet/bvgraph/internal/bitio"
)

// refResolver supplies the fully decoded successor list of an earlier
// vertex needed to satisfy a reference-compression copy. The sequential
// Iterator answers this from its own just-decoded history (no further
// recursion possible: a vertex's stored list is always already fully
// expanded by the time a later vertex references it). RandomAccess
// answers it from its window cache, recursively decoding on a miss and
// tracking chain depth against MaxRefCount.
type refResolver func(refX int64) ([]int64, error)

// decodeSuccessors reconstructs vertex x's out-degree and successor
// list from a bit cursor positioned at the start of x's record, per
// spec.md §4.G: reference-copy, interval expansion, residuals, 3-way
// merge. resolveRef is nil-safe: it is only invoked when window_size
// > 0 and the stream actually encodes r > 0.
func (g *Graph) decodeSuccessors(br *bitio.Reader, x int64, resolveRef refResolver) (int64, []int64, error) {
	var degree int64
	var succ []int64
	err := func() (err error) {
		defer errRecover(&err)
		degree, succ = g.decodeSuccessorsPanic(br, x, resolveRef)
		return nil
	}()
	return degree, succ, err
}

func (g *Graph) decodeSuccessorsPanic(br *bitio.Reader, x int64, resolveRef refResolver) (int64, []int64) {
	codes := &g.props.Codes
	d := int64(bitio.Decode(br, codes.Outdegree, 0))
	if d == 0 {
		return 0, nil
	}

	var copied []int64
	if g.props.WindowSize > 0 {
		r := int64(bitio.Decode(br, codes.References, 0))
		if r < 0 || r > int64(g.props.WindowSize) {
			panicKind(ErrIO, "reference distance %d out of window", r)
		}
		if r > 0 {
			if resolveRef == nil {
				panicKind(ErrIO, "reference encountered with no resolver")
			}
			// resolveRef may itself decode through br (RandomAccess
			// recurses into an earlier vertex's record on a cache miss,
			// seeking br elsewhere and leaving it positioned at the end
			// of that vertex's record); save and restore x's own cursor
			// around the call so the rest of x's record reads
			// contiguously regardless of what resolveRef did to br.
			pos := br.Tell()
			ref, err := resolveRef(x - r)
			if err != nil {
				panic(err)
			}
			br.Seek(pos)
			copied = copyBlocks(ref, int64(bitio.Decode(br, codes.BlockCount, 0)), br, codes.Blocks)
		}
	}

	var intervals [][2]int64 // [left, length] pairs, sorted and disjoint
	var intervalTotal int64
	if g.props.MinIntervalLength > 0 {
		ic := int64(bitio.Decode(br, codes.Intervals, 0))
		if ic > 0 {
			left := x + 1 + bitio.ZigZagDecode(bitio.Decode(br, codes.IntervalLeft, 0))
			length := int64(bitio.Decode(br, codes.IntervalLen, 0)) + int64(g.props.MinIntervalLength)
			intervals = append(intervals, [2]int64{left, length})
			intervalTotal += length
			for j := int64(1); j < ic; j++ {
				gap := int64(bitio.Decode(br, codes.IntervalLeft, 0))
				left = left + length + gap + 1
				length = int64(bitio.Decode(br, codes.IntervalLen, 0)) + int64(g.props.MinIntervalLength)
				intervals = append(intervals, [2]int64{left, length})
				intervalTotal += length
			}
		}
	}

	residualCount := d - int64(len(copied)) - intervalTotal
	if residualCount < 0 {
		panicKind(ErrIO, "vertex %d: degree accounting underflow", x)
	}
	var residuals []int64
	if residualCount > 0 {
		v := x + bitio.ZigZagDecode(bitio.Decode(br, codes.Residuals, uint(g.props.ZetaK)))
		residuals = append(residuals, v)
		for j := int64(1); j < residualCount; j++ {
			v = v + int64(bitio.Decode(br, codes.Residuals, uint(g.props.ZetaK))) + 1
			residuals = append(residuals, v)
		}
	}

	intervalList := expandIntervals(intervals, intervalTotal)
	out := mergeThree(copied, intervalList, residuals)
	if int64(len(out)) != d {
		panicKind(ErrIO, "vertex %d: merged length %d != degree %d", x, len(out), d)
	}
	return d, out
}

// copyBlocks applies the reference-compression block run-length list to
// ref, returning the elements actually copied, per spec.md §4.G step 3.
func copyBlocks(ref []int64, blockCount int64, br *bitio.Reader, blockCode bitio.Code) []int64 {
	if blockCount == 0 {
		out := make([]int64, len(ref))
		copy(out, ref)
		return out
	}

	var out []int64
	pos := 0
	copying := false // block 0 is always a skip
	for i := int64(0); i < blockCount; i++ {
		var length int64
		if i == 0 {
			length = int64(bitio.Decode(br, blockCode, 0)) // zero-biased
		} else {
			length = int64(bitio.Decode(br, blockCode, 0)) + 1 // one-biased
		}
		if copying {
			end := pos + int(length)
			if end > len(ref) {
				panicKind(ErrIO, "reference block overruns list")
			}
			out = append(out, ref[pos:end]...)
			pos = end
		} else {
			pos += int(length)
			if pos > len(ref) {
				panicKind(ErrIO, "reference block overruns list")
			}
		}
		copying = !copying
	}
	// The elements of ref after the last explicit block are copied when
	// the block count is even (the last explicit block was then a copy)
	// and skipped when it is odd; spec.md phrases this as "the last run
	// extends to end of P if bc is even... or ends if bc is odd."
	if blockCount%2 == 0 {
		out = append(out, ref[pos:]...)
	}
	return out
}

// expandIntervals flattens the (left, length) interval list into a
// single sorted slice of vertex ids.
func expandIntervals(intervals [][2]int64, total int64) []int64 {
	if total == 0 {
		return nil
	}
	out := make([]int64, 0, total)
	for _, iv := range intervals {
		left, length := iv[0], iv[1]
		for k := int64(0); k < length; k++ {
			out = append(out, left+k)
		}
	}
	return out
}

// mergeThree merges three already-sorted, disjoint slices into one
// sorted slice, the final step of spec.md §4.G.
func mergeThree(a, b, c []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b)+len(c))
	i, j, k := 0, 0, 0
	for i < len(a) || j < len(b) || k < len(c) {
		var av, bv, cv int64 = maxInt64, maxInt64, maxInt64
		if i < len(a) {
			av = a[i]
		}
		if j < len(b) {
			bv = b[j]
		}
		if k < len(c) {
			cv = c[k]
		}
		switch {
		case av <= bv && av <= cv:
			out = append(out, av)
			i++
		case bv <= av && bv <= cv:
			out = append(out, bv)
			j++
		default:
			out = append(out, cv)
			k++
		}
	}
	return out
}

const maxInt64 = int64(1<<63 - 1)
