// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"testing"

	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/bvgraph/internal/testutil"
)

func testGraph() *Graph {
	return &Graph{
		props: &Properties{
			WindowSize:        defaultWindowSize,
			MaxRefCount:       defaultMaxRefCount,
			MinIntervalLength: defaultMinIntervalLength,
			ZetaK:             defaultZetaK,
			Codes:             defaultFieldCodes(),
		},
	}
}

func TestDecodeSuccessorsResidualsOnly(t *testing.T) {
	g := testGraph()
	x := int64(10)
	succ := []int64{5, 11, 20}

	var w testBitWriter
	w.writeGamma(uint64(len(succ))) // out-degree
	w.writeUnary(0)                 // reference = 0
	w.writeGamma(0)                 // interval count = 0
	prev := x
	for i, s := range succ {
		var delta uint64
		if i == 0 {
			delta = bitio.ZigZagEncode(s - x)
		} else {
			delta = uint64(s - prev - 1)
		}
		w.writeZeta(delta, uint(g.props.ZetaK))
		prev = s
	}

	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, x, nil)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	if d != int64(len(succ)) {
		t.Errorf("degree = %d, want %d", d, len(succ))
	}
	if !int64SliceEqual(got, succ) {
		t.Errorf("successors = %v, want %v", got, succ)
	}
}

func TestDecodeSuccessorsZeroDegree(t *testing.T) {
	g := testGraph()
	var w testBitWriter
	w.writeGamma(0)
	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, 0, nil)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	if d != 0 || len(got) != 0 {
		t.Errorf("degree=%d successors=%v, want 0, empty", d, got)
	}
}

func TestDecodeSuccessorsFullReferenceCopy(t *testing.T) {
	g := testGraph()
	ref := []int64{1, 2, 3, 4, 5}
	x := int64(6)

	var w testBitWriter
	w.writeGamma(uint64(len(ref))) // out-degree == |ref|
	w.writeUnary(1)                // reference distance r=1
	w.writeGamma(0)                // block count 0: copy all of ref
	w.writeGamma(0)                // interval count 0

	resolver := func(refX int64) ([]int64, error) {
		if refX != x-1 {
			t.Fatalf("resolver called with unexpected vertex %d", refX)
		}
		return ref, nil
	}

	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, x, resolver)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	if d != int64(len(ref)) {
		t.Errorf("degree = %d, want %d", d, len(ref))
	}
	if !int64SliceEqual(got, ref) {
		t.Errorf("successors = %v, want %v", got, ref)
	}
}

func TestDecodeSuccessorsReferenceWithBlocksAndResiduals(t *testing.T) {
	g := testGraph()
	ref := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	x := int64(9)
	// Copy ref[2:5] = {3,4,5} via skip 2, copy 3, skip 3 (consumes all of
	// ref explicitly, sidestepping the bc-parity trailing-run rule);
	// plus a residual 100.
	var w testBitWriter
	w.writeGamma(4) // out-degree: 3 copied + 1 residual
	w.writeUnary(1) // reference distance 1
	w.writeGamma(3) // block count 3 (skip, copy, skip)
	w.writeGamma(2) // block 0 (skip), zero-biased: skip 2
	w.writeGamma(2) // block 1 (copy), one-biased: decoded(2)+1=3 elements
	w.writeGamma(2) // block 2 (skip), one-biased: decoded(2)+1=3 elements, consumes the rest
	w.writeGamma(0) // interval count 0
	w.writeZeta(bitio.ZigZagEncode(100-x), uint(g.props.ZetaK))

	resolver := func(refX int64) ([]int64, error) { return ref, nil }
	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, x, resolver)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	want := []int64{3, 4, 5, 100}
	if d != 4 || !int64SliceEqual(got, want) {
		t.Errorf("degree=%d successors=%v, want 4, %v", d, got, want)
	}
}

func TestDecodeSuccessorsIntervalAndResidual(t *testing.T) {
	g := testGraph()
	x := int64(100)
	var w testBitWriter
	w.writeGamma(4) // out-degree: one interval of 3 + one residual
	w.writeUnary(0) // reference 0
	w.writeGamma(1) // interval count 1
	w.writeGamma(bitio.ZigZagEncode(0))   // left extreme: x+1+0 = 101
	w.writeGamma(0)                       // length: 0+min_interval_length(3) = 3
	w.writeZeta(bitio.ZigZagEncode(107-x), uint(g.props.ZetaK))

	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, x, nil)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	want := []int64{101, 102, 103, 107}
	if d != 4 || !int64SliceEqual(got, want) {
		t.Errorf("degree=%d successors=%v, want 4, %v", d, got, want)
	}
}

// TestDecodeSuccessorsMultiInterval exercises ic>1: the j>=1 branch of
// the interval loop in decodeSuccessorsPanic, which decodes each
// subsequent left extreme as a plain (non-zigzag) gap off the previous
// interval's end rather than the zigzag-offset-from-x used for the
// first interval.
func TestDecodeSuccessorsMultiInterval(t *testing.T) {
	g := testGraph()
	x := int64(100)
	var w testBitWriter
	w.writeGamma(7) // out-degree: two intervals of 3 + one residual
	w.writeUnary(0) // reference 0
	w.writeGamma(2) // interval count 2
	w.writeGamma(bitio.ZigZagEncode(0)) // first left extreme: x+1+0 = 101
	w.writeGamma(0)                     // first length: 0+min_interval_length(3) = 3, covers 101-103
	w.writeGamma(5)                     // gap: second left = 101+3+5+1 = 110
	w.writeGamma(0)                     // second length: 0+3 = 3, covers 110-112
	w.writeZeta(bitio.ZigZagEncode(200-x), uint(g.props.ZetaK))

	br := bitio.NewReader(w.buf)
	d, got, err := g.decodeSuccessors(br, x, nil)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	want := []int64{101, 102, 103, 110, 111, 112, 200}
	if d != 7 || !int64SliceEqual(got, want) {
		t.Errorf("degree=%d successors=%v, want 7, %v", d, got, want)
	}
}

// TestDecodeSuccessorsFullReferenceCopyViaBitGen is
// TestDecodeSuccessorsFullReferenceCopy authored through the BitGen
// mini-language instead of testBitWriter, to exercise the ported
// fixture-authoring helper against a real decode. The bit string is
// gamma(5) + unary(1) + gamma(0) + gamma(0): "00110" "01" "1" "1",
// gamma(0) matching the known encoding verified in
// internal/bitio/codes_test.go's TestGammaKnownValues.
func TestDecodeSuccessorsFullReferenceCopyViaBitGen(t *testing.T) {
	g := testGraph()
	ref := []int64{1, 2, 3, 4, 5}
	x := int64(6)

	buf := testutil.MustDecodeBitGen("001100111")
	resolver := func(refX int64) ([]int64, error) {
		if refX != x-1 {
			t.Fatalf("resolver called with unexpected vertex %d", refX)
		}
		return ref, nil
	}

	br := bitio.NewReader(buf)
	d, got, err := g.decodeSuccessors(br, x, resolver)
	if err != nil {
		t.Fatalf("decodeSuccessors: %v", err)
	}
	if d != int64(len(ref)) {
		t.Errorf("degree = %d, want %d", d, len(ref))
	}
	if !int64SliceEqual(got, ref) {
		t.Errorf("successors = %v, want %v", got, ref)
	}
}

func int64SliceEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
