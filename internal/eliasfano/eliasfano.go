// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eliasfano implements the Elias-Fano monotone-sequence
// compressor and its select1 acceleration structure, per spec.md §4.D
// and §4.E. It is the offset index used when a BV graph is opened with
// an offset_step that asks for compact rather than dense offsets.
package eliasfano

import (
	"math/bits"

	"github.com/dsnet/bvgraph/internal/bitarray"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "eliasfano: " + string(e) }

var (
	ErrOutOfBound         error = Error("index out of bound")
	ErrSpillTooSmall      error = Error("select1 spill capacity exceeded")
	ErrBatchNondecreasing error = Error("sequence is not non-decreasing")
)

// List is an immutable Elias-Fano encoding of a non-decreasing sequence
// x0 <= x1 <= ... <= x[n-1] <= u.
type List struct {
	n, u  int64
	s     uint
	lower *bitarray.Vector
	upper *bitarray.Bits
	sel   *select1Index
}

// Len returns the number of encoded elements.
func (l *List) Len() int64 { return l.n }

// lowBits returns floor(log2((u+1)/n)), the width of the packed lower
// half of each entry, 0 when n is 0.
func lowBits(n, u int64) uint {
	if n <= 0 {
		return 0
	}
	ratio := (u + 1) / n
	if ratio < 1 {
		return 0
	}
	return uint(bits.Len64(uint64(ratio)) - 1)
}

// Build constructs a List from a fully materialized non-decreasing
// sequence with upper bound u (every element must satisfy 0 <= x <= u).
func Build(seq []uint64, u int64) (*List, error) {
	b := NewBuilder(int64(len(seq)), u)
	for _, x := range seq {
		if err := b.Add(x); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Lookup returns the i-th element of the encoded sequence.
func (l *List) Lookup(i int64) (uint64, error) {
	if i < 0 || i >= l.n {
		return 0, ErrOutOfBound
	}
	pos, err := l.sel.Select1(l.upper, i)
	if err != nil {
		return 0, err
	}
	high := uint64(pos - i)
	low := uint64(0)
	if l.s > 0 {
		low = l.lower.Get(int(i))
	}
	return high<<l.s | low, nil
}

// Builder incrementally constructs a List from a stream of
// non-decreasing values, matching spec.md §4.D's add(x) operation so
// that an offsets file can be consumed one γ-coded delta at a time
// without materializing the whole sequence first.
type Builder struct {
	n, u   int64
	s      uint
	lower  *bitarray.Vector
	upper  *bitarray.Bits
	i      int64
	last   uint64
	hasPos bool
}

// NewBuilder prepares a Builder for n elements bounded above by u.
func NewBuilder(n, u int64) *Builder {
	s := lowBits(n, u)
	highLen := 0
	if n > 0 {
		highLen = int(n) + int(u>>s) + 1
	}
	return &Builder{
		n:     n,
		u:     u,
		s:     s,
		lower: vectorOrNil(n, s),
		upper: bitarray.NewBits(highLen),
	}
}

func vectorOrNil(n int64, s uint) *bitarray.Vector {
	if n == 0 || s == 0 {
		return nil
	}
	return bitarray.NewVector(int(n), s)
}

// Add appends x to the sequence under construction. x must be
// non-decreasing relative to the previous Add call and within [0, u].
func (b *Builder) Add(x uint64) error {
	if b.i >= b.n {
		return ErrOutOfBound
	}
	if x > uint64(b.u) {
		return ErrOutOfBound
	}
	if b.hasPos && x < b.last {
		return ErrBatchNondecreasing
	}
	b.last, b.hasPos = x, true

	if b.s > 0 {
		b.lower.Set(int(b.i), x&(uint64(1)<<b.s-1))
	}
	high := x >> b.s
	pos := int64(high) + b.i
	b.upper.Set(int(pos))
	b.i++
	return nil
}

// Build finalizes the List. It may be called once the Builder has
// received all n elements (or fewer, in which case the remainder of
// the sequence is treated as absent and Lookup on those indices fails).
func (b *Builder) Build() *List {
	numOnes := b.i
	sel := buildSelect1(b.upper, numOnes)
	return &List{
		n:     b.i,
		u:     b.u,
		s:     b.s,
		lower: b.lower,
		upper: b.upper,
		sel:   sel,
	}
}
