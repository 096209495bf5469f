// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitarray

import "testing"

func TestVectorGetSet(t *testing.T) {
	v := NewVector(10, 5)
	for i := 0; i < 10; i++ {
		v.Set(i, uint64(i*3%32))
	}
	for i := 0; i < 10; i++ {
		want := uint64(i * 3 % 32)
		if got := v.Get(i); got != want {
			t.Errorf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestVectorSpansWordBoundary(t *testing.T) {
	// width=23 forces several items to straddle a 64-bit word boundary.
	v := NewVector(8, 23)
	vals := []uint64{1, 0x7fffff, 12345, 0, 999999, 42, 1 << 20, 7}
	for i, x := range vals {
		v.Set(i, x)
	}
	for i, x := range vals {
		if got := v.Get(i); got != x {
			t.Errorf("Get(%d) = %d, want %d", i, got, x)
		}
	}
}

func TestVectorPanicsOnBadWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for width=0")
		}
	}()
	NewVector(4, 0)
}

func TestBitsGetSet(t *testing.T) {
	b := NewBits(200)
	set := []int{0, 1, 63, 64, 65, 127, 128, 199}
	for _, k := range set {
		b.Set(k)
	}
	want := make(map[int]bool)
	for _, k := range set {
		want[k] = true
	}
	for k := 0; k < 200; k++ {
		if got := b.Get(k); got != want[k] {
			t.Errorf("Get(%d) = %v, want %v", k, got, want[k])
		}
	}
}

func TestBitsWord(t *testing.T) {
	b := NewBits(128)
	b.Set(0)
	b.Set(63)
	b.Set(64)
	if got := b.Word(0); got != (1 | 1<<63) {
		t.Errorf("Word(0) = %#x, want %#x", got, uint64(1|1<<63))
	}
	if got := b.Word(1); got != 1 {
		t.Errorf("Word(1) = %#x, want 1", got)
	}
	if b.NumWords() != 2 {
		t.Errorf("NumWords() = %d, want 2", b.NumWords())
	}
}
