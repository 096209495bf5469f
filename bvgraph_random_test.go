// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/bvgraph/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// buildRandomFixture authors a plain-residuals graph (no reference
// compression, no intervals) of n vertices using testutil.Rand's
// deterministic PRNG, so the same seed always reproduces the same
// graph across runs.
func buildRandomFixture(t *testing.T, seed, n int) (fixture, int64) {
	t.Helper()
	r := testutil.NewRand(seed)
	want := make([][]int64, n)
	for x := 0; x < n; x++ {
		d := r.Intn(6)
		if d > n-1 {
			d = n - 1
		}
		perm := r.Perm(n)
		ids := make([]int64, 0, d)
		for _, p := range perm {
			if len(ids) >= d {
				break
			}
			ids = append(ids, int64(p))
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		want[x] = ids
	}

	var w testBitWriter
	var offsets []int64
	var arcs int64
	for x := 0; x < n; x++ {
		offsets = append(offsets, bitPos(&w))
		succ := want[x]
		w.writeGamma(uint64(len(succ)))
		arcs += int64(len(succ))
		if len(succ) == 0 {
			continue
		}
		w.writeUnary(0) // no reference
		w.writeGamma(0) // no intervals
		prev := int64(x)
		for i, s := range succ {
			if i == 0 {
				w.writeZeta(bitio.ZigZagEncode(s-int64(x)), 3)
			} else {
				w.writeZeta(uint64(s-prev-1), 3)
			}
			prev = s
		}
	}

	dir := t.TempDir()
	base := filepath.Join(dir, "rand")
	if err := os.WriteFile(base+".graph", w.buf, 0o644); err != nil {
		t.Fatalf("write .graph: %v", err)
	}
	var ow testBitWriter
	prevOff := int64(0)
	for _, off := range offsets {
		ow.writeGamma(uint64(off - prevOff))
		prevOff = off
	}
	if err := os.WriteFile(base+".offsets", ow.buf, 0o644); err != nil {
		t.Fatalf("write .offsets: %v", err)
	}
	graphBits := int64(len(w.buf)) * 8
	bpl := float64(0)
	if arcs > 0 {
		bpl = float64(graphBits) / float64(arcs)
	}
	props := fmt.Sprintf("nodes=%d\narcs=%d\nversion=0\nbitsperlink=%f\n", n, arcs, bpl)
	if err := os.WriteFile(base+".properties", []byte(props), 0o644); err != nil {
		t.Fatalf("write .properties: %v", err)
	}

	return fixture{basePath: base, offsets: offsets, want: want}, arcs
}

func TestRandomGraphSequentialRoundTrip(t *testing.T) {
	fx, _ := buildRandomFixture(t, 12345, 30)
	g, err := Load(fx.basePath, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer g.Close()

	it := g.Iterator()
	var got [][]int64
	for it.Next() {
		got = append(got, append([]int64(nil), it.Successors()...))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if diff := cmp.Diff(fx.want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("successor lists differ (-want +got):\n%s", diff)
	}
}

func TestRandomGraphRandomAccessMatchesSequential(t *testing.T) {
	fx, _ := buildRandomFixture(t, 67890, 25)
	g, err := Load(fx.basePath, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer g.Close()

	r, err := g.RandomAccess()
	if err != nil {
		t.Fatalf("RandomAccess: %v", err)
	}
	// Visit vertices in a shuffled order to exercise the window cache's
	// eviction path rather than always decoding strictly forward.
	order := testutil.NewRand(1).Perm(len(fx.want))
	for _, x := range order {
		got, err := r.Successors(int64(x))
		if err != nil {
			t.Fatalf("Successors(%d): %v", x, err)
		}
		if !int64SliceEqual(got, fx.want[x]) {
			t.Errorf("Successors(%d) = %v, want %v", x, got, fx.want[x])
		}
	}
}
