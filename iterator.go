// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"context"

	"github.com/dsnet/bvgraph/internal/bitio"
)

// Iterator is the sequential walk of spec.md §4.H: it owns a bit
// cursor at the current vertex and a small history of recently
// decoded successor lists, deep enough to satisfy any reference a
// later vertex within window_size may make against it. A vertex's
// stored list is always fully expanded by the time a later vertex
// references it, so history lookups never recurse.
type Iterator struct {
	g       *Graph
	br      *bitio.Reader
	vertex  int64
	succ    []int64
	err     error
	history map[int64][]int64
}

// Iterator returns a fresh sequential iterator positioned before
// vertex 0.
func (g *Graph) Iterator() *Iterator {
	return &Iterator{
		g:       g,
		br:      g.newReader(),
		vertex:  -1,
		history: make(map[int64][]int64),
	}
}

// Next advances to the next vertex, decoding and caching its
// successor list. It returns false at end of graph or on decode
// failure; Err distinguishes the two.
func (it *Iterator) Next() bool {
	return it.NextContext(context.Background())
}

// NextContext is Next with cooperative cancellation: spec.md §5
// exposes cancellation as an externally checked flag around the
// iteration loop, modeled here as a context.Context check each step.
func (it *Iterator) NextContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		it.err = ctx.Err()
		return false
	}
	if it.vertex+1 >= it.g.props.Nodes {
		it.vertex = it.g.props.Nodes
		return false
	}
	it.vertex++

	resolver := func(refX int64) ([]int64, error) {
		list, ok := it.history[refX]
		if !ok {
			return nil, errorf(ErrIO, "reference to vertex %d outside decoded history", refX)
		}
		return list, nil
	}
	_, succ, err := it.g.decodeSuccessors(it.br, it.vertex, resolver)
	if err != nil {
		it.err = err
		return false
	}
	it.succ = succ
	it.history[it.vertex] = succ
	if ws := int64(it.g.props.WindowSize); ws > 0 {
		delete(it.history, it.vertex-ws-1)
	}
	return true
}

// Valid reports whether the iterator currently sits on a decoded
// vertex.
func (it *Iterator) Valid() bool {
	return it.vertex >= 0 && it.vertex < it.g.props.Nodes
}

// Successors returns the current vertex's successor list. The
// returned slice is invalidated by the next call to Next.
func (it *Iterator) Successors() []int64 { return it.succ }

// Vertex returns the id of the current vertex.
func (it *Iterator) Vertex() int64 { return it.vertex }

// Err returns the error, if any, that ended iteration early.
func (it *Iterator) Err() error { return it.err }

// RandomAccess is the random iterator of spec.md §4.H: it holds the
// graph descriptor plus a small window cache of the last window_size
// fully decoded successor lists, indexed by vertex id, and recursively
// decodes an earlier vertex on a cache miss, bounded by max_ref_count.
type RandomAccess struct {
	g          *Graph
	br         *bitio.Reader
	cache      map[int64][]int64
	cacheOrder []int64
}

// RandomAccess returns a random-access view over g. It fails with
// ErrRequiresOffsets if g was loaded with offset_step = -1.
func (g *Graph) RandomAccess() (r *RandomAccess, err error) {
	defer errRecover(&err)
	if g.offsetsDense == nil && g.offsetsEF == nil {
		return nil, errorf(ErrRequiresOffsets, "graph was loaded without offsets")
	}
	return &RandomAccess{
		g:     g,
		br:    g.newReader(),
		cache: make(map[int64][]int64),
	}, nil
}

// Outdegree reads only the out-degree field of vertex x, without
// decoding its full successor list.
func (r *RandomAccess) Outdegree(x int64) (d int64, err error) {
	defer errRecover(&err)
	if x < 0 || x >= r.g.props.Nodes {
		panicKind(ErrVertexOutOfRange, "vertex %d", x)
	}
	off, verr := r.g.vertexOffset(x)
	if verr != nil {
		panic(verr)
	}
	r.br.Seek(off)
	return int64(bitio.Decode(r.br, r.g.props.Codes.Outdegree, 0)), nil
}

// Successors returns vertex x's fully decoded, strictly increasing
// successor list.
func (r *RandomAccess) Successors(x int64) (succ []int64, err error) {
	defer errRecover(&err)
	return r.decode(x, 0), nil
}

func (r *RandomAccess) decode(x int64, depth int) []int64 {
	if x < 0 || x >= r.g.props.Nodes {
		panicKind(ErrVertexOutOfRange, "vertex %d", x)
	}
	if depth > r.g.props.MaxRefCount {
		panicKind(ErrIO, "reference chain exceeds max_ref_count at vertex %d", x)
	}
	if cached, ok := r.cache[x]; ok {
		return cached
	}

	off, err := r.g.vertexOffset(x)
	if err != nil {
		panic(err)
	}
	r.br.Seek(off)
	resolver := func(refX int64) ([]int64, error) {
		return r.decode(refX, depth+1), nil
	}
	_, succ, err := r.g.decodeSuccessors(r.br, x, resolver)
	if err != nil {
		panic(err)
	}
	r.cacheStore(x, succ)
	return succ
}

// cacheStore records x's decoded list and evicts the oldest entry once
// the cache exceeds window_size, mirroring the window cache spec.md
// §4.H describes.
func (r *RandomAccess) cacheStore(x int64, succ []int64) {
	r.cache[x] = succ
	r.cacheOrder = append(r.cacheOrder, x)
	limit := r.g.props.WindowSize
	if limit <= 0 {
		limit = 1
	}
	for len(r.cacheOrder) > limit {
		evict := r.cacheOrder[0]
		r.cacheOrder = r.cacheOrder[1:]
		delete(r.cache, evict)
	}
}
