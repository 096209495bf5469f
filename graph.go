// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"os"

	"github.com/dsnet/bvgraph/internal/bitio"
	"github.com/dsnet/bvgraph/internal/eliasfano"
)

// Graph is an immutable, loaded BV-format graph descriptor. It owns
// (depending on the offset_step given to Load) an in-memory copy of
// the .graph payload or an open file handle to it, plus an optional
// offsets representation: nil (sequential-only), a dense []uint64, or
// a compact *eliasfano.List.
type Graph struct {
	props *Properties

	graphBuf  []byte
	graphFile *os.File
	graphSize int64

	offsetsDense []uint64
	offsetsEF    *eliasfano.List

	basePath string
	closed   bool
}

// MemoryEstimate reports the byte cost of each buffer a given
// offset_step would require, per spec.md §5's memory sizing contract.
type MemoryEstimate struct {
	GraphBytes   int64
	OffsetsBytes int64
	EFBytes      int64
}

// Total returns the sum of every buffer this estimate accounts for.
func (m MemoryEstimate) Total() int64 {
	return m.GraphBytes + m.OffsetsBytes + m.EFBytes
}

// Load opens "<basePath>.properties" and, depending on offsetStep,
// "<basePath>.graph" and "<basePath>.offsets", per spec.md §6's load
// policy:
//
//	-1   metadata only; .graph stays on disk; no offsets
//	<-1  .graph stays on disk; build an Elias-Fano offset index
//	 0   load .graph fully into memory; no offsets (sequential only)
//	 1   load .graph; load dense 64-bit offsets
//	 2   load .graph; build an Elias-Fano offset index
//	>2   load .graph; dense offsets if 8n bytes fit offsetStep, else EF
func Load(basePath string, offsetStep int) (g *Graph, err error) {
	defer errRecover(&err)

	props, err := LoadProperties(basePath)
	if err != nil {
		return nil, err
	}

	graphPath := basePath + ".graph"
	f, err := os.Open(graphPath)
	if err != nil {
		return nil, errorf(ErrIO, "%v", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errorf(ErrIO, "%v", err)
	}
	size := info.Size()

	g = &Graph{props: props, basePath: basePath, graphFile: f, graphSize: size}

	keepOnDisk := offsetStep == -1 || offsetStep < -1
	if !keepOnDisk {
		buf := make([]byte, size)
		if _, err := readFullAt(f, buf, 0); err != nil {
			f.Close()
			return nil, errorf(ErrIO, "%v", err)
		}
		g.graphBuf = buf
		f.Close()
		g.graphFile = nil
	}

	switch {
	case offsetStep == -1:
		// Metadata only: no offsets, random access unsupported.
	case offsetStep < -1:
		ef, err := g.buildEFOffsets()
		if err != nil {
			g.Close()
			return nil, err
		}
		g.offsetsEF = ef
	case offsetStep == 0:
		// Sequential only.
	case offsetStep == 1:
		dense, err := g.loadDenseOffsets()
		if err != nil {
			g.Close()
			return nil, err
		}
		g.offsetsDense = dense
	case offsetStep == 2:
		ef, err := g.buildEFOffsets()
		if err != nil {
			g.Close()
			return nil, err
		}
		g.offsetsEF = ef
	default: // offsetStep > 2
		denseBytes := 8 * g.props.Nodes
		if denseBytes <= int64(offsetStep) {
			dense, err := g.loadDenseOffsets()
			if err != nil {
				g.Close()
				return nil, err
			}
			g.offsetsDense = dense
		} else {
			ef, err := g.buildEFOffsets()
			if err != nil {
				g.Close()
				return nil, err
			}
			g.offsetsEF = ef
		}
	}
	return g, nil
}

func readFullAt(f *os.File, buf []byte, off int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.ReadAt(buf[total:], off+int64(total))
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// offsetsUpperBound is the bit-offset ceiling used when building the
// Elias-Fano offsets index: the graph file's own length in bits when it
// is known, otherwise spec.md §3's "0 <= off < bits_per_link*m + O(1)"
// invariant, taken as bits_per_link*m + 64.
func (g *Graph) offsetsUpperBound() int64 {
	if g.graphSize > 0 {
		return g.graphSize * 8
	}
	u := int64(g.props.BitsPerLink*float64(g.props.Arcs)) + 64
	if u < 0 {
		u = 0
	}
	return u
}

// loadDenseOffsets reads "<basePath>.offsets" (n gamma-coded deltas)
// and prefix-sums them into a dense []uint64.
func (g *Graph) loadDenseOffsets() ([]uint64, error) {
	data, err := os.ReadFile(g.basePath + ".offsets")
	if err != nil {
		return nil, errorf(ErrIO, "%v", err)
	}
	br := bitio.NewReader(data)
	out := make([]uint64, g.props.Nodes)
	var acc uint64
	for i := range out {
		acc += bitio.Gamma(br)
		out[i] = acc
	}
	return out, nil
}

// buildEFOffsets reads "<basePath>.offsets" and builds a compact
// Elias-Fano index over the prefix-summed deltas.
func (g *Graph) buildEFOffsets() (*eliasfano.List, error) {
	data, err := os.ReadFile(g.basePath + ".offsets")
	if err != nil {
		return nil, errorf(ErrIO, "%v", err)
	}
	br := bitio.NewReader(data)
	b := eliasfano.NewBuilder(g.props.Nodes, g.offsetsUpperBound())
	var acc uint64
	for i := int64(0); i < g.props.Nodes; i++ {
		acc += bitio.Gamma(br)
		if err := b.Add(acc); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Close releases every internally allocated buffer and file handle.
// Calling Close twice returns ErrClosed instead of panicking, since a
// double close is a discoverable caller bug rather than data
// corruption.
func (g *Graph) Close() error {
	if g.closed {
		return errorf(ErrClosed, "graph already closed")
	}
	g.closed = true
	g.graphBuf = nil
	g.offsetsDense = nil
	g.offsetsEF = nil
	if g.graphFile != nil {
		err := g.graphFile.Close()
		g.graphFile = nil
		if err != nil {
			return errorf(ErrIO, "%v", err)
		}
	}
	return nil
}

// Properties returns the parsed metadata this graph was loaded with.
func (g *Graph) Properties() *Properties { return g.props }

// newReader returns a fresh bit cursor over the graph payload,
// positioned at bit 0, backed by whichever storage Load chose.
func (g *Graph) newReader() *bitio.Reader {
	if g.graphBuf != nil {
		return bitio.NewReader(g.graphBuf)
	}
	return bitio.NewFileReader(g.graphFile, g.graphSize)
}

// vertexOffset returns the bit offset of vertex x within the graph
// stream, per spec.md §4.H's offset(x).
func (g *Graph) vertexOffset(x int64) (int64, error) {
	switch {
	case g.offsetsDense != nil:
		return int64(g.offsetsDense[x]), nil
	case g.offsetsEF != nil:
		v, err := g.offsetsEF.Lookup(x)
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	default:
		return 0, errorf(ErrRequiresOffsets, "graph was loaded without offsets")
	}
}

// RequiredMemory reports the byte cost Load(basePath, offsetStep)
// would incur, computed purely from already-parsed Properties: the
// memory sizing contract of spec.md §5, exposed without performing a
// load.
func (g *Graph) RequiredMemory(offsetStep int) (MemoryEstimate, error) {
	return RequiredMemory(g.props, offsetStep)
}

// RequiredMemory computes the same estimate as Graph.RequiredMemory
// but from a standalone Properties record (e.g. one obtained via
// LoadProperties alone), so callers can size buffers before opening
// the .graph file at all.
func RequiredMemory(props *Properties, offsetStep int) (MemoryEstimate, error) {
	graphBytes := int64(0)
	loadsGraph := !(offsetStep == -1 || offsetStep < -1)
	if loadsGraph {
		graphBytes = (int64(props.BitsPerLink*float64(props.Arcs)) + 7) / 8
	}

	var est MemoryEstimate
	est.GraphBytes = graphBytes

	u := graphBytes * 8
	switch {
	case offsetStep == -1:
	case offsetStep < -1:
		est.EFBytes = estimateEFBytes(props.Nodes, u)
	case offsetStep == 0:
	case offsetStep == 1:
		est.OffsetsBytes = 8 * props.Nodes
	case offsetStep == 2:
		est.EFBytes = estimateEFBytes(props.Nodes, u)
	default:
		dense := 8 * props.Nodes
		if dense <= int64(offsetStep) {
			est.OffsetsBytes = dense
		} else {
			est.EFBytes = estimateEFBytes(props.Nodes, u)
		}
	}
	return est, nil
}

// estimateEFBytes mirrors the Elias-Fano space bound of spec.md §4.D
// ("at most n*(2 + ceil(log2(u/n))) bits") plus the select1 inventory
// array's fixed per-block overhead from §4.E, converted to bytes.
func estimateEFBytes(n, u int64) int64 {
	if n <= 0 {
		return 0
	}
	s := uint(0)
	if ratio := (u + 1) / n; ratio >= 1 {
		for (int64(1) << (s + 1)) <= ratio {
			s++
		}
	}
	lowerBits := n * int64(s)
	upperLen := n + (u >> s) + 1
	bits := lowerBits + upperLen

	onesPerInv := int64(1)
	if upperLen > 0 {
		target := (n*8192 + upperLen - 1) / upperLen
		if target < 1 {
			target = 1
		}
		p := int64(1)
		for p*2 <= target {
			p *= 2
		}
		onesPerInv = p
	}
	numBlocks := (n + onesPerInv - 1) / onesPerInv
	invBytes := (numBlocks + 1) * 8

	return (bits+7)/8 + invBytes
}

// Stats computes the dangling-node and self-loop counts a sequential
// pass over the whole graph yields, the spec.md §8 property 7
// companion the component table doesn't name but the testable
// properties require.
func (g *Graph) Stats() (dangling, selfLoops int64, err error) {
	defer errRecover(&err)

	it := g.Iterator()
	for it.Next() {
		x := it.vertex
		succ := it.Successors()
		if len(succ) == 0 {
			dangling++
		}
		for _, s := range succ {
			if s == x {
				selfLoops++
			}
		}
	}
	return dangling, selfLoops, nil
}
