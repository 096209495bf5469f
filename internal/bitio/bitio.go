// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitio implements a big-endian bit-level cursor over a byte
// buffer or file, plus the universal integer codes used to decode a
// BV-format graph stream: unary, γ, δ, ζ_k, nibble, and minimal binary.
package bitio

import (
	"io"
	"math/bits"
	"os"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "bitio: " + string(e) }

var (
	// ErrEOF indicates that the underlying source was exhausted mid-read.
	ErrEOF error = Error("unexpected end of bit stream")
)

// byteSource abstracts a random-access byte source: either an in-memory
// buffer or a file opened with ReadAt semantics.
type byteSource interface {
	// readAt fills buf starting at byte offset off, returning the number
	// of bytes copied. It never returns more than len(buf) bytes and it
	// signals exhaustion with io.EOF the same way io.ReaderAt does.
	readAt(buf []byte, off int64) (int, error)
	// size reports the known length in bytes, or -1 if unknown (a live
	// file whose length isn't tracked).
	size() int64
}

type memSource []byte

func (m memSource) readAt(buf []byte, off int64) (int, error) {
	if off >= int64(len(m)) {
		return 0, io.EOF
	}
	n := copy(buf, m[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (m memSource) size() int64 { return int64(len(m)) }

type fileSource struct {
	f    *os.File
	sz   int64
}

func (s *fileSource) readAt(buf []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(buf, off)
	if err == io.EOF && n > 0 {
		return n, io.EOF
	}
	return n, err
}

func (s *fileSource) size() int64 { return s.sz }

// Reader is a big-endian bit-level cursor: bit 0 of byte 0 is read
// first, and within a byte the most-significant bit comes first. It is
// modeled on the teacher's buffered bit-cache design (feed 64 bits at a
// time, shift off the bits already consumed), adapted from
// least-significant-first to most-significant-first consumption order
// since BV graph files pack bits the way bzip2 does, not the way
// DEFLATE does.
type Reader struct {
	src  byteSource
	pos  int64 // absolute bit position of the next unread bit
	buf  uint64
	nbuf uint // number of valid bits in buf, left-justified
}

// NewReader returns a Reader over an in-memory byte buffer. The buffer
// is not copied and must not be mutated while the Reader is in use.
func NewReader(b []byte) *Reader {
	return &Reader{src: memSource(b)}
}

// NewFileReader returns a Reader over a file opened for random access.
// size is the file's byte length.
func NewFileReader(f *os.File, size int64) *Reader {
	return &Reader{src: &fileSource{f: f, sz: size}}
}

// Tell reports the current absolute bit position.
func (r *Reader) Tell() int64 { return r.pos }

// Seek sets the absolute bit position, discarding any buffered bits.
func (r *Reader) Seek(pos int64) {
	r.pos = pos
	r.buf = 0
	r.nbuf = 0
}

// fill tops up the internal cache so that it holds at least nb bits,
// panicking with ErrEOF if the source is exhausted first. It reads one
// byte at a time, the way flate.bitReader.FeedBits falls back to
// ReadByte when no bufio.Reader is available underneath; the first
// byte of a fill may be partially consumed already (pos need not be
// byte-aligned), every subsequent byte lines up on a byte boundary.
func (r *Reader) fill(nb uint) {
	var b [1]byte
	for r.nbuf < nb {
		bitIdx := r.pos + int64(r.nbuf)
		n, _ := r.src.readAt(b[:], bitIdx/8)
		if n == 0 {
			panic(ErrEOF)
		}
		skip := uint(bitIdx % 8)
		avail := 8 - skip       // unconsumed bits remaining in this byte
		take := avail           // bits we can fit into buf this round
		if cap := 64 - r.nbuf; take > cap {
			take = cap
		}
		val := (uint64(b[0]) & (1<<avail - 1)) >> (avail - take)
		r.buf |= val << (64 - r.nbuf - take)
		r.nbuf += take
	}
}

// ReadBit reads a single bit, 0 or 1.
func (r *Reader) ReadBit() uint {
	return uint(r.ReadBits(1))
}

// ReadBits reads k bits (1 <= k <= 64) MSB-first and returns them
// right-justified in the result.
func (r *Reader) ReadBits(k uint) uint64 {
	if k == 0 {
		return 0
	}
	if k > 64 {
		panic(Error("bit width exceeds 64"))
	}
	var val uint64
	remaining := k
	for remaining > 0 {
		if r.nbuf == 0 {
			r.fill(1)
		}
		take := remaining
		if take > r.nbuf {
			take = r.nbuf
		}
		chunk := r.buf >> (64 - take)
		val = (val << take) | chunk
		r.buf <<= take
		r.nbuf -= take
		r.pos += int64(take)
		remaining -= take
	}
	return val
}

// ReadUnary returns the count of leading zero bits up to and not
// including the terminating one bit.
func (r *Reader) ReadUnary() uint64 {
	var n uint64
	for {
		if r.nbuf == 0 {
			r.fill(1)
		}
		// Scan the buffered bits for the first 1.
		if r.buf == 0 {
			n += uint64(r.nbuf)
			r.pos += int64(r.nbuf)
			r.nbuf = 0
			continue
		}
		lead := uint(bits.LeadingZeros64(r.buf))
		if lead >= r.nbuf {
			n += uint64(r.nbuf)
			r.pos += int64(r.nbuf)
			r.nbuf = 0
			continue
		}
		n += uint64(lead)
		// Consume the leading zeros and the terminating one bit.
		r.buf <<= lead + 1
		r.pos += int64(lead + 1)
		r.nbuf -= lead + 1
		return n
	}
}
