// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package testutil

import (
	"bytes"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBin = regexp.MustCompile(`^[01]{1,64}$`)
	reDec = regexp.MustCompile(`^D[0-9]+:[0-9]+$`)
	reHex = regexp.MustCompile(`^H[0-9]+:[0-9a-fA-F]{1,16}$`)
	reRaw = regexp.MustCompile(`^X:[0-9a-fA-F]+$`)
	reQnt = regexp.MustCompile(`[*][0-9]+$`)
)

// DecodeBitGen decodes a BitGen formatted string into a byte slice.
// This is a BV-only reduction of the dual little/big-endian mini
// language used for authoring compression test fixtures elsewhere:
// since every BV stream packs bits most-significant-bit-first, there
// is no packing-mode header and no per-token endianness decorator to
// choose between.
//
// Tokens are separated by whitespace; '#' starts a line comment.
//
//   - "[01]{1,64}"     a literal bit-string, left-most bit written first
//   - "Dn:v" / "Hn:v"  an n-bit decimal or hex value, MSB first
//   - "X:hex"          literal bytes (the stream must be byte-aligned here)
//   - a trailing "*n" on any token repeats it n times
//
// The result is padded with 0 bits up to the next byte boundary.
//
// Example:
//
//	D5:2 H3:5 1111*2 X:ff
func DecodeBitGen(str string) ([]byte, error) {
	var toks []string
	for _, line := range strings.Split(str, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		toks = append(toks, strings.Fields(line)...)
	}

	var bw msbBitBuffer
	for _, t := range toks {
		rep := 1
		if reQnt.MatchString(t) {
			i := strings.LastIndexByte(t, '*')
			tt, tn := t[:i], t[i+1:]
			n, err := strconv.Atoi(tn)
			if err != nil {
				return nil, errors.New("testutil: invalid quantified token: " + t)
			}
			t, rep = tt, n
		}

		switch {
		case reBin.MatchString(t):
			var v uint64
			for _, b := range t {
				v = v<<1 | uint64(b-'0')
			}
			for i := 0; i < rep; i++ {
				bw.WriteBits(v, uint(len(t)))
			}
		case reDec.MatchString(t) || reHex.MatchString(t):
			i := strings.IndexByte(t, ':')
			tb, tn, tv := t[0], t[1:i], t[i+1:]
			base := 10
			if tb == 'H' {
				base = 16
			}
			n, err1 := strconv.Atoi(tn)
			v, err2 := strconv.ParseUint(tv, base, 64)
			if err1 != nil || err2 != nil || n > 64 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			if n < 64 && v>>uint(n) != 0 {
				return nil, errors.New("testutil: integer overflow on token: " + t)
			}
			for i := 0; i < rep; i++ {
				bw.WriteBits(v, uint(n))
			}
		case reRaw.MatchString(t):
			b, err := hex.DecodeString(t[2:])
			if err != nil {
				return nil, errors.New("testutil: invalid raw bytes token: " + t)
			}
			b = bytes.Repeat(b, rep)
			if err := bw.WriteBytes(b); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}
	}
	return bw.Bytes(), nil
}

// msbBitBuffer packs bits most-significant-bit-first into a byte
// slice: the one bit order a BV stream ever uses.
type msbBitBuffer struct {
	b    []byte
	nbit uint // bits used in the final byte; 0 means byte-aligned
}

func (w *msbBitBuffer) WriteBits(v uint64, n uint) {
	for i := n; i > 0; i-- {
		if w.nbit == 0 {
			w.b = append(w.b, 0)
		}
		bit := byte((v >> (i - 1)) & 1)
		w.b[len(w.b)-1] |= bit << (7 - w.nbit)
		w.nbit = (w.nbit + 1) % 8
	}
}

func (w *msbBitBuffer) WriteBytes(b []byte) error {
	if w.nbit != 0 {
		return errors.New("testutil: unaligned write")
	}
	w.b = append(w.b, b...)
	return nil
}

func (w *msbBitBuffer) Bytes() []byte { return w.b }
