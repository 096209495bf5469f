// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/bvgraph/internal/bitio"
)

// Default field values, per spec.md §3.
const (
	defaultZetaK             = 3
	defaultWindowSize        = 7
	defaultMinIntervalLength = 3
	defaultMaxRefCount       = 3
)

// FieldCodes records which universal code each variable-width field of
// a BV stream uses, selectable independently per spec.md §4.F.
type FieldCodes struct {
	Outdegree    bitio.Code
	References   bitio.Code
	Blocks       bitio.Code
	BlockCount   bitio.Code
	Intervals    bitio.Code
	IntervalLeft bitio.Code
	IntervalLen  bitio.Code
	Residuals    bitio.Code
	Offsets      bitio.Code
}

func defaultFieldCodes() FieldCodes {
	return FieldCodes{
		Outdegree:    bitio.CodeGamma,
		References:   bitio.CodeUnary,
		Blocks:       bitio.CodeGamma,
		BlockCount:   bitio.CodeGamma,
		Intervals:    bitio.CodeGamma,
		IntervalLeft: bitio.CodeGamma,
		IntervalLen:  bitio.CodeGamma,
		Residuals:    bitio.CodeZeta,
		Offsets:      bitio.CodeGamma,
	}
}

// Properties is the parsed configuration record for a BV graph,
// spec.md §3's "Graph metadata" attributes.
type Properties struct {
	Nodes             int64
	Arcs              int64
	WindowSize        int
	MaxRefCount       int
	MinIntervalLength int
	ZetaK             int
	BitsPerLink       float64
	Version           int
	Codes             FieldCodes
}

// supportedVersion is the only graph-file version this reader
// understands; anything else fails with ErrUnsupportedVersion.
const supportedVersion = 0

// ParseProperties reads a BV .properties file: one key=value pair per
// line, '#' starts a comment, keys case-insensitive. This parser is
// deliberately minimal — spec.md names a properties reader as an
// external collaborator, but bvgraph cannot open a real graph without
// one, so a small bufio.Scanner-based reader is absorbed here rather
// than left as a missing dependency (see DESIGN.md).
func ParseProperties(r io.Reader) (*Properties, error) {
	raw := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			return nil, errorf(ErrPropertyFile, "malformed line %q", line)
		}
		key := strings.ToLower(strings.TrimSpace(line[:i]))
		val := strings.TrimSpace(line[i+1:])
		raw[key] = val
	}
	if err := sc.Err(); err != nil {
		return nil, errorf(ErrIO, "%v", err)
	}

	p := &Properties{
		WindowSize:        defaultWindowSize,
		MaxRefCount:       defaultMaxRefCount,
		MinIntervalLength: defaultMinIntervalLength,
		ZetaK:             defaultZetaK,
		Codes:             defaultFieldCodes(),
	}

	if v, ok := raw["nodes"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, errorf(ErrPropertyFile, "invalid nodes=%q", v)
		}
		p.Nodes = n
	}
	if v, ok := raw["arcs"]; ok {
		m, err := strconv.ParseInt(v, 10, 64)
		if err != nil || m < 0 {
			return nil, errorf(ErrPropertyFile, "invalid arcs=%q", v)
		}
		p.Arcs = m
	}
	if v, ok := raw["windowsize"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errorf(ErrPropertyFile, "invalid windowsize=%q", v)
		}
		p.WindowSize = n
	}
	if v, ok := raw["maxrefcount"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errorf(ErrPropertyFile, "invalid maxrefcount=%q", v)
		}
		p.MaxRefCount = n
	}
	if v, ok := raw["minintervallength"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errorf(ErrPropertyFile, "invalid minintervallength=%q", v)
		}
		p.MinIntervalLength = n
	}
	if v, ok := raw["zetak"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errorf(ErrPropertyFile, "invalid zetak=%q", v)
		}
		p.ZetaK = n
	}
	if v, ok := raw["bitsperlink"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errorf(ErrPropertyFile, "invalid bitsperlink=%q", v)
		}
		p.BitsPerLink = f
	}
	if v, ok := raw["version"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errorf(ErrPropertyFile, "invalid version=%q", v)
		}
		p.Version = n
	}
	if p.Version != supportedVersion {
		return nil, errorf(ErrUnsupportedVersion, "version %d", p.Version)
	}

	if v, ok := raw["compressionflags"]; ok {
		if err := p.Codes.parseFlags(v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// LoadProperties reads and parses "<basePath>.properties".
func LoadProperties(basePath string) (*Properties, error) {
	f, err := os.Open(basePath + ".properties")
	if err != nil {
		return nil, errorf(ErrIO, "%v", err)
	}
	defer f.Close()
	return ParseProperties(f)
}

// parseFlags parses a compressionflags value: a whitespace- or
// '|'-separated list of FIELD_CODE tokens, per spec.md §4.F.
func (fc *FieldCodes) parseFlags(s string) error {
	toks := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t'
	})
	for _, tok := range toks {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		i := strings.LastIndexByte(tok, '_')
		if i < 0 {
			return errorf(ErrCompressionFlag, "malformed token %q", tok)
		}
		field, codeName := tok[:i], tok[i+1:]
		code, err := parseCodeName(codeName)
		if err != nil {
			return err
		}
		switch field {
		case "OUTDEGREES":
			fc.Outdegree = code
		case "REFERENCES", "REFERENCE":
			fc.References = code
		case "BLOCKS":
			fc.Blocks = code
		case "BLOCK_COUNT":
			fc.BlockCount = code
		case "INTERVALS":
			fc.Intervals = code
		case "INTERVAL_COUNT":
			// Interval count shares the INTERVALS token family in some
			// BV properties files; treat it as the interval-count code.
			fc.Intervals = code
		case "RESIDUALS":
			fc.Residuals = code
		case "OFFSETS":
			fc.Offsets = code
		default:
			return errorf(ErrCompressionFlag, "unknown field %q", field)
		}
	}
	return nil
}

func parseCodeName(name string) (bitio.Code, error) {
	switch strings.ToUpper(name) {
	case "GAMMA":
		return bitio.CodeGamma, nil
	case "DELTA":
		return bitio.CodeDelta, nil
	case "ZETA":
		return bitio.CodeZeta, nil
	case "UNARY":
		return bitio.CodeUnary, nil
	case "NIBBLE":
		return bitio.CodeNibble, nil
	default:
		return bitio.CodeUnknown, errorf(ErrCompressionFlag, "unknown code %q", name)
	}
}
