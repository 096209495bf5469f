// Copyright 2024, The bvgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bvgraph

import (
	"fmt"
	"runtime"
)

// Error is the wrapper type for errors specific to this library,
// following the same convention as the rest of this package family:
// a bare string type, package-prefixed at the point of construction.
type Error string

func (e Error) Error() string { return "bvgraph: " + string(e) }

// ErrorKind classifies a CodecError, matching spec.md §7's error kinds.
type ErrorKind int

const (
	ErrOutOfMemory ErrorKind = iota
	ErrIO
	ErrUnsupported
	ErrFilenameTooLong
	ErrBufferTooSmall
	ErrPropertyFile
	ErrUnsupportedVersion
	ErrCompressionFlag
	ErrVertexOutOfRange
	ErrRequiresOffsets
	ErrUnsupportedCoding
	ErrOutOfBound
	ErrSpillTooSmall
	ErrBatchNondecreasing
	ErrClosed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfMemory:
		return "out_of_memory"
	case ErrIO:
		return "io"
	case ErrUnsupported:
		return "unsupported"
	case ErrFilenameTooLong:
		return "filename_too_long"
	case ErrBufferTooSmall:
		return "buffer_too_small"
	case ErrPropertyFile:
		return "property_file_error"
	case ErrUnsupportedVersion:
		return "unsupported_version"
	case ErrCompressionFlag:
		return "compression_flag_error"
	case ErrVertexOutOfRange:
		return "vertex_out_of_range"
	case ErrRequiresOffsets:
		return "requires_offsets"
	case ErrUnsupportedCoding:
		return "unsupported_coding"
	case ErrOutOfBound:
		return "out_of_bound"
	case ErrSpillTooSmall:
		return "spill_too_small"
	case ErrBatchNondecreasing:
		return "batch_nondecreasing"
	case ErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CodecError is the typed error returned by load- and decode-time
// failures, carrying an ErrorKind so callers can distinguish e.g.
// vertex_out_of_range from a truncated stream the way spec.md §7
// requires. Call sites within the package throw it via panicKind, and
// errRecover turns it back into a returned error.
type CodecError struct {
	Kind ErrorKind
	Msg  string
}

func (e *CodecError) Error() string {
	if e.Msg == "" {
		return "bvgraph: " + e.Kind.String()
	}
	return "bvgraph: " + e.Kind.String() + ": " + e.Msg
}

func errorf(kind ErrorKind, format string, args ...interface{}) error {
	return &CodecError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func panicKind(kind ErrorKind, format string, args ...interface{}) {
	panic(&CodecError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// errRecover is deferred at the boundary of every public entry point,
// the same convention bzip2.errRecover/brotli.errRecover use: it turns
// a panic((error)) into a returned error while letting a genuine
// runtime.Error (a bug, not corrupt input) continue unwinding.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}
