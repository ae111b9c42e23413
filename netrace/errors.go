// Copyright 2025 The netrace Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netrace

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"

	"github.com/netrace/netrace/logger"
)

// ErrorKind classifies a reported fault, per the failure taxonomy the trace
// format's original implementation distinguished.
type ErrorKind int

const (
	// ErrIO covers pipe-open failures, short reads of the header, notes or
	// region table, and write failures in the encoder.
	ErrIO ErrorKind = iota
	// ErrFormat covers bad magic, wrong endianness, unsupported version,
	// oversized notes/region tables, and a packet record or dependency array
	// truncated mid-read.
	ErrFormat
	// ErrState covers operations invoked outside the state they require.
	ErrState
	// ErrInvariant covers missing registry nodes, reference-count underflow,
	// and read-ahead cycle overflow.
	ErrInvariant
	// ErrAlloc names allocation failures. No operation in this package
	// reports it, and no panic is recovered into a Fault.
	ErrAlloc
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "io"
	case ErrFormat:
		return "format"
	case ErrState:
		return "state"
	case ErrInvariant:
		return "invariant"
	case ErrAlloc:
		return "alloc"
	default:
		return "unknown"
	}
}

// Fault is the error type returned by every netrace operation that can
// fail.
type Fault struct {
	Kind ErrorKind
	File string
	Line int
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", f.File, f.Line, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// raise builds a Fault at the caller's source location and returns it; the
// caller decides whether and how to surface it. In a netrace_debug build it
// additionally logs a warning immediately, the way the original
// implementation's DEBUG_ON builds traced every reported error as it
// happened instead of only at the point it was finally handled.
func raise(kind ErrorKind, cause error, format string, args ...any) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "unknown", 0
	}

	msg := fmt.Sprintf(format, args...)
	var wrapped error
	if cause == nil {
		wrapped = errors.New(msg)
	} else {
		wrapped = errors.Wrap(cause, msg)
	}

	f := &Fault{
		Kind: kind,
		File: file,
		Line: line,
		Err:  wrapped,
	}

	if debugBuild {
		logger.Warnf("%s", f.Error())
	}
	return f
}
