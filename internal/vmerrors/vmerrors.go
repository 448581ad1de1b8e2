// Package vmerrors defines the error taxonomy returned by the orizonvm
// public API: BadAddr, BadPerm, OutOfMemory, Duplicate and IoError.
package vmerrors

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which of the five non-Ok outcomes an Error represents.
type Kind string

const (
	KindBadAddr     Kind = "BadAddr"
	KindBadPerm     Kind = "BadPerm"
	KindOutOfMemory Kind = "OutOfMemory"
	KindDuplicate   Kind = "Duplicate"
	KindIoError     Kind = "IoError"
)

// Sentinel values for use with errors.Is. Their Op and Context are empty;
// Is compares by Kind only, ignoring the call-site detail carried by a
// concrete *Error.
var (
	ErrBadAddr     = &Error{Kind: KindBadAddr}
	ErrBadPerm     = &Error{Kind: KindBadPerm}
	ErrOutOfMemory = &Error{Kind: KindOutOfMemory}
	ErrDuplicate   = &Error{Kind: KindDuplicate}
	ErrIoError     = &Error{Kind: KindIoError}
)

// Error is the concrete error type returned by every fallible orizonvm
// operation. Op names the failing operation (e.g. "MapPage"); Context
// carries whatever identifying detail applies (vaddr, asid, slot).
type Error struct {
	Kind    Kind
	Op      string
	Context map[string]any
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Context[k])
		}

		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same Kind, so callers can
// write errors.Is(err, vmerrors.ErrOutOfMemory) regardless of Op/Context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

func newError(kind Kind, op string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Context: ctx}
}

// BadAddr reports that a named virtual address, address space or PTE does
// not exist.
func BadAddr(op string, ctx map[string]any) error { return newError(KindBadAddr, op, ctx) }

// BadPerm reports that an entry exists but the requested access or
// privilege level is denied.
func BadPerm(op string, ctx map[string]any) error { return newError(KindBadPerm, op, ctx) }

// OutOfMemory reports that no frame could be made available even after
// attempting eviction.
func OutOfMemory(op string, ctx map[string]any) error { return newError(KindOutOfMemory, op, ctx) }

// Duplicate reports that an allocation would overwrite an existing mapping.
func Duplicate(op string, ctx map[string]any) error { return newError(KindDuplicate, op, ctx) }

// IoError reports that a swap read or write returned a short count or an OS
// error. cause, when non-nil, is preserved and reachable via errors.Unwrap.
func IoError(op string, ctx map[string]any, cause error) error {
	e := newError(KindIoError, op, ctx)
	e.Err = cause

	return e
}
