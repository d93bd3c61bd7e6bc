package canbor

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions. Callers
// should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindUnexpectedType       Kind = "UnexpectedType"
	KindNonCanonical         Kind = "NonCanonicalEncoding"
	KindDuplicateMapKey      Kind = "DuplicateMapKey"
	KindUnknownField         Kind = "UnknownField"
	KindMissingRequiredField Kind = "MissingRequiredField"
	KindIntegerOverflow      Kind = "IntegerOverflow"
	KindDepthExceeded        Kind = "DepthExceeded"
	KindTrailingBytes        Kind = "TrailingBytes"
	KindCustom               Kind = "Custom"
)

// Error is the structured error type shared by the decoder and the mapping
// layer. The encoder never returns one: encode-time faults are programming
// errors and surface as a panic carrying an *Error.
//
// RuleID is a stable identifier (e.g., CANBOR-STR-002, CANBOR-CANON-004)
// that names the violated canonical rule or mapping policy.
//
// Offset is the byte offset in the input at which the violation was
// detected, or -1 when no offset applies. Field names the struct field or
// map key involved when the failure comes from the mapping layer.
type Error struct {
	Kind    Kind
	RuleID  string
	Offset  int
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Field != "" && e.Offset >= 0:
		return fmt.Sprintf("%s (field %q, byte %d)", e.Message, e.Field, e.Offset)
	case e.Field != "":
		return fmt.Sprintf("%s (field %q)", e.Message, e.Field)
	case e.Offset >= 0:
		return fmt.Sprintf("%s (byte %d)", e.Message, e.Offset)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a structured error with no positional context.
// It is exported for the mapping layer; decode paths use the offset-carrying
// constructors below.
func NewError(kind Kind, ruleID, msg string) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Offset: -1, Message: msg}
}

// WrapError attaches a cause to a structured error.
func WrapError(kind Kind, ruleID, msg string, cause error) *Error {
	e := NewError(kind, ruleID, msg)
	e.Cause = cause
	return e
}

func decodeError(kind Kind, ruleID string, offset int, msg string) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Offset: offset, Message: msg}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
