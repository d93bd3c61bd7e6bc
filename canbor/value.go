// Package canbor implements the canonical subset of CBOR (RFC 8949) used for
// content addressing and signing.
//
// Only definite-length items, minimal-width integers, shortest-form floats,
// and bytewise-sorted map keys are representable on the wire. Encoding the
// same logical value on any conforming implementation yields identical bytes;
// the decoder rejects every input that is not itself the unique canonical
// encoding of the value it represents.
package canbor

import "math"

// Value is the in-memory representation of a CBOR-expressible datum.
//
// Values are plain data: fully materialized before encoding, immutable once
// built, and safe to share across goroutines.
type Value interface {
	isValue()
}

// Uint is an unsigned integer (major type 0).
type Uint uint64

// Negative is a negative integer (major type 1). It stores the magnitude of
// the integer minus one, per CBOR convention: Negative(n) represents -(n+1).
type Negative uint64

// Bytes is a byte string (major type 2).
type Bytes []byte

// Text is a UTF-8 text string (major type 3).
type Text string

// Array is an ordered sequence of values (major type 4). Element order is
// significant and never reordered.
type Array []Value

// Pair is a single map entry.
type Pair struct {
	Key Value
	Val Value
}

// Map is a sequence of key/value pairs (major type 5).
//
// The encoder sorts entries into canonical key order itself and never trusts
// the order supplied here. Duplicate keys are a programming error: Encode
// panics on them rather than producing ambiguous bytes.
type Map []Pair

// Simple is a CBOR simple value (major type 7). Only the four assigned
// values below are representable.
type Simple uint8

const (
	False     Simple = 20
	True      Simple = 21
	Null      Simple = 22
	Undefined Simple = 23
)

// Float is a floating-point number (major type 7). On the wire it uses the
// shortest of the half/single/double encodings that round-trips the value.
type Float float64

// Tag wraps a value with a semantic tag number (major type 6).
type Tag struct {
	Number  uint64
	Content Value
}

func (Uint) isValue()     {}
func (Negative) isValue() {}
func (Bytes) isValue()    {}
func (Text) isValue()     {}
func (Array) isValue()    {}
func (Map) isValue()      {}
func (Simple) isValue()   {}
func (Float) isValue()    {}
func (Tag) isValue()      {}

// Int returns the Value for a signed integer.
func Int(i int64) Value {
	if i >= 0 {
		return Uint(uint64(i))
	}
	return Negative(uint64(-(i + 1)))
}

// Bool returns True or False.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewTag returns content wrapped with the given tag number.
func NewTag(number uint64, content Value) Value {
	return Tag{Number: number, Content: content}
}

// Equal reports whether two values are structurally equal.
//
// Maps compare entry-for-entry in order; two maps holding the same entries in
// different orders are not equal (canonical maps are always sorted, so decoded
// values never differ in order only). Floats compare by bit pattern, so NaN
// equals NaN.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Uint:
		bv, ok := b.(Uint)
		return ok && a == bv
	case Negative:
		bv, ok := b.(Negative)
		return ok && a == bv
	case Bytes:
		bv, ok := b.(Bytes)
		if !ok || len(a) != len(bv) {
			return false
		}
		for i := range a {
			if a[i] != bv[i] {
				return false
			}
		}
		return true
	case Text:
		bv, ok := b.(Text)
		return ok && a == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(a) != len(bv) {
			return false
		}
		for i := range a {
			if !Equal(a[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(a) != len(bv) {
			return false
		}
		for i := range a {
			if !Equal(a[i].Key, bv[i].Key) || !Equal(a[i].Val, bv[i].Val) {
				return false
			}
		}
		return true
	case Simple:
		bv, ok := b.(Simple)
		return ok && a == bv
	case Float:
		bv, ok := b.(Float)
		return ok && math.Float64bits(float64(a)) == math.Float64bits(float64(bv))
	case Tag:
		bv, ok := b.(Tag)
		return ok && a.Number == bv.Number && Equal(a.Content, bv.Content)
	case nil:
		return b == nil
	default:
		return false
	}
}
