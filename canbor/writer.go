package canbor

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/x448/float16"
)

// CBOR major types.
const (
	majorUnsigned = 0
	majorNegative = 1
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
	majorSimple   = 7
)

// Additional-information values for multi-byte arguments.
const (
	aiOneByte    = 24
	aiTwoBytes   = 25
	aiFourBytes  = 26
	aiEightBytes = 27
	aiIndefinite = 31
)

// Encode serializes v to its canonical byte sequence.
//
// Encode never fails for invariant-respecting values. A Map containing
// duplicate keys, a nil Value, or a Simple outside the four assigned values
// indicates a bug in value construction, not bad input, and panics with a
// *Error describing the violation.
func Encode(v Value) []byte {
	return AppendEncode(nil, v)
}

// AppendEncode appends the canonical encoding of v to dst and returns the
// extended slice. Same contract as Encode.
func AppendEncode(dst []byte, v Value) []byte {
	switch v := v.(type) {
	case Uint:
		return appendHead(dst, majorUnsigned, uint64(v))
	case Negative:
		return appendHead(dst, majorNegative, uint64(v))
	case Bytes:
		dst = appendHead(dst, majorBytes, uint64(len(v)))
		return append(dst, v...)
	case Text:
		dst = appendHead(dst, majorText, uint64(len(v)))
		return append(dst, v...)
	case Array:
		dst = appendHead(dst, majorArray, uint64(len(v)))
		for _, el := range v {
			dst = AppendEncode(dst, el)
		}
		return dst
	case Map:
		return appendMap(dst, v)
	case Simple:
		if v < False || v > Undefined {
			panic(NewError(KindUnexpectedType, "CANBOR-ENC-002",
				fmt.Sprintf("simple value %d is not encodable", v)))
		}
		return appendHead(dst, majorSimple, uint64(v))
	case Float:
		return appendFloat(dst, float64(v))
	case Tag:
		dst = appendHead(dst, majorTag, v.Number)
		return AppendEncode(dst, v.Content)
	case nil:
		panic(NewError(KindUnexpectedType, "CANBOR-ENC-002", "cannot encode nil Value"))
	default:
		panic(NewError(KindUnexpectedType, "CANBOR-ENC-002",
			fmt.Sprintf("cannot encode %T", v)))
	}
}

// appendMap writes a map in canonical key order. Entries are sorted by
// bytewise comparison of the keys' canonical encodings; caller-supplied order
// is never trusted.
func appendMap(dst []byte, m Map) []byte {
	type entry struct {
		key []byte
		val Value
	}
	entries := make([]entry, len(m))
	for i, p := range m {
		entries[i] = entry{key: AppendEncode(nil, p.Key), val: p.Val}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	for i := 1; i < len(entries); i++ {
		if bytes.Equal(entries[i-1].key, entries[i].key) {
			panic(NewError(KindDuplicateMapKey, "CANBOR-ENC-001",
				fmt.Sprintf("duplicate map key %#x", entries[i].key)))
		}
	}

	dst = appendHead(dst, majorMap, uint64(len(entries)))
	for _, e := range entries {
		dst = append(dst, e.key...)
		dst = AppendEncode(dst, e.val)
	}
	return dst
}

// appendHead writes the item head: major type plus the minimal-width
// encoding of arg.
func appendHead(dst []byte, major byte, arg uint64) []byte {
	switch {
	case arg < 24:
		return append(dst, major<<5|byte(arg))
	case arg <= math.MaxUint8:
		return append(dst, major<<5|aiOneByte, byte(arg))
	case arg <= math.MaxUint16:
		return append(dst, major<<5|aiTwoBytes, byte(arg>>8), byte(arg))
	case arg <= math.MaxUint32:
		return append(dst, major<<5|aiFourBytes,
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))
	default:
		return append(dst, major<<5|aiEightBytes,
			byte(arg>>56), byte(arg>>48), byte(arg>>40), byte(arg>>32),
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))
	}
}

// appendFloat writes f in the shortest of the half/single/double encodings
// that round-trips the value. All NaNs canonicalize to the half-width quiet
// NaN 0xf97e00.
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) {
		return append(dst, majorSimple<<5|aiTwoBytes, 0x7e, 0x00)
	}
	if f32 := float32(f); float64(f32) == f {
		if fitsFloat16(f32) {
			h := float16.Fromfloat32(f32).Bits()
			return append(dst, majorSimple<<5|aiTwoBytes, byte(h>>8), byte(h))
		}
		b := math.Float32bits(f32)
		return append(dst, majorSimple<<5|aiFourBytes,
			byte(b>>24), byte(b>>16), byte(b>>8), byte(b))
	}
	b := math.Float64bits(f)
	return append(dst, majorSimple<<5|aiEightBytes,
		byte(b>>56), byte(b>>48), byte(b>>40), byte(b>>32),
		byte(b>>24), byte(b>>16), byte(b>>8), byte(b))
}

// fitsFloat16 reports whether f32 converts to half precision without loss.
// Values in the subnormal half range report PrecisionUnknown and need a
// round-trip check.
func fitsFloat16(f32 float32) bool {
	switch float16.PrecisionFromfloat32(f32) {
	case float16.PrecisionExact:
		return true
	case float16.PrecisionUnknown:
		return float16.Fromfloat32(f32).Float32() == f32
	default:
		return false
	}
}
