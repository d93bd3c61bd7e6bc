package canbor

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Diagnostic renders v in CBOR diagnostic notation (RFC 8949 §8).
//
// The output is for humans and tooling; it is not an interchange format and
// carries no canonical guarantees of its own.
func Diagnostic(v Value) string {
	var sb strings.Builder
	writeDiag(&sb, v)
	return sb.String()
}

func writeDiag(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case Uint:
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	case Negative:
		if uint64(v) == math.MaxUint64 {
			// -(2^64): magnitude overflows uint64 arithmetic.
			sb.WriteString("-18446744073709551616")
			return
		}
		sb.WriteString("-")
		sb.WriteString(strconv.FormatUint(uint64(v)+1, 10))
	case Bytes:
		sb.WriteString("h'")
		sb.WriteString(hex.EncodeToString(v))
		sb.WriteString("'")
	case Text:
		sb.WriteString(strconv.Quote(string(v)))
	case Array:
		sb.WriteString("[")
		for i, el := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeDiag(sb, el)
		}
		sb.WriteString("]")
	case Map:
		sb.WriteString("{")
		for i, p := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeDiag(sb, p.Key)
			sb.WriteString(": ")
			writeDiag(sb, p.Val)
		}
		sb.WriteString("}")
	case Simple:
		switch v {
		case False:
			sb.WriteString("false")
		case True:
			sb.WriteString("true")
		case Null:
			sb.WriteString("null")
		case Undefined:
			sb.WriteString("undefined")
		default:
			sb.WriteString("simple(")
			sb.WriteString(strconv.FormatUint(uint64(v), 10))
			sb.WriteString(")")
		}
	case Float:
		writeDiagFloat(sb, float64(v))
	case Tag:
		sb.WriteString(strconv.FormatUint(v.Number, 10))
		sb.WriteString("(")
		writeDiag(sb, v.Content)
		sb.WriteString(")")
	case nil:
		sb.WriteString("<nil>")
	}
}

func writeDiagFloat(sb *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		sb.WriteString("NaN")
	case math.IsInf(f, 1):
		sb.WriteString("Infinity")
	case math.IsInf(f, -1):
		sb.WriteString("-Infinity")
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		sb.WriteString(s)
		// Diagnostic notation keeps floats visually distinct from ints.
		if !strings.ContainsAny(s, ".eE") {
			sb.WriteString(".0")
		}
	}
}
