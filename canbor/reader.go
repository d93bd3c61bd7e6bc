package canbor

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/x448/float16"
)

// DefaultMaxDepth is the nesting limit applied when DecodeOptions.MaxDepth
// is zero. It bounds stack use on adversarial input.
const DefaultMaxDepth = 127

// DecodeOptions configures decoding. The zero value is ready to use.
type DecodeOptions struct {
	// MaxDepth is the maximum container nesting depth accepted before
	// decoding fails with KindDepthExceeded. Zero means DefaultMaxDepth.
	MaxDepth int
}

func (o DecodeOptions) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

// Decode parses exactly one canonical item from the front of data and
// returns the value together with the number of bytes consumed. Trailing
// bytes are left for the caller (streaming mode); use DecodeExact to treat
// them as an error.
func Decode(data []byte) (Value, int, error) {
	return DecodeOptions{}.Decode(data)
}

// DecodeExact parses data as a single canonical item and fails with
// KindTrailingBytes if any input remains after it.
func DecodeExact(data []byte) (Value, error) {
	return DecodeOptions{}.DecodeExact(data)
}

// Decode parses one canonical item under these options. See Decode.
func (o DecodeOptions) Decode(data []byte) (Value, int, error) {
	r := &reader{data: data, maxDepth: o.maxDepth()}
	v, err := r.readValue(0)
	if err != nil {
		return nil, 0, err
	}
	return v, r.off, nil
}

// DecodeExact parses data as a single canonical item under these options.
func (o DecodeOptions) DecodeExact(data []byte) (Value, error) {
	v, n, err := o.Decode(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, decodeError(KindTrailingBytes, "CANBOR-STR-003", n,
			fmt.Sprintf("%d trailing bytes after top-level item", len(data)-n))
	}
	return v, nil
}

type reader struct {
	data     []byte
	off      int
	maxDepth int
}

func (r *reader) readValue(depth int) (Value, error) {
	if depth > r.maxDepth {
		return nil, decodeError(KindDepthExceeded, "CANBOR-LIMIT-001", r.off,
			fmt.Sprintf("nesting depth exceeds limit of %d", r.maxDepth))
	}
	if r.off >= len(r.data) {
		return nil, decodeError(KindNonCanonical, "CANBOR-STR-001", r.off,
			"unexpected end of input")
	}

	head := r.off
	major := r.data[r.off] >> 5
	if major == majorSimple {
		return r.readSimpleOrFloat()
	}

	arg, err := r.readArg()
	if err != nil {
		return nil, err
	}

	switch major {
	case majorUnsigned:
		return Uint(arg), nil
	case majorNegative:
		return Negative(arg), nil
	case majorBytes:
		b, err := r.take(arg, head)
		if err != nil {
			return nil, err
		}
		return Bytes(append([]byte(nil), b...)), nil
	case majorText:
		b, err := r.take(arg, head)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, decodeError(KindNonCanonical, "CANBOR-CANON-008", head,
				"text string is not valid UTF-8")
		}
		return Text(b), nil
	case majorArray:
		if err := r.checkCount(arg, head); err != nil {
			return nil, err
		}
		arr := make(Array, 0, arg)
		for i := uint64(0); i < arg; i++ {
			el, err := r.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, el)
		}
		return arr, nil
	case majorMap:
		return r.readMap(arg, depth, head)
	case majorTag:
		content, err := r.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		return Tag{Number: arg, Content: content}, nil
	default:
		return nil, decodeError(KindNonCanonical, "CANBOR-STR-002", head,
			fmt.Sprintf("unsupported major type %d", major))
	}
}

// readMap decodes n key/value pairs, enforcing that the encoded keys appear
// in strictly ascending bytewise order. Equal adjacent keys are duplicates;
// descending keys are a canonical-order violation.
func (r *reader) readMap(n uint64, depth, head int) (Value, error) {
	if err := r.checkCount(n, head); err != nil {
		return nil, err
	}
	m := make(Map, 0, n)
	var prevKey []byte
	for i := uint64(0); i < n; i++ {
		keyStart := r.off
		key, err := r.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		encKey := r.data[keyStart:r.off]
		if prevKey != nil {
			switch c := bytes.Compare(prevKey, encKey); {
			case c == 0:
				return nil, decodeError(KindDuplicateMapKey, "CANBOR-CANON-004", keyStart,
					fmt.Sprintf("duplicate map key %#x", encKey))
			case c > 0:
				return nil, decodeError(KindNonCanonical, "CANBOR-CANON-003", keyStart,
					"map keys are not in canonical order")
			}
		}
		prevKey = encKey

		val, err := r.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		m = append(m, Pair{Key: key, Val: val})
	}
	return m, nil
}

// readSimpleOrFloat handles major type 7, whose additional information
// selects between simple values and the three float widths rather than an
// integer argument.
func (r *reader) readSimpleOrFloat() (Value, error) {
	head := r.off
	ai := r.data[r.off] & 0x1f
	r.off++

	switch {
	case ai >= uint8(False) && ai <= uint8(Undefined):
		return Simple(ai), nil
	case ai < uint8(False):
		return nil, decodeError(KindNonCanonical, "CANBOR-CANON-007", head,
			fmt.Sprintf("unassigned simple value %d", ai))
	case ai == aiOneByte:
		// Extended simple values (32..255) are outside the canonical
		// profile's value model.
		return nil, decodeError(KindNonCanonical, "CANBOR-CANON-007", head,
			"extended simple values are not supported")
	case ai == aiTwoBytes:
		b, err := r.take(2, head)
		if err != nil {
			return nil, err
		}
		h := float16.Frombits(uint16(b[0])<<8 | uint16(b[1]))
		if h.IsNaN() {
			if h.Bits() != 0x7e00 {
				return nil, decodeError(KindNonCanonical, "CANBOR-CANON-006", head,
					"NaN must be encoded as 0xf97e00")
			}
			return Float(math.NaN()), nil
		}
		return Float(float64(h.Float32())), nil
	case ai == aiFourBytes:
		b, err := r.take(4, head)
		if err != nil {
			return nil, err
		}
		f32 := math.Float32frombits(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
		if f32 != f32 {
			return nil, decodeError(KindNonCanonical, "CANBOR-CANON-006", head,
				"NaN must be encoded as 0xf97e00")
		}
		if fitsFloat16(f32) {
			return nil, decodeError(KindNonCanonical, "CANBOR-CANON-005", head,
				"float is not in shortest form")
		}
		return Float(float64(f32)), nil
	case ai == aiEightBytes:
		b, err := r.take(8, head)
		if err != nil {
			return nil, err
		}
		bits := uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
			uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
		f := math.Float64frombits(bits)
		if math.IsNaN(f) {
			return nil, decodeError(KindNonCanonical, "CANBOR-CANON-006", head,
				"NaN must be encoded as 0xf97e00")
		}
		if float64(float32(f)) == f {
			return nil, decodeError(KindNonCanonical, "CANBOR-CANON-005", head,
				"float is not in shortest form")
		}
		return Float(f), nil
	case ai == aiIndefinite:
		return nil, decodeError(KindNonCanonical, "CANBOR-CANON-002", head,
			"indefinite-length items are not canonical")
	default:
		return nil, decodeError(KindNonCanonical, "CANBOR-STR-002", head,
			fmt.Sprintf("reserved additional information %d", ai))
	}
}

// readArg reads the head argument for major types 0..6 and enforces the
// minimal-width rule: every argument must use the shortest form that can
// represent it.
func (r *reader) readArg() (uint64, error) {
	head := r.off
	ai := r.data[r.off] & 0x1f
	r.off++

	var width int
	var min uint64
	switch {
	case ai < aiOneByte:
		return uint64(ai), nil
	case ai == aiOneByte:
		width, min = 1, 24
	case ai == aiTwoBytes:
		width, min = 2, math.MaxUint8+1
	case ai == aiFourBytes:
		width, min = 4, math.MaxUint16+1
	case ai == aiEightBytes:
		width, min = 8, math.MaxUint32+1
	case ai == aiIndefinite:
		return 0, decodeError(KindNonCanonical, "CANBOR-CANON-002", head,
			"indefinite-length items are not canonical")
	default:
		return 0, decodeError(KindNonCanonical, "CANBOR-STR-002", head,
			fmt.Sprintf("reserved additional information %d", ai))
	}

	b, err := r.take(uint64(width), head)
	if err != nil {
		return 0, err
	}
	var arg uint64
	for _, c := range b {
		arg = arg<<8 | uint64(c)
	}
	if arg < min {
		return 0, decodeError(KindNonCanonical, "CANBOR-CANON-001", head,
			fmt.Sprintf("argument %d uses a wider-than-minimal encoding", arg))
	}
	return arg, nil
}

// take consumes n bytes of payload, failing on truncated input.
func (r *reader) take(n uint64, head int) ([]byte, error) {
	if n > uint64(len(r.data)-r.off) {
		return nil, decodeError(KindNonCanonical, "CANBOR-STR-001", head,
			"unexpected end of input")
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

// checkCount rejects container counts that could not possibly fit in the
// remaining input, so hostile headers cannot trigger huge allocations.
func (r *reader) checkCount(n uint64, head int) error {
	if n > uint64(len(r.data)-r.off) {
		return decodeError(KindNonCanonical, "CANBOR-STR-001", head,
			"container count exceeds remaining input")
	}
	return nil
}
