package schema

import (
	"fmt"
	"math"
	"reflect"

	"xdao.co/canbor/canbor"
)

// DecOptions configures the mapping side of decoding. The zero value applies
// the strict defaults.
type DecOptions struct {
	// AllowUnknownFields tolerates map keys with no struct field instead of
	// failing with KindUnknownField.
	AllowUnknownFields bool

	// MaxDepth forwards to the decoder. Zero means canbor.DefaultMaxDepth.
	MaxDepth int
}

// Unmarshal strictly decodes data and maps the result into dst, which must
// be a non-nil pointer.
func Unmarshal(data []byte, dst any) error {
	return DecOptions{}.Unmarshal(data, dst)
}

// Unmarshal strictly decodes data under these options. See Unmarshal.
func (o DecOptions) Unmarshal(data []byte, dst any) error {
	val, err := canbor.DecodeOptions{MaxDepth: o.MaxDepth}.DecodeExact(data)
	if err != nil {
		return err
	}
	return o.FromValue(val, dst)
}

// FromValue maps val into dst, which must be a non-nil pointer.
func FromValue(val canbor.Value, dst any) error {
	return DecOptions{}.FromValue(val, dst)
}

// FromValue maps val into dst under these options. See FromValue.
func (o DecOptions) FromValue(val canbor.Value, dst any) error {
	if val == nil {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-003",
			"cannot map a nil Value")
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
			fmt.Sprintf("destination must be a non-nil pointer, got %T", dst))
	}
	return o.decodeValue(val, rv.Elem())
}

func (o DecOptions) decodeValue(val canbor.Value, rv reflect.Value) error {
	t := rv.Type()

	// canbor.Value targets receive the value untouched.
	if t == valueType {
		rv.Set(reflect.ValueOf(val))
		return nil
	}

	if rv.CanAddr() && reflect.PointerTo(t).Implements(unmarshalerType) {
		return decodeUnmarshaler(val, rv.Addr())
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if val == canbor.Null {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(t.Elem()))
		}
		if t.Implements(unmarshalerType) {
			return decodeUnmarshaler(val, rv)
		}
		return o.decodeValue(val, rv.Elem())

	case reflect.Interface:
		if u, ok := lookupUnion(t); ok {
			return o.decodeUnion(val, rv, u)
		}
		if t.NumMethod() == 0 {
			// Plain any: hand over the data-model value itself.
			rv.Set(reflect.ValueOf(val))
			return nil
		}
		return typeMismatch(val, t)

	case reflect.Bool:
		switch val {
		case canbor.True:
			rv.SetBool(true)
		case canbor.False:
			rv.SetBool(false)
		default:
			return typeMismatch(val, t)
		}
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decodeInt(val, rv)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return decodeUint(val, rv)

	case reflect.Float32, reflect.Float64:
		return decodeFloat(val, rv)

	case reflect.String:
		txt, ok := val.(canbor.Text)
		if !ok {
			return typeMismatch(val, t)
		}
		rv.SetString(string(txt))
		return nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, ok := val.(canbor.Bytes)
			if !ok {
				return typeMismatch(val, t)
			}
			rv.SetBytes(append([]byte(nil), b...))
			return nil
		}
		return o.decodeSlice(val, rv)

	case reflect.Array:
		return o.decodeArray(val, rv)

	case reflect.Map:
		return o.decodeGoMap(val, rv)

	case reflect.Struct:
		return o.decodeStruct(val, rv)

	default:
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
			fmt.Sprintf("cannot map into Go type %s", t))
	}
}

func decodeUnmarshaler(val canbor.Value, rv reflect.Value) error {
	if err := rv.Interface().(Unmarshaler).UnmarshalCanbor(val); err != nil {
		return canbor.WrapError(canbor.KindCustom, "CANBOR-MAP-008",
			fmt.Sprintf("UnmarshalCanbor on %s failed", rv.Type()), err)
	}
	return nil
}

func decodeInt(val canbor.Value, rv reflect.Value) error {
	switch v := val.(type) {
	case canbor.Uint:
		if uint64(v) > math.MaxInt64 || rv.OverflowInt(int64(v)) {
			return overflow(val, rv.Type())
		}
		rv.SetInt(int64(v))
		return nil
	case canbor.Negative:
		// Value is -(magnitude + 1).
		if uint64(v) > math.MaxInt64 {
			return overflow(val, rv.Type())
		}
		n := -int64(v) - 1
		if rv.OverflowInt(n) {
			return overflow(val, rv.Type())
		}
		rv.SetInt(n)
		return nil
	default:
		return typeMismatch(val, rv.Type())
	}
}

func decodeUint(val canbor.Value, rv reflect.Value) error {
	u, ok := val.(canbor.Uint)
	if !ok {
		if _, neg := val.(canbor.Negative); neg {
			return overflow(val, rv.Type())
		}
		return typeMismatch(val, rv.Type())
	}
	if rv.OverflowUint(uint64(u)) {
		return overflow(val, rv.Type())
	}
	rv.SetUint(uint64(u))
	return nil
}

func decodeFloat(val canbor.Value, rv reflect.Value) error {
	f, ok := val.(canbor.Float)
	if !ok {
		return typeMismatch(val, rv.Type())
	}
	if rv.Kind() == reflect.Float32 {
		f32 := float32(f)
		if float64(f32) != float64(f) && !math.IsNaN(float64(f)) {
			return overflow(val, rv.Type())
		}
		rv.SetFloat(float64(f32))
		return nil
	}
	rv.SetFloat(float64(f))
	return nil
}

func (o DecOptions) decodeSlice(val canbor.Value, rv reflect.Value) error {
	arr, ok := val.(canbor.Array)
	if !ok {
		return typeMismatch(val, rv.Type())
	}
	out := reflect.MakeSlice(rv.Type(), len(arr), len(arr))
	for i, el := range arr {
		if err := o.decodeValue(el, out.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (o DecOptions) decodeArray(val canbor.Value, rv reflect.Value) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		b, ok := val.(canbor.Bytes)
		if !ok {
			return typeMismatch(val, rv.Type())
		}
		if len(b) != rv.Len() {
			return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-003",
				fmt.Sprintf("byte string length %d does not fit %s", len(b), rv.Type()))
		}
		reflect.Copy(rv, reflect.ValueOf([]byte(b)))
		return nil
	}
	arr, ok := val.(canbor.Array)
	if !ok {
		return typeMismatch(val, rv.Type())
	}
	if len(arr) != rv.Len() {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-003",
			fmt.Sprintf("array length %d does not fit %s", len(arr), rv.Type()))
	}
	for i, el := range arr {
		if err := o.decodeValue(el, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (o DecOptions) decodeGoMap(val canbor.Value, rv reflect.Value) error {
	m, ok := val.(canbor.Map)
	if !ok {
		return typeMismatch(val, rv.Type())
	}
	t := rv.Type()
	out := reflect.MakeMapWithSize(t, len(m))
	for _, p := range m {
		k := reflect.New(t.Key()).Elem()
		if err := o.decodeValue(p.Key, k); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if err := o.decodeValue(p.Val, v); err != nil {
			return err
		}
		out.SetMapIndex(k, v)
	}
	rv.Set(out)
	return nil
}

func (o DecOptions) decodeStruct(val canbor.Value, rv reflect.Value) error {
	desc, err := descriptorOf(rv.Type())
	if err != nil {
		return err
	}
	if desc.toArray {
		arr, ok := val.(canbor.Array)
		if !ok {
			return typeMismatch(val, rv.Type())
		}
		if len(arr) != len(desc.fields) {
			return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-003",
				fmt.Sprintf("tuple length %d does not fit %s with %d fields",
					len(arr), rv.Type(), len(desc.fields)))
		}
		for i, el := range arr {
			fd := desc.fields[i]
			if err := o.decodeValue(el, rv.Field(fd.index)); err != nil {
				return fieldContext(err, fd.keyLabel)
			}
		}
		return nil
	}

	m, ok := val.(canbor.Map)
	if !ok {
		return typeMismatch(val, rv.Type())
	}

	seen := make([]bool, len(desc.fields))
	for _, p := range m {
		idx, known := desc.byKey[string(canbor.Encode(p.Key))]
		if !known {
			if o.AllowUnknownFields {
				continue
			}
			return canbor.NewError(canbor.KindUnknownField, "CANBOR-MAP-001",
				fmt.Sprintf("unknown key %s for %s", canbor.Diagnostic(p.Key), rv.Type()))
		}
		fd := desc.fields[idx]
		if err := o.decodeValue(p.Val, rv.Field(fd.index)); err != nil {
			return fieldContext(err, fd.keyLabel)
		}
		seen[idx] = true
	}

	for i, fd := range desc.fields {
		if seen[i] {
			continue
		}
		if fd.typ.Kind() == reflect.Pointer {
			rv.Field(fd.index).SetZero()
			continue
		}
		if fd.omitEmpty {
			rv.Field(fd.index).SetZero()
			continue
		}
		return canbor.NewError(canbor.KindMissingRequiredField, "CANBOR-MAP-002",
			fmt.Sprintf("missing required key %s for %s", fd.keyLabel, rv.Type()))
	}
	return nil
}

func typeMismatch(val canbor.Value, t reflect.Type) error {
	return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-003",
		fmt.Sprintf("cannot map %s into %s", valueKindName(val), t))
}

func overflow(val canbor.Value, t reflect.Type) error {
	return canbor.NewError(canbor.KindIntegerOverflow, "CANBOR-MAP-004",
		fmt.Sprintf("value %s overflows %s", canbor.Diagnostic(val), t))
}

func valueKindName(val canbor.Value) string {
	switch val.(type) {
	case canbor.Uint, canbor.Negative:
		return "integer"
	case canbor.Bytes:
		return "byte string"
	case canbor.Text:
		return "text string"
	case canbor.Array:
		return "array"
	case canbor.Map:
		return "map"
	case canbor.Simple:
		return "simple value"
	case canbor.Float:
		return "float"
	case canbor.Tag:
		return "tagged value"
	default:
		return "nil"
	}
}
