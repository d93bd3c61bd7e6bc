package schema

import (
	"errors"
	"fmt"
	"reflect"

	"xdao.co/canbor/canbor"
)

// Marshal encodes v to its canonical byte sequence.
func Marshal(v any) ([]byte, error) {
	val, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	return canbor.Encode(val), nil
}

// ToValue maps a Go value into the canonical value model. The result is
// fully materialized and independent of v.
func ToValue(v any) (canbor.Value, error) {
	if v == nil {
		return canbor.Null, nil
	}
	return encodeValue(reflect.ValueOf(v))
}

func encodeValue(rv reflect.Value) (canbor.Value, error) {
	if !rv.IsValid() {
		return canbor.Null, nil
	}

	// canbor.Value passthrough: already in the data model.
	if rv.Type().Implements(valueType) {
		val, ok := rv.Interface().(canbor.Value)
		if !ok || val == nil {
			return canbor.Null, nil
		}
		return val, nil
	}

	if rv.Type().Implements(marshalerType) {
		return encodeMarshaler(rv)
	}
	if rv.Kind() != reflect.Pointer && rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(marshalerType) {
		return encodeMarshaler(rv.Addr())
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return canbor.Null, nil
		}
		if u, ok := lookupUnion(rv.Type()); ok {
			return u.encode(rv.Elem())
		}
		return encodeValue(rv.Elem())

	case reflect.Pointer:
		if rv.IsNil() {
			return canbor.Null, nil
		}
		return encodeValue(rv.Elem())

	case reflect.Bool:
		return canbor.Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return canbor.Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return canbor.Uint(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return canbor.Float(rv.Float()), nil

	case reflect.String:
		return canbor.Text(rv.String()), nil

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return canbor.Bytes(append([]byte(nil), rv.Bytes()...)), nil
		}
		return encodeList(rv)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return canbor.Bytes(b), nil
		}
		return encodeList(rv)

	case reflect.Map:
		return encodeGoMap(rv)

	case reflect.Struct:
		return encodeStruct(rv)

	default:
		return nil, canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
			fmt.Sprintf("cannot map Go type %s", rv.Type()))
	}
}

func encodeMarshaler(rv reflect.Value) (canbor.Value, error) {
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return canbor.Null, nil
	}
	val, err := rv.Interface().(Marshaler).MarshalCanbor()
	if err != nil {
		return nil, canbor.WrapError(canbor.KindCustom, "CANBOR-MAP-008",
			fmt.Sprintf("MarshalCanbor on %s failed", rv.Type()), err)
	}
	if val == nil {
		return canbor.Null, nil
	}
	return val, nil
}

func encodeList(rv reflect.Value) (canbor.Value, error) {
	arr := make(canbor.Array, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el, err := encodeValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, el)
	}
	return arr, nil
}

// encodeGoMap maps a Go map. Entry order here is irrelevant: the encoder
// sorts by encoded key, and FromValue rebuilds the map without order.
func encodeGoMap(rv reflect.Value) (canbor.Value, error) {
	m := make(canbor.Map, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := encodeValue(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := encodeValue(iter.Value())
		if err != nil {
			return nil, err
		}
		m = append(m, canbor.Pair{Key: k, Val: v})
	}
	return m, nil
}

func encodeStruct(rv reflect.Value) (canbor.Value, error) {
	desc, err := descriptorOf(rv.Type())
	if err != nil {
		return nil, err
	}

	if desc.toArray {
		arr := make(canbor.Array, 0, len(desc.fields))
		for _, fd := range desc.fields {
			el, err := encodeValue(rv.Field(fd.index))
			if err != nil {
				return nil, fieldContext(err, fd.keyLabel)
			}
			arr = append(arr, el)
		}
		return arr, nil
	}

	m := make(canbor.Map, 0, len(desc.fields))
	for _, fd := range desc.fields {
		fv := rv.Field(fd.index)
		if fd.typ.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		if fd.omitEmpty && fv.IsZero() {
			continue
		}
		el, err := encodeValue(fv)
		if err != nil {
			return nil, fieldContext(err, fd.keyLabel)
		}
		m = append(m, canbor.Pair{Key: fd.key, Val: el})
	}
	return m, nil
}

// fieldContext stamps the outermost field name onto a mapping error once.
func fieldContext(err error, field string) error {
	var e *canbor.Error
	if errors.As(err, &e) && e.Field == "" {
		e.Field = field
	}
	return err
}
