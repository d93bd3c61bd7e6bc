package schema

import (
	"fmt"
	"reflect"
	"sync"

	"xdao.co/canbor/canbor"
)

// Variant binds one concrete type to its wire discriminant. Construct with
// NamedVariant or IntVariant.
type Variant struct {
	typ reflect.Type
	key canbor.Value
}

// NamedVariant declares a union variant carried under a text discriminant.
func NamedVariant[V any](name string) Variant {
	return Variant{typ: reflect.TypeOf((*V)(nil)).Elem(), key: canbor.Text(name)}
}

// IntVariant declares a union variant carried under an integer discriminant.
func IntVariant[V any](key int64) Variant {
	return Variant{typ: reflect.TypeOf((*V)(nil)).Elem(), key: canbor.Int(key)}
}

// unionDesc is the compiled variant table for one interface type.
type unionDesc struct {
	iface  reflect.Type
	byType map[reflect.Type]Variant
	byKey  map[string]Variant // canonical key encoding -> variant
}

var unionRegistry sync.Map // reflect.Type -> *unionDesc

// RegisterUnion binds an interface type T to its closed set of variants.
// The wire shape of a union value is a single-entry map from discriminant to
// payload. Registration is process-global and write-once per interface;
// re-registering T is an error.
func RegisterUnion[T any](variants ...Variant) error {
	it := reflect.TypeOf((*T)(nil)).Elem()
	if it.Kind() != reflect.Interface {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
			fmt.Sprintf("union type %s is not an interface", it))
	}
	if len(variants) == 0 {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
			fmt.Sprintf("union %s registered with no variants", it))
	}

	desc := &unionDesc{
		iface:  it,
		byType: make(map[reflect.Type]Variant, len(variants)),
		byKey:  make(map[string]Variant, len(variants)),
	}
	for _, v := range variants {
		if !v.typ.Implements(it) {
			return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
				fmt.Sprintf("variant %s does not implement %s", v.typ, it))
		}
		if _, dup := desc.byType[v.typ]; dup {
			return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
				fmt.Sprintf("variant type %s registered twice for %s", v.typ, it))
		}
		enc := string(canbor.Encode(v.key))
		if _, dup := desc.byKey[enc]; dup {
			return canbor.NewError(canbor.KindDuplicateMapKey, "CANBOR-MAP-006",
				fmt.Sprintf("discriminant %s registered twice for %s", canbor.Diagnostic(v.key), it))
		}
		desc.byType[v.typ] = v
		desc.byKey[enc] = v
	}

	if _, loaded := unionRegistry.LoadOrStore(it, desc); loaded {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
			fmt.Sprintf("union %s already registered", it))
	}
	return nil
}

// MustRegisterUnion is RegisterUnion for package init blocks.
func MustRegisterUnion[T any](variants ...Variant) {
	if err := RegisterUnion[T](variants...); err != nil {
		panic(err)
	}
}

func lookupUnion(t reflect.Type) (*unionDesc, bool) {
	d, ok := unionRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return d.(*unionDesc), true
}

// encode wraps the concrete value rv in its single-entry discriminant map.
func (u *unionDesc) encode(rv reflect.Value) (canbor.Value, error) {
	variant, ok := u.byType[rv.Type()]
	if !ok {
		return nil, canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-006",
			fmt.Sprintf("type %s is not a registered variant of %s", rv.Type(), u.iface))
	}
	payload, err := u.encodePayload(rv)
	if err != nil {
		return nil, err
	}
	return canbor.Map{{Key: variant.key, Val: payload}}, nil
}

func (u *unionDesc) encodePayload(rv reflect.Value) (canbor.Value, error) {
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return canbor.Null, nil
		}
		rv, t = rv.Elem(), t.Elem()
	}
	// Field-less struct variants carry null; everything else carries its
	// ordinary mapping. Types with a custom hook keep the hook's shape.
	if t.Kind() == reflect.Struct && !t.Implements(marshalerType) &&
		!reflect.PointerTo(t).Implements(marshalerType) {
		desc, err := descriptorOf(t)
		if err != nil {
			return nil, err
		}
		if len(desc.fields) == 0 && !desc.toArray {
			return canbor.Null, nil
		}
	}
	return encodeValue(rv)
}

// decodeUnion expects the single-entry discriminant map and fills rv with
// the matching variant.
func (o DecOptions) decodeUnion(val canbor.Value, rv reflect.Value, u *unionDesc) error {
	if val == canbor.Null {
		rv.SetZero()
		return nil
	}
	m, ok := val.(canbor.Map)
	if !ok {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-007",
			fmt.Sprintf("union %s requires a map, got %s", u.iface, valueKindName(val)))
	}
	if len(m) != 1 {
		return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-007",
			fmt.Sprintf("union %s requires exactly one entry, got %d", u.iface, len(m)))
	}

	variant, ok := u.byKey[string(canbor.Encode(m[0].Key))]
	if !ok {
		return canbor.NewError(canbor.KindUnknownField, "CANBOR-MAP-006",
			fmt.Sprintf("unknown discriminant %s for union %s", canbor.Diagnostic(m[0].Key), u.iface))
	}

	out := reflect.New(variant.typ).Elem()
	if err := o.decodeUnionPayload(m[0].Val, out); err != nil {
		return fieldContext(err, canbor.Diagnostic(m[0].Key))
	}
	rv.Set(out)
	return nil
}

func (o DecOptions) decodeUnionPayload(val canbor.Value, rv reflect.Value) error {
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		if val == canbor.Null {
			rv.SetZero()
			return nil
		}
		rv.Set(reflect.New(t.Elem()))
		rv, t = rv.Elem(), t.Elem()
	}
	if t.Kind() == reflect.Struct && !reflect.PointerTo(t).Implements(unmarshalerType) {
		desc, err := descriptorOf(t)
		if err != nil {
			return err
		}
		if len(desc.fields) == 0 && !desc.toArray {
			if val != canbor.Null {
				return canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-007",
					fmt.Sprintf("variant %s carries no payload, got %s", t, valueKindName(val)))
			}
			return nil
		}
	}
	return o.decodeValue(val, rv)
}
