package schema

import (
	"bytes"
	"reflect"
	"testing"

	"xdao.co/canbor/canbor"
)

type shape interface{ sides() int }

type circle struct {
	Radius float64 `canbor:"r"`
}

type rect struct {
	W float64 `canbor:"w"`
	H float64 `canbor:"h"`
}

type point struct{}

type label string

func (circle) sides() int { return 0 }
func (rect) sides() int   { return 4 }
func (point) sides() int  { return 0 }
func (label) sides() int  { return 0 }

type event interface{ event() }

type started struct {
	At uint64 `canbor:"1,keyasint"`
}

type stopped struct{}

func (started) event() {}
func (stopped) event() {}

func init() {
	MustRegisterUnion[shape](
		NamedVariant[circle]("circle"),
		NamedVariant[rect]("rect"),
		NamedVariant[point]("point"),
		NamedVariant[label]("label"),
	)
	MustRegisterUnion[event](
		IntVariant[started](0),
		IntVariant[stopped](1),
	)
}

type drawing struct {
	Main shape `canbor:"main"`
}

func TestUnion_StructVariantBytes(t *testing.T) {
	data, err := Marshal(drawing{Main: circle{Radius: 2}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// {"main": {"circle": {"r": 2.0}}}
	want := mustHex(t, "a1646d61696ea166636972636c65a16172f94000")
	if !bytes.Equal(data, want) {
		t.Fatalf("Marshal = %x, want %x", data, want)
	}

	var out drawing
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out.Main, circle{Radius: 2}) {
		t.Fatalf("decoded %#v", out.Main)
	}
}

func TestUnion_EmptyStructVariantCarriesNull(t *testing.T) {
	data, err := Marshal(drawing{Main: point{}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// {"main": {"point": null}}
	want := mustHex(t, "a1646d61696ea165706f696e74f6")
	if !bytes.Equal(data, want) {
		t.Fatalf("Marshal = %x, want %x", data, want)
	}

	var out drawing
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := out.Main.(point); !ok {
		t.Fatalf("decoded %#v, want point", out.Main)
	}

	// A payload other than null for a field-less variant is malformed.
	err = Unmarshal(mustHex(t, "a1646d61696ea165706f696e74a0"), &out)
	if !canbor.IsKind(err, canbor.KindUnexpectedType) {
		t.Fatalf("err = %v, want KindUnexpectedType", err)
	}
}

func TestUnion_NewtypeVariantCarriesBareValue(t *testing.T) {
	data, err := Marshal(drawing{Main: label("axis")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// {"main": {"label": "axis"}}
	want := mustHex(t, "a1646d61696ea1656c6162656c6461786973")
	if !bytes.Equal(data, want) {
		t.Fatalf("Marshal = %x, want %x", data, want)
	}

	var out drawing
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Main != label("axis") {
		t.Fatalf("decoded %#v", out.Main)
	}
}

func TestUnion_IntDiscriminants(t *testing.T) {
	type log struct {
		Last event `canbor:"last"`
	}
	data, err := Marshal(log{Last: started{At: 99}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// {"last": {0: {1: 99}}}
	want := mustHex(t, "a1646c617374a100a1011863")
	if !bytes.Equal(data, want) {
		t.Fatalf("Marshal = %x, want %x", data, want)
	}

	var out log
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out.Last, started{At: 99}) {
		t.Fatalf("decoded %#v", out.Last)
	}
}

func TestUnion_NilInterfaceIsNull(t *testing.T) {
	data, err := Marshal(drawing{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// {"main": null}
	if want := mustHex(t, "a1646d61696ef6"); !bytes.Equal(data, want) {
		t.Fatalf("Marshal = %x, want %x", data, want)
	}

	out := drawing{Main: rect{}}
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Main != nil {
		t.Fatalf("decoded %#v, want nil", out.Main)
	}
}

func TestUnion_DecodeRejectsMalformedShapes(t *testing.T) {
	cases := []struct {
		hex  string
		kind canbor.Kind
	}{
		// {"main": "circle"}: not a map.
		{"a1646d61696e66636972636c65", canbor.KindUnexpectedType},
		// {"main": {}}: zero entries.
		{"a1646d61696ea0", canbor.KindUnexpectedType},
		// {"main": {"rect": {"h": 1.0, "w": 1.0}, "circle": {"r": 1.0}}}: two entries.
		{"a1646d61696ea26472656374a26168f93c006177f93c0066636972636c65a16172f93c00", canbor.KindUnexpectedType},
		// {"main": {"blob": null}}: unknown discriminant.
		{"a1646d61696ea164626c6f62f6", canbor.KindUnknownField},
	}
	for _, c := range cases {
		var out drawing
		err := Unmarshal(mustHex(t, c.hex), &out)
		if !canbor.IsKind(err, c.kind) {
			t.Errorf("Unmarshal(%s): err = %v, want kind %s", c.hex, err, c.kind)
		}
	}
}

func TestUnion_EncodeRejectsUnregisteredVariant(t *testing.T) {
	type holder struct {
		S shape `canbor:"s"`
	}
	_, err := Marshal(holder{S: unregisteredShape{}})
	if !canbor.IsKind(err, canbor.KindUnexpectedType) {
		t.Fatalf("err = %v, want KindUnexpectedType", err)
	}
}

type unregisteredShape struct{}

func (unregisteredShape) sides() int { return 3 }

func TestRegisterUnion_Validation(t *testing.T) {
	type notIface struct{}
	if err := RegisterUnion[notIface](); !canbor.IsKind(err, canbor.KindUnexpectedType) {
		t.Fatalf("non-interface: %v", err)
	}
	if err := RegisterUnion[shape](NamedVariant[circle]("c")); err == nil {
		t.Fatalf("re-registration must fail")
	}
	type other interface{ sides() int }
	if err := RegisterUnion[other](
		NamedVariant[circle]("a"),
		NamedVariant[circle]("b"),
	); !canbor.IsKind(err, canbor.KindUnexpectedType) {
		t.Fatalf("duplicate variant type: %v", err)
	}
}
