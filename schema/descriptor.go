package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"xdao.co/canbor/canbor"
)

// Marshaler lets a type take over its own mapping to the value model.
type Marshaler interface {
	MarshalCanbor() (canbor.Value, error)
}

// Unmarshaler lets a type take over its own mapping from the value model.
type Unmarshaler interface {
	UnmarshalCanbor(canbor.Value) error
}

var (
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	valueType       = reflect.TypeOf((*canbor.Value)(nil)).Elem()
)

// fieldDesc describes one mapped struct field.
type fieldDesc struct {
	index     int
	goName    string
	key       canbor.Value // Text or integer key on the wire
	keyLabel  string       // human form of key for error context
	encKey    string       // canonical encoding of key, for lookups
	omitEmpty bool
	typ       reflect.Type
}

// structDesc is the compiled mapping for one struct type. Compilation runs
// once per type; descriptors are immutable afterwards.
type structDesc struct {
	toArray bool
	fields  []fieldDesc
	byKey   map[string]int // encKey -> index into fields
}

type cacheEntry struct {
	desc *structDesc
	err  error
}

var structCache sync.Map // reflect.Type -> cacheEntry

func descriptorOf(t reflect.Type) (*structDesc, error) {
	if e, ok := structCache.Load(t); ok {
		entry := e.(cacheEntry)
		return entry.desc, entry.err
	}
	desc, err := compileStruct(t)
	entry, _ := structCache.LoadOrStore(t, cacheEntry{desc: desc, err: err})
	return entry.(cacheEntry).desc, entry.(cacheEntry).err
}

func compileStruct(t reflect.Type) (*structDesc, error) {
	desc := &structDesc{byKey: make(map[string]int)}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup("canbor")

		if sf.Name == "_" {
			if hasTag && hasTagOption(tag, "toarray") {
				desc.toArray = true
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		fd := fieldDesc{
			index:  i,
			goName: sf.Name,
			typ:    sf.Type,
		}
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "omitempty":
				fd.omitEmpty = true
			case "keyasint", "":
				// keyasint handled below.
			case "toarray":
				return nil, canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
					fmt.Sprintf("toarray on %s.%s: the option only applies to the \"_\" field", t, sf.Name))
			default:
				return nil, canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
					fmt.Sprintf("unknown tag option %q on %s.%s", opt, t, sf.Name))
			}
		}

		if name == "" {
			name = sf.Name
		}
		if hasTagOption(opts, "keyasint") {
			n, err := strconv.ParseInt(name, 10, 64)
			if err != nil {
				return nil, canbor.NewError(canbor.KindUnexpectedType, "CANBOR-MAP-005",
					fmt.Sprintf("keyasint field %s.%s has non-integer key %q", t, sf.Name, name))
			}
			fd.key = canbor.Int(n)
			fd.keyLabel = name
		} else {
			fd.key = canbor.Text(name)
			fd.keyLabel = name
		}
		fd.encKey = string(canbor.Encode(fd.key))

		if prev, dup := desc.byKey[fd.encKey]; dup {
			return nil, canbor.NewError(canbor.KindDuplicateMapKey, "CANBOR-MAP-005",
				fmt.Sprintf("fields %s and %s of %s share wire key %s",
					desc.fields[prev].goName, sf.Name, t, fd.keyLabel))
		}
		desc.byKey[fd.encKey] = len(desc.fields)
		desc.fields = append(desc.fields, fd)
	}

	return desc, nil
}

func hasTagOption(opts, want string) bool {
	for _, opt := range strings.Split(opts, ",") {
		if opt == want {
			return true
		}
	}
	return false
}
