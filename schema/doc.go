// Package schema maps Go values to and from the canonical data model in
// xdao.co/canbor.
//
// Struct fields are controlled by the `canbor` tag:
//
//	Name  string `canbor:"name"`            // text key "name"
//	ID    uint32 `canbor:"1,keyasint"`      // integer key 1
//	Note  string `canbor:"note,omitempty"`  // omitted when zero
//	Skip  string `canbor:"-"`               // never mapped
//	_     struct{} `canbor:",toarray"`      // struct encodes as an array
//
// Untagged exported fields use their Go name. Pointer fields are optional:
// nil encodes as an absent entry and an absent entry decodes to nil. Any
// other field missing from the input is an error unless it carries
// omitempty, in which case it decodes to its zero value.
//
// Interface-typed fields participate through the union registry; see
// RegisterUnion. Types may take over their own mapping by implementing
// Marshaler or Unmarshaler.
package schema
