// Package bridge connects schema-mapped types to fxamacker/cbor based
// stacks. The adapter only forwards bytes; every encoding decision stays in
// the canonical codec, so framework defaults can never leak into the wire
// format.
package bridge

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/canbor/schema"
)

// Adapter wraps a schema-mapped value so libraries that speak
// cbor.Marshaler/cbor.Unmarshaler serialize it through the canonical codec.
//
// For unmarshaling, V must be a non-nil pointer to the destination.
type Adapter struct {
	V any

	// Dec applies when decoding through the adapter.
	Dec schema.DecOptions
}

var (
	_ cbor.Marshaler   = Adapter{}
	_ cbor.Unmarshaler = (*Adapter)(nil)
)

// MarshalCBOR implements cbor.Marshaler with canonical bytes.
func (a Adapter) MarshalCBOR() ([]byte, error) {
	return schema.Marshal(a.V)
}

// UnmarshalCBOR implements cbor.Unmarshaler with the strict decoder; input
// an fxamacker stack hands over is re-validated, not trusted.
func (a *Adapter) UnmarshalCBOR(data []byte) error {
	return a.Dec.Unmarshal(data, a.V)
}

// Codec satisfies the Marshal/Unmarshal+Name codec contract used by
// codec-pluggable transports (gRPC and similar).
type Codec struct {
	Dec schema.DecOptions
}

func (Codec) Marshal(v any) ([]byte, error) {
	return schema.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	return c.Dec.Unmarshal(data, v)
}

// Name identifies the codec in transport content negotiation.
func (Codec) Name() string { return "canbor" }

// ContentType is the media type for HTTP-style surfaces.
func (Codec) ContentType() string { return "application/cbor" }

// String implements fmt.Stringer for registry listings.
func (c Codec) String() string {
	return fmt.Sprintf("%s (%s)", c.Name(), c.ContentType())
}
