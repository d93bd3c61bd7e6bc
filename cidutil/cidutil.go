// Package cidutil derives content identifiers for canonical CBOR objects.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/canbor/canbor"
)

// CIDv1DagCBORSHA256 returns a CIDv1 string using the dag-cbor multicodec
// and a sha2-256 multihash.
func CIDv1DagCBORSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.DagCBOR, sum).String()
}

// CIDv1DagCBORSHA256CID returns a CIDv1 (dag-cbor + sha2-256) derived from
// data.
func CIDv1DagCBORSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.DagCBOR, sum), nil
}

// CanonicalCID returns the CIDv1 for data, refusing input that is not a
// single canonical CBOR item. Non-canonical bytes would let one value carry
// many CIDs, so derivation is a canonicalization choke point.
func CanonicalCID(data []byte) (string, error) {
	if _, err := canbor.DecodeExact(data); err != nil {
		return "", fmt.Errorf("canonical CBOR required: %w", err)
	}
	return CIDv1DagCBORSHA256(data), nil
}

// ValueCID canonically encodes v and returns the bytes with their CIDv1.
func ValueCID(v canbor.Value) ([]byte, string) {
	data := canbor.Encode(v)
	return data, CIDv1DagCBORSHA256(data)
}
