// Package storage provides content-addressable storage for canonical CBOR
// objects.
package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/canbor/canbor"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Put MUST reject bytes that are not a single canonical CBOR item.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// CheckCanonical enforces the Put contract: only a single canonical CBOR
// item may enter a store. Backends call this before deriving a CID.
func CheckCanonical(bytes []byte) error {
	if _, err := canbor.DecodeExact(bytes); err != nil {
		return fmt.Errorf("%w: %v", ErrNotCanonical, err)
	}
	return nil
}
