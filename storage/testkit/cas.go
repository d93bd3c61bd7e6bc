// Package testkit provides a reusable conformance suite for CAS backends.
package testkit

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/cidutil"
	"xdao.co/canbor/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// payload returns a canonical CBOR object carrying the given label.
func payload(label string) []byte {
	return canbor.Encode(canbor.Map{
		{Key: canbor.Text("label"), Val: canbor.Text(label)},
	})
}

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := payload("hello, canbor storage")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1DagCBORSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1DagCBORSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		gotID, err := cidutil.CIDv1DagCBORSHA256CID(got)
		if err != nil {
			t.Fatalf("CIDv1DagCBORSHA256CID(got) failed: %v", err)
		}
		if gotID != id {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := payload("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("PutRejectsNonCanonical", func(t *testing.T) {
		cas := newCAS(t)
		inputs := [][]byte{
			{0x18, 0x00},                               // wide integer head
			{0xa2, 0x61, 0x62, 0x02, 0x61, 0x61, 0x01}, // keys out of order
			{0x9f, 0x01, 0xff},                         // indefinite array
			{0x00, 0x00},                               // trailing bytes
			{},                                         // empty input
		}
		for _, in := range inputs {
			if _, err := cas.Put(in); !errors.Is(err, storage.ErrNotCanonical) {
				t.Fatalf("Put(%x): got %v want ErrNotCanonical", in, err)
			}
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := payload("missing")
		id, err := cidutil.CIDv1DagCBORSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1DagCBORSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		_, err = cas.Put(b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
