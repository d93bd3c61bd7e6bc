package storage_test

import (
	"errors"
	"testing"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/storage"
	"xdao.co/canbor/storage/testkit"
)

func TestMultiCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.MultiCAS{Adapters: []storage.CAS{storage.NewMemory()}}
	})
}

func TestReplicatingCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.ReplicatingCAS{Backends: []storage.NamedCAS{
			{Name: "a", CAS: storage.NewMemory()},
			{Name: "b", CAS: storage.NewMemory()},
		}}
	})
}

func TestMultiCAS_OrderedFallback(t *testing.T) {
	primary := storage.NewMemory()
	secondary := storage.NewMemory()
	multi := storage.MultiCAS{Adapters: []storage.CAS{primary, secondary}}

	// Seed the secondary only.
	data := canbor.Encode(canbor.Text("cold object"))
	id, err := secondary.Put(data)
	if err != nil {
		t.Fatalf("seed Put: %v", err)
	}

	got, err := multi.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Get returned wrong bytes")
	}
	if !multi.Has(id) {
		t.Fatalf("Has = false, want true")
	}

	// Put writes only to the first adapter.
	fresh := canbor.Encode(canbor.Text("warm object"))
	fid, err := multi.Put(fresh)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !primary.Has(fid) {
		t.Fatalf("primary missing object after Put")
	}
	if secondary.Has(fid) {
		t.Fatalf("Put leaked to secondary adapter")
	}
}

func TestMultiCAS_Empty(t *testing.T) {
	multi := storage.MultiCAS{}
	if _, err := multi.Put(canbor.Encode(canbor.Null)); err == nil {
		t.Fatalf("Put on empty MultiCAS must fail")
	}
	id, _ := storage.NewMemory().Put(canbor.Encode(canbor.Null))
	if _, err := multi.Get(id); !storage.IsNotFound(err) {
		t.Fatalf("Get: %v, want ErrNotFound", err)
	}
}

func TestReplicatingCAS_PutAll(t *testing.T) {
	a := storage.NewMemory()
	b := storage.NewMemory()
	rep := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "a", CAS: a},
		{Name: "b", CAS: b},
	}}

	data := canbor.Encode(canbor.Array{canbor.Uint(1), canbor.Uint(2)})
	id, perBackend, err := rep.PutAll(data)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(perBackend) != 2 || perBackend["a"] != id || perBackend["b"] != id {
		t.Fatalf("per-backend CIDs: %v", perBackend)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("object not replicated to every backend")
	}

	if _, _, err := rep.PutAll([]byte{0x18, 0x00}); !errors.Is(err, storage.ErrNotCanonical) {
		t.Fatalf("PutAll(non-canonical): %v, want ErrNotCanonical", err)
	}
}

func TestReplicatingCAS_GetFallsBack(t *testing.T) {
	a := storage.NewMemory()
	b := storage.NewMemory()
	rep := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "a", CAS: a},
		{Name: "b", CAS: b},
	}}

	data := canbor.Encode(canbor.Text("only in b"))
	id, err := b.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := rep.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Get returned wrong bytes")
	}
}
