package storage_test

import (
	"sync"
	"testing"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/storage"
	"xdao.co/canbor/storage/testkit"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		return storage.NewMemory()
	})
}

func TestMemory_ConcurrentPut(t *testing.T) {
	cas := storage.NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := uint64(0); j < 50; j++ {
				if _, err := cas.Put(canbor.Encode(canbor.Uint(j))); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if cas.Len() != 50 {
		t.Fatalf("Len = %d, want 50", cas.Len())
	}
}
