package storage

import (
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/canbor/cidutil"
)

// Memory is an in-process CAS for tests, tooling, and daemon defaults.
// Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

var _ CAS = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[cid.Cid][]byte)}
}

func (m *Memory) Put(bytes []byte) (cid.Cid, error) {
	if err := CheckCanonical(bytes); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.CIDv1DagCBORSHA256CID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[id]; ok {
		if string(existing) != string(bytes) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	m.objects[id] = append([]byte(nil), bytes...)
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	b, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.RLock()
	_, ok := m.objects[id]
	m.mu.RUnlock()
	return ok
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
