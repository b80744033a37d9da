package tunnel

import (
	"sort"

	"github.com/k3rs/k3rs/pkg/storage"
)

// stubStore is a minimal in-memory storage.Store for tests that only
// need ListPrefix, avoiding a dependency on a real BoltStore + events.Log pair.
type stubStore struct {
	data map[string][]byte
}

func newStubStore(data map[string][]byte) storage.Store {
	return &stubStore{data: data}
}

func (s *stubStore) Put(key string, value []byte) error { s.data[key] = value; return nil }
func (s *stubStore) Get(key string) ([]byte, error)     { return s.data[key], nil }
func (s *stubStore) Delete(key string) error            { delete(s.data, key); return nil }
func (s *stubStore) Close() error                       { return nil }

func (s *stubStore) ListPrefix(prefix string) ([]storage.KV, error) {
	var kvs []storage.KV
	for k, v := range s.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			kvs = append(kvs, storage.KV{Key: k, Value: v})
		}
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs, nil
}
