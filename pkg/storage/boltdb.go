package storage

import (
	"path/filepath"
	"time"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// bucketRegistry holds every "/registry/..." key, regardless of kind.
// A single bucket keeps ListPrefix a plain cursor seek over one B+tree
// rather than a fan-out across per-kind buckets.
var bucketRegistry = []byte("registry")

// BoltStore implements Store using BoltDB, appending a ChangeEvent to an
// injected events.Log on every Put and Delete.
type BoltStore struct {
	db  *bolt.DB
	log *events.Log
}

// NewBoltStore opens (or creates) <dataDir>/k3rs.db and wires it to log
// for change notification. log must not be nil.
func NewBoltStore(dataDir string, log *events.Log) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "k3rs.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, &ErrUnavailable{Op: "open", Err: err}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRegistry)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &ErrUnavailable{Op: "init", Err: err}
	}

	return &BoltStore{db: db, log: log}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Put writes value at key and appends a Put ChangeEvent in the same
// bbolt transaction's success path, before returning.
func (s *BoltStore) Put(key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRegistry).Put([]byte(key), value)
	})
	if err != nil {
		return &ErrUnavailable{Op: "put " + key, Err: err}
	}
	s.log.Append(types.ChangeEvent{
		Kind:      types.EventPut,
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
	})
	return nil
}

// Get looks up key. It returns ErrNotFound if the key is absent.
func (s *BoltStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRegistry).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err == ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ErrUnavailable{Op: "get " + key, Err: err}
	}
	return value, nil
}

// Delete removes key. It is idempotent: deleting an absent key is not an
// error, and no ChangeEvent is appended when the key was already gone.
func (s *BoltStore) Delete(key string) error {
	var existed bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistry)
		if b.Get([]byte(key)) != nil {
			existed = true
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return &ErrUnavailable{Op: "delete " + key, Err: err}
	}
	if existed {
		s.log.Append(types.ChangeEvent{
			Kind:      types.EventDelete,
			Key:       key,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// ListPrefix returns every entry whose key starts with prefix, in key
// order, via a bbolt cursor seek rather than a full bucket scan.
func (s *BoltStore) ListPrefix(prefix string) ([]KV, error) {
	var out []KV
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRegistry).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && hasPrefix(k, p); k, v = c.Next() {
			value := make([]byte, len(v))
			copy(value, v)
			out = append(out, KV{Key: string(k), Value: value})
		}
		return nil
	})
	if err != nil {
		return nil, &ErrUnavailable{Op: "list " + prefix, Err: err}
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
