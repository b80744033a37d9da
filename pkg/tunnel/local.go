package tunnel

import (
	"context"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// localConn is a Conn backed directly by an in-process events.Log,
// standing in for the networked channel a real deployment would dial.
// Used for same-process server+agent wiring (the teacher's embedded
// mode) and by this package's own tests.
type localConn struct {
	log *events.Log
	sub *events.Subscription
}

// LocalDialer returns a Dialer that subscribes directly against log,
// skipping the network entirely.
func LocalDialer(log *events.Log) Dialer {
	return func(ctx context.Context) (Conn, error) {
		return &localConn{log: log}, nil
	}
}

func (c *localConn) Watch(ctx context.Context, prefix string, sinceSeq uint64) (<-chan types.ChangeEvent, error) {
	sub, err := c.log.Subscribe(prefix, sinceSeq)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return sub.Events(), nil
}

func (c *localConn) Close() error {
	if c.sub != nil {
		c.log.Close(c.sub)
	}
	return nil
}

// StoreRelister returns a Relister that re-lists prefix from store,
// used to recover from an ErrCompacted watch error. The Store keeps no
// per-key seq, so every snapshot event has Seq 0 and a client reseeded
// from it resumes watching from seq 0.
func StoreRelister(store storage.Store) Relister {
	return func(prefix string) ([]types.ChangeEvent, error) {
		kvs, err := store.ListPrefix(prefix)
		if err != nil {
			return nil, err
		}
		snapshot := make([]types.ChangeEvent, 0, len(kvs))
		for _, kv := range kvs {
			snapshot = append(snapshot, types.ChangeEvent{Kind: types.EventPut, Key: kv.Key, Value: kv.Value})
		}
		return snapshot, nil
	}
}
