package tunnel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestBackoffForSchedule(t *testing.T) {
	require.Equal(t, 1*time.Second, backoffFor(0))
	require.Equal(t, 2*time.Second, backoffFor(1))
	require.Equal(t, 30*time.Second, backoffFor(5))
	require.Equal(t, 30*time.Second, backoffFor(50))
}

func TestReconnectingClientDeliversLocalEvents(t *testing.T) {
	log := events.NewLog(100)
	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/a", Value: []byte("1")})

	client := NewReconnectingClient(LocalDialer(log), "/registry/pods/", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	select {
	case ev := <-client.Events():
		require.Equal(t, "/registry/pods/default/a", ev.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for replayed event")
	}

	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/b", Value: []byte("2")})
	select {
	case ev := <-client.Events():
		require.Equal(t, "/registry/pods/default/b", ev.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}

	require.Equal(t, uint64(2), client.LastSeq())
	client.Close()
}

func TestReconnectingClientReseedsOnCompaction(t *testing.T) {
	log := events.NewLog(1)
	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/a", Value: []byte("1")})
	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/b", Value: []byte("2")})
	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/c", Value: []byte("3")})

	relistCalled := false
	relist := func(prefix string) ([]types.ChangeEvent, error) {
		relistCalled = true
		return []types.ChangeEvent{{Kind: types.EventPut, Key: "/registry/pods/default/a", Value: []byte("snapshot"), Seq: 99}}, nil
	}

	client := NewReconnectingClient(LocalDialer(log), "/registry/pods/", 1, relist)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	select {
	case ev := <-client.Events():
		require.True(t, relistCalled)
		require.Equal(t, []byte("snapshot"), ev.Value)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reseed event")
	}

	require.Equal(t, uint64(99), client.LastSeq())
	client.Close()
}

func TestReconnectingClientWaitsBackoffAfterDialFailure(t *testing.T) {
	attempts := 0
	dial := func(ctx context.Context) (Conn, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("connection refused")
		}
		return &localConn{log: events.NewLog(10)}, nil
	}

	client := NewReconnectingClient(dial, "/registry/pods/", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	client.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()
	client.Close()

	require.Equal(t, 1, attempts)
}

func TestStoreRelisterReturnsCurrentKeys(t *testing.T) {
	store := newStubStore(map[string][]byte{
		"/registry/pods/default/a": []byte("1"),
	})
	relist := StoreRelister(store)

	snapshot, err := relist("/registry/pods/")
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Equal(t, "/registry/pods/default/a", snapshot[0].Key)
}
