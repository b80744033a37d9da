package events

import (
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putEvent(key string) types.ChangeEvent {
	return types.ChangeEvent{Kind: types.EventPut, Key: key, Timestamp: time.Unix(0, 0)}
}

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	log := NewLog(10)

	e1 := log.Append(putEvent("/registry/pods/default/a"))
	e2 := log.Append(putEvent("/registry/pods/default/b"))
	e3 := log.Append(putEvent("/registry/pods/default/c"))

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
	assert.Equal(t, uint64(3), e3.Seq)
}

func TestSubscribeReplaysMatchingPrefix(t *testing.T) {
	log := NewLog(10)
	log.Append(putEvent("/registry/pods/default/a"))
	log.Append(putEvent("/registry/nodes/worker-1"))
	log.Append(putEvent("/registry/pods/default/b"))

	sub, err := log.Subscribe("/registry/pods/default/", 0)
	require.NoError(t, err)
	defer log.Close(sub)

	var got []string
	for i := 0; i < 2; i++ {
		ev := <-sub.Events()
		got = append(got, ev.Key)
	}
	assert.Equal(t, []string{"/registry/pods/default/a", "/registry/pods/default/b"}, got)
}

func TestSubscribeSinceSeqSkipsReplayed(t *testing.T) {
	log := NewLog(10)
	e1 := log.Append(putEvent("/registry/pods/default/a"))
	log.Append(putEvent("/registry/pods/default/b"))

	sub, err := log.Subscribe("/registry/pods/default/", e1.Seq)
	require.NoError(t, err)
	defer log.Close(sub)

	ev := <-sub.Events()
	assert.Equal(t, "/registry/pods/default/b", ev.Key)
}

func TestSubscribeDeliversLiveEvents(t *testing.T) {
	log := NewLog(10)
	sub, err := log.Subscribe("/registry/pods/default/", 0)
	require.NoError(t, err)
	defer log.Close(sub)

	log.Append(putEvent("/registry/pods/default/a"))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "/registry/pods/default/a", ev.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}
}

func TestSubscribeCompactedWhenSeqEvicted(t *testing.T) {
	log := NewLog(2)
	e1 := log.Append(putEvent("/registry/pods/default/a"))
	log.Append(putEvent("/registry/pods/default/b"))
	log.Append(putEvent("/registry/pods/default/c"))

	_, err := log.Subscribe("/registry/pods/default/", e1.Seq)
	assert.ErrorIs(t, err, ErrCompacted)
}

func TestCloseEndsSubscriptionWithoutError(t *testing.T) {
	log := NewLog(10)
	sub, err := log.Subscribe("/registry/pods/default/", 0)
	require.NoError(t, err)

	log.Close(sub)

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
}

func TestLaggedSubscriberIsDropped(t *testing.T) {
	log := NewLog(10000)
	sub, err := log.Subscribe("/registry/pods/default/", 0)
	require.NoError(t, err)

	for i := 0; i < subscriberQueueLimit+10; i++ {
		log.Append(putEvent("/registry/pods/default/flood"))
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-sub.Events():
			if !open {
				assert.ErrorIs(t, sub.Err(), ErrLagged)
				return
			}
		case <-deadline:
			t.Fatal("subscription never dropped for lag")
		}
	}
}
