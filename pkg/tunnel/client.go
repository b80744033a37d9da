package tunnel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/types"
)

// backoffSchedule is the reconnect delay sequence of §4.9: 1s, 2s, 4s,
// 8s, 16s, then 30s forever.
var backoffSchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
	30 * time.Second,
}

func backoffFor(attempt int) time.Duration {
	if attempt >= len(backoffSchedule) {
		return backoffSchedule[len(backoffSchedule)-1]
	}
	return backoffSchedule[attempt]
}

// Conn is one live watch session over the agent-server channel. A real
// implementation carries this over a network transport (out of scope
// here per spec's Out-of-scope list); tests and in-process wiring use a
// Conn backed directly by an events.Log.
type Conn interface {
	// Watch streams every change matching prefix with Seq > sinceSeq.
	// It returns events.ErrCompacted if sinceSeq has already fallen out
	// of the server's retention window.
	Watch(ctx context.Context, prefix string, sinceSeq uint64) (<-chan types.ChangeEvent, error)
	Close() error
}

// Dialer opens a new Conn. Called once per connection attempt.
type Dialer func(ctx context.Context) (Conn, error)

// Relister rebuilds a full snapshot of prefix as synthetic Put events,
// used to recover from events.ErrCompacted. The client resumes watching
// from the highest Seq among the returned events (0 if none carries one).
type Relister func(prefix string) ([]types.ChangeEvent, error)

// Client is the agent-side consumer of the tunnel: a single ordered
// stream of ChangeEvents that keeps flowing across reconnects.
type Client interface {
	Events() <-chan types.ChangeEvent
	Close()
}

// ReconnectingClient maintains a Conn to the server, resubscribing with
// exponential backoff on disconnect and resuming from the last observed
// seq. PodSync, the service proxy and DNS never block on it: it only
// ever feeds a channel consumers read at their own pace.
type ReconnectingClient struct {
	dial     Dialer
	prefix   string
	relist   Relister
	out      chan types.ChangeEvent
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
	lastSeq  uint64
}

// NewReconnectingClient builds a client that watches prefix starting
// from sinceSeq, dialing connections via dial. relist may be nil if the
// caller has no way to recover from a Compacted error; in that case the
// client restarts from seq 0, observing a full replay of retained
// history instead of a true snapshot.
func NewReconnectingClient(dial Dialer, prefix string, sinceSeq uint64, relist Relister) *ReconnectingClient {
	return &ReconnectingClient{
		dial:    dial,
		prefix:  prefix,
		relist:  relist,
		out:     make(chan types.ChangeEvent, 256),
		done:    make(chan struct{}),
		lastSeq: sinceSeq,
	}
}

// Start begins the reconnect loop. It returns immediately.
func (c *ReconnectingClient) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(ctx)
}

// Close stops the reconnect loop and closes the event channel.
func (c *ReconnectingClient) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

// Events returns the channel of inbound ChangeEvents, live across
// reconnects. It is closed once Close completes.
func (c *ReconnectingClient) Events() <-chan types.ChangeEvent { return c.out }

// LastSeq returns the highest seq observed so far.
func (c *ReconnectingClient) LastSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeq
}

func (c *ReconnectingClient) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.out)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if !c.sleep(ctx, attempt) {
				return
			}
			attempt++
			continue
		}

		seqBefore := c.LastSeq()
		if !c.pump(ctx, conn) {
			conn.Close()
			return
		}
		conn.Close()
		// A connection that advanced lastSeq restarts the backoff schedule.
		if c.LastSeq() != seqBefore {
			attempt = 0
		}

		if !c.sleep(ctx, attempt) {
			return
		}
		attempt++
	}
}

// pump drains one connection's watch channel into out until it ends,
// advancing lastSeq with every delivered event. Returns false if ctx was
// canceled.
func (c *ReconnectingClient) pump(ctx context.Context, conn Conn) bool {
	sinceSeq := c.LastSeq()
	ch, err := conn.Watch(ctx, c.prefix, sinceSeq)
	if errors.Is(err, events.ErrCompacted) {
		log.Warn("tunnel: watch compacted past seq, re-listing")
		return c.reseed(ctx, conn)
	}
	if err != nil {
		log.Error("tunnel: watch failed: " + err.Error())
		return true
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return true
			}
			c.mu.Lock()
			if ev.Seq > c.lastSeq {
				c.lastSeq = ev.Seq
			}
			c.mu.Unlock()
			select {
			case c.out <- ev:
			case <-ctx.Done():
				return false
			}
		case <-ctx.Done():
			return false
		}
	}
}

// reseed rebuilds state via Relister after a Compacted error, feeding
// the snapshot through out as a batch of synthetic Put events and
// setting lastSeq to the snapshot's highest Seq. It does not resume the
// watch itself: run closes conn and redials after the backoff delay.
func (c *ReconnectingClient) reseed(ctx context.Context, conn Conn) bool {
	if c.relist == nil {
		c.mu.Lock()
		c.lastSeq = 0
		c.mu.Unlock()
		return true
	}

	snapshot, err := c.relist(c.prefix)
	if err != nil {
		log.Error("tunnel: relist after compaction: " + err.Error())
		return true
	}

	var maxSeq uint64
	for _, ev := range snapshot {
		select {
		case c.out <- ev:
		case <-ctx.Done():
			return false
		}
		if ev.Seq > maxSeq {
			maxSeq = ev.Seq
		}
	}

	c.mu.Lock()
	c.lastSeq = maxSeq
	c.mu.Unlock()
	return true
}

func (c *ReconnectingClient) sleep(ctx context.Context, attempt int) bool {
	select {
	case <-time.After(backoffFor(attempt)):
		return true
	case <-ctx.Done():
		return false
	}
}
