package events

import (
	"strings"
	"sync"

	"github.com/k3rs/k3rs/pkg/types"
)

// subscriberQueueLimit bounds how many undelivered events a Subscription
// may accumulate before it's dropped with ErrLagged. Unlike a fixed
// channel buffer this lets replay enqueue arbitrarily many historical
// events without a concurrent live append racing ahead of them.
const subscriberQueueLimit = 4096

// Log is the sequence-numbered, prefix-filterable change log every Store
// mutation is appended to. It keeps the last capacity events in memory;
// older events are evicted and a Subscribe for an evicted sequence fails
// with ErrCompacted rather than silently skipping history.
type Log struct {
	mu       sync.Mutex
	capacity int
	buf      []types.ChangeEvent // oldest first, len <= capacity
	oldest   uint64              // seq of buf[0]; valid only if len(buf) > 0
	nextSeq  uint64
	subs     map[*Subscription]struct{}
}

// NewLog creates an event log retaining up to capacity events.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Log{
		capacity: capacity,
		nextSeq:  1,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Append records a mutation and fans it out to every live subscription
// whose prefix matches key. The returned event's Seq is strictly greater
// than every sequence number previously allocated by this log.
func (l *Log) Append(ev types.ChangeEvent) types.ChangeEvent {
	l.mu.Lock()
	ev.Seq = l.nextSeq
	l.nextSeq++

	l.buf = append(l.buf, ev)
	if len(l.buf) > l.capacity {
		dropped := len(l.buf) - l.capacity
		l.buf = l.buf[dropped:]
	}
	if len(l.buf) > 0 {
		l.oldest = l.buf[0].Seq
	}

	for s := range l.subs {
		if strings.HasPrefix(ev.Key, s.prefix) {
			s.enqueue(ev, l)
		}
	}
	l.mu.Unlock()
	return ev
}

// unsubscribeLocked removes s from the subscriber set. l.mu must be held.
func (l *Log) unsubscribeLocked(s *Subscription) {
	delete(l.subs, s)
}

// Subscribe returns a Subscription delivering every retained event whose
// key has the given prefix and whose Seq is greater than sinceSeq,
// followed by live events as they're appended. sinceSeq of 0 replays the
// entire retained window. If sinceSeq refers to a sequence already
// evicted from the buffer, Subscribe returns ErrCompacted.
func (l *Log) Subscribe(prefix string, sinceSeq uint64) (*Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sinceSeq > 0 && len(l.buf) > 0 && sinceSeq < l.oldest {
		return nil, ErrCompacted
	}
	if sinceSeq > 0 && len(l.buf) == 0 && sinceSeq < l.nextSeq-1 {
		return nil, ErrCompacted
	}

	sub := &Subscription{
		prefix: prefix,
		log:    l,
		ch:     make(chan types.ChangeEvent),
		done:   make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	for _, ev := range l.buf {
		if ev.Seq > sinceSeq && strings.HasPrefix(ev.Key, prefix) {
			sub.queue = append(sub.queue, ev)
		}
	}

	l.subs[sub] = struct{}{}
	go sub.pump()
	return sub, nil
}

// Close unsubscribes and releases sub. Safe to call more than once.
func (l *Log) Close(sub *Subscription) {
	l.mu.Lock()
	l.unsubscribeLocked(sub)
	l.mu.Unlock()
	sub.stop(nil)
}

// Subscription is a live, ordered feed of ChangeEvents matching one
// prefix. Callers drain Events() until it's closed, then check Err() to
// distinguish a clean Close from ErrCompacted/ErrLagged.
type Subscription struct {
	prefix string
	log    *Log

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []types.ChangeEvent
	closed bool
	err    error

	ch   chan types.ChangeEvent
	done chan struct{}
}

// Events returns the channel of matching events. It is closed when the
// subscription ends, for any reason.
func (s *Subscription) Events() <-chan types.ChangeEvent { return s.ch }

// Err returns the reason Events() closed, or nil for a caller-initiated
// Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// enqueue appends ev to the subscriber's pending queue. Called with
// s.log.mu held by Append.
func (s *Subscription) enqueue(ev types.ChangeEvent, l *Log) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= subscriberQueueLimit {
		s.mu.Unlock()
		l.unsubscribeLocked(s)
		s.stop(ErrLagged)
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
	s.mu.Unlock()
}

// pump delivers queued events to ch in order until the subscription is
// stopped. It is the only goroutine that sends on ch, so replay and live
// events can never interleave out of order.
func (s *Subscription) pump() {
	defer close(s.ch)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) stop(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	s.mu.Unlock()
	close(s.done)
	s.cond.Signal()
}
