package leader

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/metrics"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

// DefaultTTL and DefaultRenewInterval match the spec's lease defaults:
// a leader that stops renewing is presumed dead after 15s, and renews
// three times within that window.
const (
	DefaultTTL           = 15 * time.Second
	DefaultRenewInterval = 5 * time.Second
)

// Election runs the lease-based leader election protocol against a
// single Store key (types.LeaderLeaseKey). There is no compare-and-swap
// primitive: acquisition and renewal both write optimistically, then
// read the key back to confirm no concurrent writer won the race.
type Election struct {
	store         storage.Store
	holderID      string
	ttl           time.Duration
	renewInterval time.Duration

	mu          sync.RWMutex
	isLeader    bool
	lastRenewed time.Time
	onAcquire   func()
	onLose      func()
}

// NewElection creates an Election for holderID (typically the node's
// configured name). Callbacks may be set afterward with OnAcquire and
// OnLose before calling Run.
func NewElection(store storage.Store, holderID string, ttl, renewInterval time.Duration) *Election {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if renewInterval <= 0 {
		renewInterval = DefaultRenewInterval
	}
	return &Election{
		store:         store,
		holderID:      holderID,
		ttl:           ttl,
		renewInterval: renewInterval,
	}
}

// OnAcquire registers a callback invoked exactly once per leadership
// term, immediately after this process starts acting as leader.
func (e *Election) OnAcquire(fn func()) { e.onAcquire = fn }

// OnLose registers a callback invoked when this process stops acting
// as leader, whether by losing a renewal race or by voluntary demotion.
func (e *Election) OnLose(fn func()) { e.onLose = fn }

// IsLeader reports whether this process currently believes it holds the
// lease. The result can be stale by up to one renewInterval.
func (e *Election) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isLeader
}

// Run drives the election loop until ctx is canceled. It ticks every
// renewInterval, attempting to acquire the lease if unheld or expired,
// and renewing it if held. Cancellation is server shutdown, not a loss
// of leadership: Run returns without calling OnLose, and IsLeader keeps
// its last value.
func (e *Election) Run(ctx context.Context) {
	ticker := time.NewTicker(e.renewInterval)
	defer ticker.Stop()

	e.tick()
	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-ctx.Done():
			return
		}
	}
}

func (e *Election) tick() {
	lease, err := e.readLease()
	if err != nil {
		log.Error("leader election: failed to read lease: " + err.Error())
		metrics.RegisterComponent("leader-election", false, err.Error())
		e.maybeDemoteOnStoreError()
		return
	}
	metrics.RegisterComponent("leader-election", true, "")

	now := time.Now()

	switch {
	case lease == nil || lease.Expired(now):
		e.attemptAcquire(now)
	case lease.HolderID == e.holderID:
		e.renew(now)
	default:
		e.demote("")
	}
}

func (e *Election) readLease() (*types.Lease, error) {
	raw, err := e.store.Get(types.LeaderLeaseKey)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lease types.Lease
	if err := json.Unmarshal(raw, &lease); err != nil {
		return nil, err
	}
	return &lease, nil
}

// attemptAcquire writes a fresh lease naming this process holder, then
// reads it back: a concurrent candidate may have won the race between
// our write and our read.
func (e *Election) attemptAcquire(now time.Time) {
	lease := types.Lease{
		Name:       "controller-leader",
		HolderID:   e.holderID,
		AcquiredAt: now,
		RenewAt:    now,
		TTLSeconds: int64(e.ttl / time.Second),
	}
	data, err := json.Marshal(lease)
	if err != nil {
		return
	}
	if err := e.store.Put(types.LeaderLeaseKey, data); err != nil {
		metrics.LeaderRenewalsTotal.WithLabelValues("acquire_error").Inc()
		return
	}

	confirmed, err := e.readLease()
	if err != nil || confirmed == nil || confirmed.HolderID != e.holderID {
		metrics.LeaderRenewalsTotal.WithLabelValues("acquire_lost_race").Inc()
		return
	}

	metrics.LeaderRenewalsTotal.WithLabelValues("acquire").Inc()
	e.promote(now)
}

// renew extends an already-held lease. On failure to write or confirm
// the renewal, leadership is retained only until ttl/2 has elapsed
// since the last successful renewal, after which this process demotes
// itself rather than risk acting as leader alongside another candidate
// that has since legitimately acquired the lease.
func (e *Election) renew(now time.Time) {
	lease := types.Lease{
		Name:       "controller-leader",
		HolderID:   e.holderID,
		AcquiredAt: now,
		RenewAt:    now,
		TTLSeconds: int64(e.ttl / time.Second),
	}
	data, err := json.Marshal(lease)
	if err == nil {
		if putErr := e.store.Put(types.LeaderLeaseKey, data); putErr == nil {
			confirmed, readErr := e.readLease()
			if readErr == nil && confirmed != nil && confirmed.HolderID == e.holderID {
				metrics.LeaderRenewalsTotal.WithLabelValues("renew").Inc()
				e.promote(now)
				return
			}
		}
	}

	metrics.LeaderRenewalsTotal.WithLabelValues("renew_error").Inc()
	e.maybeDemoteOnStoreError()
}

func (e *Election) maybeDemoteOnStoreError() {
	e.mu.RLock()
	wasLeader := e.isLeader
	lastRenewed := e.lastRenewed
	e.mu.RUnlock()

	if wasLeader && time.Since(lastRenewed) > e.ttl/2 {
		e.demote("renewal failures exceeded half the lease ttl")
	}
}

func (e *Election) promote(now time.Time) {
	e.mu.Lock()
	becameLeader := !e.isLeader
	e.isLeader = true
	e.lastRenewed = now
	onAcquire := e.onAcquire
	e.mu.Unlock()

	metrics.IsLeader.Set(1)
	if becameLeader && onAcquire != nil {
		onAcquire()
	}
}

func (e *Election) demote(reason string) {
	e.mu.Lock()
	wasLeader := e.isLeader
	e.isLeader = false
	onLose := e.onLose
	e.mu.Unlock()

	metrics.IsLeader.Set(0)
	if wasLeader {
		if reason != "" {
			log.Warn("leader election: demoted: " + reason)
		}
		if onLose != nil {
			onLose()
		}
	}
}
