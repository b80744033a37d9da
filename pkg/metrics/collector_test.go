package metrics

import (
	"testing"
	"time"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir(), events.NewLog(100))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestCollectStoreHealthRegistersHealthyStore covers the probe that
// replaced the hardcoded "store" critical-component stand-in: a live
// Store round-trip now drives the registered health, rather than
// nothing ever calling RegisterComponent("store", ...) at all.
func TestCollectStoreHealthRegistersHealthyStore(t *testing.T) {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}

	store := newTestStore(t)
	c := NewCollector(store, nil)
	c.collectStoreHealth()

	comp, ok := healthChecker.components["store"]
	if !ok {
		t.Fatal("expected \"store\" component to be registered")
	}
	if !comp.Healthy {
		t.Errorf("expected store to report healthy, got message %q", comp.Message)
	}
}

// TestCollectStoreHealthRegistersUnhealthyAfterClose mirrors
// NodeController's statusFor-driven transitions: a closed Store's Get
// fails, and that failure is exactly what should flip the component
// unhealthy.
func TestCollectStoreHealthRegistersUnhealthyAfterClose(t *testing.T) {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}

	bolt, err := storage.NewBoltStore(t.TempDir(), events.NewLog(100))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := bolt.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	c := NewCollector(bolt, nil)
	c.collectStoreHealth()

	comp, ok := healthChecker.components["store"]
	if !ok {
		t.Fatal("expected \"store\" component to be registered")
	}
	if comp.Healthy {
		t.Error("expected store to report unhealthy once the underlying database is closed")
	}
}
