package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

const (
	nodeReadyThreshold    = 30 * time.Second
	nodeNotReadyThreshold = 60 * time.Second
)

// NodeController assigns each Node a Status from heartbeat age: Ready
// under 30s, NotReady under 60s, Unknown beyond that. The control-plane
// node never sends a heartbeat of its own, so it is forced Ready.
type NodeController struct {
	store storage.Store
}

// NewNodeController builds a NodeController over store.
func NewNodeController(store storage.Store) *NodeController {
	return &NodeController{store: store}
}

func (c *NodeController) Name() string        { return "node" }
func (c *NodeController) Period() time.Duration { return 15 * time.Second }

func (c *NodeController) Reconcile(ctx context.Context) error {
	kvs, err := c.store.ListPrefix(types.NodeKeyPrefix)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, kv := range kvs {
		var node types.Node
		if err := json.Unmarshal(kv.Value, &node); err != nil {
			continue
		}

		want := statusFor(&node, now)
		if want == node.Status {
			continue
		}
		if want == types.NodeUnknown {
			node.UnknownSince = now
		} else {
			node.UnknownSince = time.Time{}
		}
		node.Status = want

		data, err := json.Marshal(&node)
		if err != nil {
			continue
		}
		if err := c.store.Put(types.NodeKey(node.Name), data); err != nil {
			return err
		}
	}
	return nil
}

func statusFor(node *types.Node, now time.Time) types.NodeStatus {
	if node.IsControlPlane() {
		return types.NodeReady
	}
	age := now.Sub(node.LastHeartbeat)
	switch {
	case age < nodeReadyThreshold:
		return types.NodeReady
	case age < nodeNotReadyThreshold:
		return types.NodeNotReady
	default:
		return types.NodeUnknown
	}
}
