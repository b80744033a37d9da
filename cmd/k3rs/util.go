package main

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
)

func newUUID() string {
	return uuid.New().String()
}

// seedClusterToken writes the server's configured token as the cluster's
// shared join secret the first time a server starts against this store.
// A later server start with a different --token is rejected rather than
// silently overwriting the secret every agent already joined against.
func seedClusterToken(store storage.Store, token string) error {
	if token == "" {
		return nil
	}
	existing, err := store.Get(types.ClusterTokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return store.Put(types.ClusterTokenKey, []byte(token))
	}
	if err != nil {
		return err
	}
	if existing == nil {
		return store.Put(types.ClusterTokenKey, []byte(token))
	}
	if subtle.ConstantTimeCompare(existing, []byte(token)) != 1 {
		return fmt.Errorf("configured token does not match this cluster's existing join secret")
	}
	return nil
}

// checkJoinToken validates an agent's configured token against the
// cluster's join secret, if one has been set. A cluster started without
// a token accepts any agent, matching the optional nature of the token
// field in the configuration surface.
func checkJoinToken(store storage.Store, token string) error {
	existing, err := store.Get(types.ClusterTokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if subtle.ConstantTimeCompare(existing, []byte(token)) != 1 {
		return fmt.Errorf("join rejected: token does not match cluster's join secret")
	}
	return nil
}
