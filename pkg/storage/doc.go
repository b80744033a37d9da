/*
Package storage provides the BoltDB-backed Store: an ordered key/value
space for every "/registry/..." resource, with every mutation fanned
out through an events.Log for watchers.

# Architecture

A single bbolt bucket holds all registry keys. BoltDB's B+tree keeps
keys sorted, so ListPrefix is a cursor seek to the prefix followed by a
forward scan until the prefix stops matching, rather than a filtered
full-bucket walk.

	store, err := storage.NewBoltStore(dataDir, log)
	...
	store.Put(types.PodKey("default", "web-1"), data)
	kvs, err := store.ListPrefix(types.PodPrefix("default"))

# Transactions

Reads use db.View (concurrent, snapshot-isolated); writes use db.Update
(serialized, fsync on commit). Put and Delete append to the injected
events.Log only after the bbolt transaction commits, so a ChangeEvent
is never observed for a write that didn't durably land.

# Errors

Get returns ErrNotFound for an absent key. Any bbolt I/O failure is
wrapped in ErrUnavailable, which callers map to the StoreUnavailable
condition rather than inspecting the underlying bolt error.
*/
package storage
