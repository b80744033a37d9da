/*
Package leader implements lease-based leader election over a single
Store key, without a compare-and-swap primitive.

Every renewInterval, Election reads the lease at
types.LeaderLeaseKey. If it's absent or expired, this process attempts
to acquire it by writing itself in as holder and reading the key back
to confirm no concurrent candidate won the race. If this process
already holds it, it renews the same way. A renewal or acquisition that
can't be confirmed within half the lease TTL causes voluntary demotion,
so a partitioned former leader stops acting as leader before another
process can legitimately acquire the lease.

	election := leader.NewElection(store, nodeName, leader.DefaultTTL, leader.DefaultRenewInterval)
	election.OnAcquire(func() { controllers.Start() })
	election.OnLose(func() { controllers.Stop() })
	go election.Run(ctx)
*/
package leader
