/*
Package events implements the sequence-numbered change log every Store
mutation is appended to, and the prefix-scoped Subscribe API controllers
and watch clients read it through.

Each ChangeEvent carries a Seq strictly greater than every event
allocated before it. Log retains the most recent capacity events;
Subscribe replays the retained window matching a key prefix, then
switches to live delivery as further events are appended.

# Compaction and lag

A Subscribe call for a sinceSeq older than the retained window fails
fast with ErrCompacted: the caller must re-list the current state and
resubscribe from the newest seq, rather than silently missing history.

A live subscriber that falls more than subscriberQueueLimit events
behind the writer is dropped with ErrLagged. Log never blocks Append
waiting for a slow subscriber to drain.

# Usage

	log := events.NewLog(10000)
	log.Append(types.ChangeEvent{Kind: types.EventPut, Key: "/registry/pods/default/web-1"})

	sub, err := log.Subscribe("/registry/pods/default/", 0)
	if err != nil {
		// ErrCompacted
	}
	defer log.Close(sub)
	for ev := range sub.Events() {
		// ev.Seq is monotonically increasing
	}
	if err := sub.Err(); err != nil {
		// ErrLagged, or nil if Close was caller-initiated
	}
*/
package events
