package events

import "errors"

// ErrCompacted is returned by Subscribe when the requested sinceSeq has
// already fallen out of the ring buffer's retention window.
var ErrCompacted = errors.New("events: subscription compacted")

// ErrLagged is delivered to a Subscription when its delivery channel
// filled up and the log dropped it rather than block the writer.
var ErrLagged = errors.New("events: subscriber lagged")
