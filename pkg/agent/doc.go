/*
Package agent implements PodSync, the worker-side reconciliation loop
that converges locally-scheduled Pods against a runtime.Backend's
actual container set, and Recover, the agent startup procedure that
hands PodSync a freshly adopted in-memory map before its first tick.

PodSync owns the only mutable pod-to-container map on the agent; reads
from outside its own loop go through View, a snapshot copy.

Recover is not a separate code path: it performs the one-time discovery
prefix of listing running containers and desired Pods, adopts or stops
what it finds, and then leaves the rest to PodSync's normal create
path. Rebuilding the CNI's pod-IP table and resuming the heartbeat loop
are the caller's responsibility — both are external collaborators this
module only hands a converged PodSync to.
*/
package agent
