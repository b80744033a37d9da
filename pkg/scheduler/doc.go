/*
Package scheduler assigns Pending Pods to Nodes.

Eligible filters the Node set down to those Ready, uncordoned, matching
every node_selector key, tolerating every NoSchedule/NoExecute taint,
and with enough unallocated capacity for the Pod's total resource
requests. Pick then selects one Eligible node by round-robin index,
ranking nodes by name first so ties resolve deterministically.

Scheduler wraps this pure logic in a periodic sweep over the Store:
every period it lists Pending, unassigned Pods and the current Node
set, and for each pod either assigns a NodeName and Status Scheduled,
or — if Eligible returns none — records a SchedulingDeferred status
message and leaves the pod Pending for the next sweep.

	s := scheduler.New(store)
	go s.Run(ctx)
*/
package scheduler
