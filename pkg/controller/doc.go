/*
Package controller holds the eight level-triggered reconciliation loops
that converge cluster state toward what's declared in Store: Node,
Deployment, ReplicaSet, DaemonSet, Job, CronJob, HPA, and Eviction.

Each Controller reads the full set of owned and desired resources on
every tick, computes the delta, and issues the minimum Put/Delete calls
to close it — a missed tick is never observable since the next one
recomputes from scratch. Runner ticks every registered Controller on
its own period and cancels them all together; it is started only while
this process holds the leader lease and stopped immediately on loss.

	runner := controller.NewRunner(
		controller.NewNodeController(store),
		controller.NewDeploymentController(store),
		controller.NewReplicaSetController(store),
		controller.NewDaemonSetController(store),
		controller.NewJobController(store),
		controller.NewCronJobController(store),
		controller.NewHPAController(store, controller.NewStoreMetricsSource(store)),
		controller.NewEvictionController(store, cfg.EvictionGrace),
	)
	election.OnAcquire(func() { runner.Start(ctx) })
	election.OnLose(runner.Stop)
*/
package controller
