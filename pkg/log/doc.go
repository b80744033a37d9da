/*
Package log provides structured logging built on zerolog: a global
Logger instance, Init-time level/format configuration, and a handful of
component/entity-scoped child loggers (WithComponent, WithNodeID,
WithPodID) used across the server and agent processes.

	log.Init(log.FromAppConfig(cfg.LogLevel, cfg.LogJSON))
	log.Info("agent starting")

	podLog := log.WithPodID(pod.Namespace, pod.Name)
	podLog.Error().Err(err).Msg("container create failed")

Debug level is for development; Info is the default production level.
Never log secrets — token and credential values are never passed to a
logging call anywhere in this module.
*/
package log
