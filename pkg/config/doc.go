/*
Package config holds the server/agent configuration surface of §6:
data_dir, token, listen_port, node_name, object_store_url, lease_ttl,
renew_interval, eviction_grace.

Defaults returns the baseline Config; LoadFile overlays a YAML file on
top of it. cmd/k3rs completes the CLI > file > defaults precedence by
overlaying, on the already-merged Config, only the cobra flags marked
as changed, so an explicit flag wins and an absent one falls through to
whatever LoadFile and Defaults produced.
*/
package config
