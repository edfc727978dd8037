/*
Package config loads and validates Voltstream's YAML configuration.

A single config file drives the whole service: the HTTP listen address, the
fan-out timing (broadcast and heartbeat periods), the database driver and its
connection settings, and logging. Missing values fall back to production
defaults; only the database section is strictly validated since a wrong DSN is
the one misconfiguration that cannot self-heal at runtime.

Example config.yaml:

	server:
	  listen: ":8080"
	  sse_rate_per_second: 5
	  sse_rate_burst: 10

	stream:
	  broadcast_interval_seconds: 5
	  heartbeat_interval_seconds: 30
	  fetch_timeout_seconds: 10

	database:
	  driver: postgres
	  postgres:
	    host: localhost
	    port: 5432
	    user: voltstream
	    password: secret
	    dbname: energy
	    sslmode: disable
	    timezone: UTC
	  connection_pool:
	    max_idle_conns: 5
	    max_open_conns: 25
	    conn_max_lifetime: 300

	logging:
	  level: info
	  json: true

The driver may be postgres, mysql, or sqlite; GetDSN assembles the matching
connection string.
*/
package config
