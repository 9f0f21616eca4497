// Package metrics provides the observability hooks of the poll loop.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs a nil check:
//
//	poller := daemon.NewPoller(cfg, deps) // deps.Recorder nil => NoopRecorder
//
// When the admin server is enabled a PrometheusRecorder is registered on a
// private registry and served at /metrics through HTTPHandler.
package metrics
