// Package server exposes a shell over HTTP: one websocket session per
// client, binary mutation frames out, JSON event frames in.
//
// The router serves /ws for sessions, /metrics for Prometheus and
// /healthz for liveness. Each session owns its own shell built by the
// application's factory, keeps a ring of recent frames for debugging,
// and optionally archives them to S3 when the session ends. Event
// handling and flushes are traced through OpenTelemetry.
package server
