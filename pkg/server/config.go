package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultAddr        = ":8420"
	defaultBufferSize  = 64 * 1024
	defaultHistorySize = 100
	defaultReadTimeout = 60 * time.Second
	defaultTracerName  = "lumen"
)

// Config holds the serving options.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// BufferSize is the capacity of each session's mutation buffer.
	// Frames that do not fit abort the render pass cleanly.
	BufferSize int

	// HistorySize is how many sent frames each session retains.
	HistorySize int

	// ReadTimeout bounds how long a session waits for a client frame.
	ReadTimeout time.Duration

	// Logger receives session and server logs.
	Logger *slog.Logger

	// Registry receives the server metrics.
	Registry prometheus.Registerer

	// TracerName names the OpenTelemetry tracer.
	TracerName string

	// Archiver, when set, receives each session's frame history on
	// close.
	Archiver *Archiver

	// CheckOrigin overrides the websocket origin check. Nil accepts
	// same-origin requests only.
	CheckOrigin func(origin string) bool
}

// Option configures a server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithBufferSize sets the per-session mutation buffer capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithHistorySize sets how many sent frames a session retains.
func WithHistorySize(n int) Option {
	return func(c *Config) { c.HistorySize = n }
}

// WithReadTimeout sets the client read deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(r prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = r }
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) { c.TracerName = name }
}

// WithArchiver sets the frame-history archiver.
func WithArchiver(a *Archiver) Option {
	return func(c *Config) { c.Archiver = a }
}

// WithCheckOrigin sets the websocket origin check.
func WithCheckOrigin(fn func(origin string) bool) Option {
	return func(c *Config) { c.CheckOrigin = fn }
}

func defaultConfig() Config {
	return Config{
		Addr:        defaultAddr,
		BufferSize:  defaultBufferSize,
		HistorySize: defaultHistorySize,
		ReadTimeout: defaultReadTimeout,
		Logger:      slog.Default(),
		Registry:    prometheus.DefaultRegisterer,
		TracerName:  defaultTracerName,
	}
}
