package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/app"
	"github.com/lumen-dev/lumen/pkg/events"
)

// EventFrame is the JSON frame clients send over the websocket.
type EventFrame struct {
	Handler uint32 `json:"handler"`
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Session pairs one websocket connection with one shell. The loop is
// strictly alternating: read an event, dispatch it, flush, send the
// frame. The shell is never touched from another goroutine.
type Session struct {
	id      string
	conn    *websocket.Conn
	shell   *app.Shell
	cfg     *Config
	buf     []byte
	history *FrameHistory
	logger  *slog.Logger
	metrics *metrics
	tracer  trace.Tracer

	closeOnce sync.Once
}

func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "s-unknown"
	}
	return hex.EncodeToString(b[:])
}

func newSession(conn *websocket.Conn, shell *app.Shell, cfg *Config, m *metrics, tracer trace.Tracer) *Session {
	id := newSessionID()
	return &Session{
		id:      id,
		conn:    conn,
		shell:   shell,
		cfg:     cfg,
		buf:     make([]byte, cfg.BufferSize),
		history: NewFrameHistory(cfg.HistorySize),
		logger:  cfg.Logger.With("session", id),
		metrics: m,
		tracer:  tracer,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// History returns the session's frame ring.
func (s *Session) History() *FrameHistory {
	return s.history
}

// Run mounts the shell, streams the initial frame, then serves events
// until the connection closes or ctx is done.
func (s *Session) Run(ctx context.Context) {
	defer s.Close(ctx)

	n, err := s.shell.Rebuild(s.buf)
	if err != nil {
		s.metrics.sessionErrors.WithLabelValues("mount").Inc()
		s.logger.Error("mount failed", "error", err)
		return
	}
	if err := s.sendFrame(s.buf[:n]); err != nil {
		s.logger.Error("mount frame write failed", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read failed", "error", err)
			}
			return
		}

		var ev EventFrame
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.metrics.eventsTotal.WithLabelValues("invalid").Inc()
			s.logger.Warn("event frame rejected", "error", errors.New("E101").Wrap(err))
			continue
		}
		if err := s.serveEvent(ctx, ev); err != nil {
			s.logger.Error("event failed", "error", err)
			return
		}
	}
}

// serveEvent dispatches one event and flushes the resulting render, if
// any, back over the wire.
func (s *Session) serveEvent(ctx context.Context, ev EventFrame) error {
	ctx, span := s.tracer.Start(ctx, "lumen.event", trace.WithAttributes(
		attribute.Int64("lumen.handler_id", int64(ev.Handler)),
		attribute.String("lumen.event_type", ev.Type),
	))
	defer span.End()

	dirty, err := s.shell.HandleEvent(events.HandlerID(ev.Handler), events.Payload{
		Type:  ev.Type,
		Key:   ev.Key,
		Value: ev.Value,
	})
	if err != nil {
		// Stale handler ids race in-flight diffs; drop the event.
		if errors.Is(err, "E060") {
			s.metrics.eventsTotal.WithLabelValues("stale").Inc()
			span.SetStatus(codes.Ok, "stale handler")
			return nil
		}
		s.metrics.eventsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return err
	}
	s.metrics.eventsTotal.WithLabelValues("ok").Inc()
	if !dirty {
		return nil
	}
	return s.flush(ctx)
}

// flush renders the dirty scopes and sends the frame.
func (s *Session) flush(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "lumen.flush")
	defer span.End()

	start := time.Now()
	n, err := s.shell.Flush(s.buf)
	s.metrics.flushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.sessionErrors.WithLabelValues("flush").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")
		return err
	}
	span.SetAttributes(attribute.Int("lumen.frame_bytes", n))
	if n == 0 {
		return nil
	}
	return s.sendFrame(s.buf[:n])
}

// sendFrame writes one binary mutation frame and records it.
func (s *Session) sendFrame(frame []byte) error {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		s.metrics.sessionErrors.WithLabelValues("write").Inc()
		return err
	}
	s.history.Add(frame)
	s.metrics.framesTotal.Inc()
	s.metrics.frameBytes.Add(float64(len(frame)))
	return nil
}

// Close archives the frame history, destroys the shell and closes the
// connection. Safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if s.cfg.Archiver != nil {
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := s.cfg.Archiver.Archive(actx, s.id, s.history.Snapshot()); err != nil {
				s.metrics.sessionErrors.WithLabelValues("archive").Inc()
				s.logger.Error("archive failed", "error", err)
			}
		}
		s.shell.Destroy()
		s.conn.Close()
		s.logger.Info("session closed")
	})
}
