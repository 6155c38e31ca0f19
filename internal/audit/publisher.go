// Package audit records registration outcomes. Events are enriched with
// request metadata and fanned out to sinks; failures never reach callers.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"jesa/pkg/requestcontext"
)

// Sink persists or forwards events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only.
type Publisher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewPublisher fans events out to every sink in order.
func NewPublisher(logger *slog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, logger: logger}
}

// Emit enriches base from ctx and appends it to every sink. Sink errors are
// joined and returned so callers can log them; every sink is attempted.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if base.ClientIP == "" {
		base.ClientIP = requestcontext.ClientIP(ctx)
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" && base.Browser == "" {
		enrichUserAgent(&base, ua)
	}

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, base); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func enrichUserAgent(e *Event, raw string) {
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if version != "" {
		name += " " + version
	}
	e.Browser = name
	e.OS = ua.OS()
	e.Mobile = ua.Mobile()
	e.Bot = ua.Bot()
}

// LogSink writes each event as one structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"audit_id", e.ID,
		"action", string(e.Action),
		"variant", e.Variant,
		"base_id", e.BaseID,
		"detail_id", e.DetailID,
		"university", e.University,
		"reason", e.Reason,
		"request_id", e.RequestID,
		"client_ip", e.ClientIP,
		"browser", e.Browser,
	)
	return nil
}
