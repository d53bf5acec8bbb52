// Package audit carries security events out of the login core. Emitting never
// fails the caller: sinks that cannot deliver log the problem and move on.
package audit

import (
	"context"
	"sync"

	"facegate.io/entities"
	"facegate.io/infrastructure/logger"
)

type Emitter interface {
	Emit(ctx context.Context, event entities.AuditEvent)
}

type clientKey struct{}

// WithClient attaches request metadata that emitters copy onto events which
// do not carry their own.
func WithClient(ctx context.Context, client *entities.ClientInfo) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, clientKey{}, client)
}

func ClientFrom(ctx context.Context) *entities.ClientInfo {
	if ctx == nil {
		return nil
	}
	client, _ := ctx.Value(clientKey{}).(*entities.ClientInfo)
	return client
}

func normalise(ctx context.Context, event entities.AuditEvent) entities.AuditEvent {
	if event.Client == nil {
		event.Client = ClientFrom(ctx)
	}
	return *event.ParseModel().(*entities.AuditEvent)
}

// Multi fans an event out to every emitter in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event entities.AuditEvent) {
	event = normalise(ctx, event)
	for _, e := range m {
		if e != nil {
			e.Emit(ctx, event)
		}
	}
}

// LogEmitter writes events to the structured log.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, event entities.AuditEvent) {
	event = normalise(ctx, event)
	opts := []logger.LoggerOptions{
		{Key: "eventID", Data: event.ID},
		{Key: "type", Data: event.Type},
		{Key: "accountID", Data: event.AccountID},
	}
	if event.Channel != nil {
		opts = append(opts, logger.LoggerOptions{Key: "channel", Data: *event.Channel})
	}
	if event.Outcome != "" {
		opts = append(opts, logger.LoggerOptions{Key: "outcome", Data: event.Outcome})
	}
	if event.OperatorID != nil {
		opts = append(opts, logger.LoggerOptions{Key: "operatorID", Data: *event.OperatorID})
	}
	if event.Client != nil {
		opts = append(opts, logger.LoggerOptions{Key: "ipAddress", Data: event.Client.IPAddress})
	}
	if len(event.Details) > 0 {
		opts = append(opts, logger.LoggerOptions{Key: "details", Data: event.Details})
	}
	logger.Info("audit event", opts...)
}

// Recorder keeps events in memory. Handy for tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	events []entities.AuditEvent
}

func (r *Recorder) Emit(ctx context.Context, event entities.AuditEvent) {
	event = normalise(ctx, event)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []entities.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in emission order.
func (r *Recorder) Types() []entities.AuditEventType {
	events := r.Events()
	out := make([]entities.AuditEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func (r *Recorder) Count(t entities.AuditEventType) int {
	count := 0
	for _, e := range r.Events() {
		if e.Type == t {
			count++
		}
	}
	return count
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, entities.AuditEvent) {}

type Appender interface {
	Append(ctx context.Context, event *entities.AuditEvent) error
}

// StoreEmitter writes events straight to an audit store. Used when no task
// queue is configured.
type StoreEmitter struct {
	Store Appender
}

func (s StoreEmitter) Emit(ctx context.Context, event entities.AuditEvent) {
	event = normalise(ctx, event)
	// the request may already be cancelled; the record must still land
	if err := s.Store.Append(context.WithoutCancel(ctx), &event); err != nil {
		logger.Error("failed to persist audit event", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "type",
			Data: event.Type,
		})
	}
}
