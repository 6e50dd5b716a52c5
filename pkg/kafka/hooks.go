package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	applogger "FinSignal/pkg/logger"
)

// ConsumerHook observes message handling. Before may replace the context or reject
// the message; a rejected message is sent to the DLQ without being handled.
type ConsumerHook interface {
	Before(ctx context.Context, msg kafka.Message) (context.Context, error)
	After(ctx context.Context, msg kafka.Message, err error, elapsed time.Duration)
}

// HookFuncs adapts plain functions; nil members are skipped.
type HookFuncs struct {
	BeforeFn func(ctx context.Context, msg kafka.Message) (context.Context, error)
	AfterFn  func(ctx context.Context, msg kafka.Message, err error, elapsed time.Duration)
}

func (h HookFuncs) Before(ctx context.Context, msg kafka.Message) (context.Context, error) {
	if h.BeforeFn == nil {
		return ctx, nil
	}
	return h.BeforeFn(ctx, msg)
}

func (h HookFuncs) After(ctx context.Context, msg kafka.Message, err error, elapsed time.Duration) {
	if h.AfterFn != nil {
		h.AfterFn(ctx, msg, err, elapsed)
	}
}

// HookChain runs Before in order and After in reverse order.
type HookChain []ConsumerHook

func (c HookChain) Before(ctx context.Context, msg kafka.Message) (context.Context, error) {
	for i, h := range c {
		next, err := callBefore(h, ctx, msg)
		if err != nil {
			return ctx, fmt.Errorf("hook %d: %w", i, err)
		}
		if next != nil {
			ctx = next
		}
	}
	return ctx, nil
}

func (c HookChain) After(ctx context.Context, msg kafka.Message, err error, elapsed time.Duration) {
	for i := len(c) - 1; i >= 0; i-- {
		callAfter(c[i], ctx, msg, err, elapsed)
	}
}

func callBefore(h ConsumerHook, ctx context.Context, msg kafka.Message) (out context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in hook: %v", r)
		}
	}()
	return h.Before(ctx, msg)
}

func callAfter(h ConsumerHook, ctx context.Context, msg kafka.Message, err error, elapsed time.Duration) {
	defer func() { _ = recover() }()
	h.After(ctx, msg, err, elapsed)
}

type ctxKey string

const traceIDKey ctxKey = "trace_id"

const TraceHeader = "x-trace-id"

// TraceID returns the trace id stored by TraceHook, or "".
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTraceID stores id on ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// TraceHook propagates the x-trace-id header into the context, minting one if absent.
func TraceHook() ConsumerHook {
	return HookFuncs{BeforeFn: func(ctx context.Context, msg kafka.Message) (context.Context, error) {
		id := headerValue(msg, TraceHeader)
		if id == "" {
			id = uuid.NewString()
		}
		return WithTraceID(ctx, id), nil
	}}
}

// LoggingHook logs failed messages at warn and slow ones at debug.
func LoggingHook(log *applogger.Logger, slow time.Duration) ConsumerHook {
	return HookFuncs{AfterFn: func(ctx context.Context, msg kafka.Message, err error, elapsed time.Duration) {
		fields := []applogger.Field{
			applogger.String("topic", msg.Topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.String("trace_id", TraceID(ctx)),
			applogger.Duration("elapsed_ms", elapsed),
		}
		switch {
		case err != nil:
			log.Warn("kafka message failed", append(fields, applogger.Error(err))...)
		case slow > 0 && elapsed > slow:
			log.Debug("kafka message slow", fields...)
		}
	}}
}
