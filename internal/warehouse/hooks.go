package warehouse

import (
	"context"
	"log/slog"
	"time"
)

// Hook observes every statement the gateway sends to the warehouse.
// Implementations must be safe for concurrent use.
type Hook interface {
	BeforeQuery(ctx context.Context, query string, args []any)

	// AfterQuery receives the wall-clock time spent in the driver call and
	// the error returned to the caller (nil on success).
	AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error)
}

// HookFuncs adapts plain functions to Hook. Nil fields are skipped.
type HookFuncs struct {
	Before func(ctx context.Context, query string, args []any)
	After  func(ctx context.Context, query string, args []any, d time.Duration, err error)
}

func (h HookFuncs) BeforeQuery(ctx context.Context, query string, args []any) {
	if h.Before != nil {
		h.Before(ctx, query, args)
	}
}

func (h HookFuncs) AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error) {
	if h.After != nil {
		h.After(ctx, query, args, d, err)
	}
}

type hookChain []Hook

func newHookChain(hooks []Hook) hookChain {
	out := make(hookChain, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (c hookChain) before(ctx context.Context, query string, args []any) {
	for _, h := range c {
		safeBefore(h, ctx, query, args)
	}
}

func (c hookChain) after(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c {
		safeAfter(h, ctx, query, args, d, err)
	}
}

// A panicking hook must never take a request down with it.
func safeBefore(h Hook, ctx context.Context, query string, args []any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("warehouse: hook panic in BeforeQuery", "panic", r)
		}
	}()
	h.BeforeQuery(ctx, query, args)
}

func safeAfter(h Hook, ctx context.Context, query string, args []any, d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("warehouse: hook panic in AfterQuery", "panic", r)
		}
	}()
	h.AfterQuery(ctx, query, args, d, err)
}
