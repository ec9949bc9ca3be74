package client

import (
	"context"
	"log/slog"
)

// Notice describes a failed request for the user.
type Notice struct {
	Operation string
	Message   string
	Retryable bool
	Err       error
}

// Notifier receives a Notice for every failed request.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, n.Message,
		"operation", n.Operation,
		"retryable", n.Retryable,
		"error", n.Err,
	)
}
