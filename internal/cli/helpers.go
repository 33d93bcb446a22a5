package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/pkg/domain"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// NewLogger returns a debug logger on stderr, or a silent logger so the
// conversation stays readable on the terminal.
func NewLogger(debug bool) *slog.Logger {
	if debug {
		return logging.NewWithWriter(os.Stderr, slog.LevelDebug)
	}
	return logging.NewNop()
}

// NewServerLogger always logs; server commands have no conversation to
// keep clean.
func NewServerLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// IsInterrupted reports whether err just means the user ended the
// session, which the commands treat as a clean exit.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF)
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnIterationStart: func(ctx context.Context, ev *domain.IterationEvent) {
			logger.DebugContext(ctx, "iteration start", "loop", ev.Loop, "iteration", ev.Iteration)
		},
		OnIterationEnd: func(ctx context.Context, ev *domain.IterationEvent) {
			logger.DebugContext(ctx, "iteration end", "loop", ev.Loop, "iteration", ev.Iteration)
		},
		OnStepStart: func(ctx context.Context, ev *domain.StepEvent) {
			logger.DebugContext(ctx, "step start", "loop", ev.Loop, "step", ev.Step, "iteration", ev.Iteration)
		},
		OnStepEnd: func(ctx context.Context, ev *domain.StepEvent) {
			logger.DebugContext(ctx, "step end",
				"loop", ev.Loop, "step", ev.Step, "iteration", ev.Iteration, "is_error", ev.IsError)
		},
		OnLoopEnd: func(ctx context.Context, ev *domain.LoopEvent) {
			logger.DebugContext(ctx, "loop end",
				"loop", ev.Loop, "decision", ev.Decision, "iterations", ev.Iterations)
		},
		OnCommit: func(ctx context.Context, ev *domain.CommitEvent) {
			logger.DebugContext(ctx, "commit", "loop", ev.Loop, "slot", ev.Slot)
		},
	}
}
