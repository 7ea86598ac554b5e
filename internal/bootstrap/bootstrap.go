// Package bootstrap runs a long lived process until it is signalled to stop.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 15 * time.Second

// App runs a process and its registered shutdown hooks.
type App struct {
	shutdownTimeout time.Duration

	mu    sync.Mutex
	hooks []func(ctx context.Context) error
}

// New creates a new App whose hooks must finish within shutdownTimeout.
// A zero timeout uses a default.
func New(shutdownTimeout time.Duration) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &App{shutdownTimeout: shutdownTimeout}
}

// AddShutdownHook registers fn to be called when the process is stopped.
// Hooks run in reverse registration order.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run calls run and waits for it to return or for SIGINT, SIGTERM or ctx
// to stop the process. On a stop the shutdown hooks run before Run returns.
// Hooks do not run when run returns before a stop.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if ctx.Err() == nil {
			return runErr
		}
	}

	slog.Default().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		if err := a.hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
