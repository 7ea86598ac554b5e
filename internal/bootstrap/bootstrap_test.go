package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Run("run returns nil", func(t *testing.T) {
		app := New(time.Second)
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("run returns error", func(t *testing.T) {
		app := New(time.Second)
		want := errors.New("listen tcp :8080: address already in use")
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return want
		})
		assert.ErrorIs(t, err, want)
	})

	t.Run("shutdown hooks run in LIFO order on context cancel", func(t *testing.T) {
		app := New(time.Second)
		var mu sync.Mutex
		var order []string

		for _, name := range []string{"database", "http server", "cron"} {
			app.AddShutdownHook(func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"cron", "http server", "database"}, order)
	})

	t.Run("hook errors are joined", func(t *testing.T) {
		app := New(time.Second)
		errFirst := errors.New("close database")
		errSecond := errors.New("shutdown server")
		app.AddShutdownHook(func(ctx context.Context) error { return errFirst })
		app.AddShutdownHook(func(ctx context.Context) error { return errSecond })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := app.Run(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		assert.ErrorIs(t, err, errFirst)
		assert.ErrorIs(t, err, errSecond)
	})

	t.Run("hooks get a live context with a deadline", func(t *testing.T) {
		app := New(time.Second)
		var hookErr error
		var hasDeadline bool
		app.AddShutdownHook(func(ctx context.Context) error {
			hookErr = ctx.Err()
			_, hasDeadline = ctx.Deadline()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, hookErr)
		assert.True(t, hasDeadline)
	})

	t.Run("hook registered from inside run callback", func(t *testing.T) {
		app := New(0)
		hookCalled := false

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			app.AddShutdownHook(func(ctx context.Context) error {
				hookCalled = true
				return nil
			})
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.True(t, hookCalled)
	})
}
