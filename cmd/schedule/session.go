package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/haevelyn/schedule/internal/cache"
	"github.com/haevelyn/schedule/internal/client"
	"github.com/haevelyn/schedule/internal/config"
	"github.com/haevelyn/schedule/internal/logging"
	"github.com/haevelyn/schedule/internal/schedule"
)

// session is one CLI invocation's view of the server.
type session struct {
	cfg    *config.Config
	cache  *cache.Cache
	client *client.Client
	logs   io.Closer
}

func openSession(notices io.Writer) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loadConfig() > %w", err)
	}
	logs := logging.Setup(cfg.Logging, debugMode)

	policy, err := schedule.ParseBreakDayPolicy(cfg.Client.BreakDayPolicy)
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("schedule.ParseBreakDayPolicy() > %w", err)
	}

	timeout := time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	c := client.NewClient(cfg.Client.BaseURL, timeout, cfg.Client.RetryAttempts)
	return &session{
		cfg: cfg,
		cache: cache.New(c,
			cache.WithNotifier(newColorNotifier(notices)),
			cache.WithBreakDayPolicy(policy),
			cache.WithResyncTimeout(timeout),
		),
		client: c,
		logs:   logs,
	}, nil
}

func (s *session) Close() error {
	return errors.Join(s.client.Close(), s.logs.Close())
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// colorNotifier prints notices about edits that did not land.
type colorNotifier struct {
	w       io.Writer
	warning *color.Color
	failure *color.Color
}

func newColorNotifier(w io.Writer) *colorNotifier {
	return &colorNotifier{
		w:       w,
		warning: color.New(color.FgYellow, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
}

func (n *colorNotifier) Notify(notice cache.Notice) {
	c := n.failure
	if notice.Kind == cache.NoticeConflict {
		c = n.warning
	}
	_, _ = c.Fprintf(n.w, "[%s] %s: %s\n", notice.Kind, notice.Date, notice.Message)
}
