package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/haevelyn/schedule/internal/bootstrap"
	"github.com/haevelyn/schedule/internal/config"
	"github.com/haevelyn/schedule/internal/database"
	"github.com/haevelyn/schedule/internal/logging"
	"github.com/haevelyn/schedule/internal/schedule"
	"github.com/haevelyn/schedule/internal/server"
)

var (
	configFile string
	debugMode  bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schedule-server",
		Short:         "Shared calendar schedule HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	return rootCmd
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}
	logCloser := logging.Setup(cfg.Logging, debugMode)
	defer logCloser.Close()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("database.Migrate() > %w", err)
	}

	srv, err := newHTTPServer(cfg, schedule.NewDBRepository(db))
	if err != nil {
		return fmt.Errorf("newHTTPServer() > %w", err)
	}

	app := bootstrap.New(0)
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		listener, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("net.Listen(%s) > %w", srv.Addr, err)
		}
		slog.Default().Info("starting server", "addr", listener.Addr().String(), "driver", db.DriverName())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func newHTTPServer(cfg *config.Config, store schedule.Store) (*http.Server, error) {
	handler, err := server.NewScheduleHandler(store)
	if err != nil {
		return nil, fmt.Errorf("server.NewScheduleHandler() > %w", err)
	}
	router := server.NewRouter(handler, cfg.Server.CORS.AllowedOrigins)

	writeTimeout := time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
	}, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
