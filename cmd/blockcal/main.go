package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/timeblocks/internal/app"
	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/config"
	httptransport "github.com/example/timeblocks/internal/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("blockcal stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	flags := flag.NewFlagSet("blockcal", flag.ContinueOnError)
	flags.SetOutput(stdout)
	hashPassword := flags.Bool("hash-password", false, "read a password from stdin, print its argon2id hash and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *hashPassword {
		return printPasswordHash(stdin, stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	calendar, err := app.Open(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
		defer cancel()
		if cerr := calendar.Close(closeCtx); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	calendar.Scheduler.Start()
	defer calendar.Scheduler.Stop()

	if !calendar.Auth.Enabled() {
		logger.Warn("basic auth disabled; set BLOCKCAL_AUTH_USER and BLOCKCAL_AUTH_PASSWORD_HASH to protect the API")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(calendar, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("block calendar API listening", "addr", server.Addr, "user_id", cfg.UserID)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func newHandler(calendar *app.App, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Blocks:      httptransport.NewBlockHandler(calendar.Service, calendar.Config.PixelsPerHour, logger),
		Calendar:    httptransport.NewCalendarHandler(calendar.Service, logger),
		HealthCheck: calendar.Storage.Ping,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireBasicAuth(calendar.Auth, "blockcal", logger, "/health"),
		},
	})
}

func printPasswordHash(stdin io.Reader, stdout io.Writer) error {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := application.CreatePasswordHash(strings.TrimRight(line, "\r\n"), application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}
