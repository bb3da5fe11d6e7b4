package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/example/timeblocks/internal/app"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/config"
	"github.com/example/timeblocks/internal/tui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("blockcal-tui", flag.ContinueOnError)
	flags.SetOutput(stdout)
	showVersion := flags.Bool("version", false, "print the version and exit")
	logPath := flags.String("log", "", "append JSON logs to this file")
	startDate := flags.String("date", "", "first day to show (YYYY-MM-DD); defaults to today")
	rowsPerHour := flags.Int("rows-per-hour", 4, "terminal rows per hour: 1, 2 or 4")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		_, err := fmt.Fprintf(stdout, "blockcal-tui %s (commit: %s, built: %s)\n", version, commit, date)
		return err
	}

	var day block.Date
	if *startDate != "" {
		parsed, err := block.ParseDate(*startDate)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		day = parsed
	}

	logger, closeLog, err := openLog(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
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

	model := tui.New(ctx, calendar.Service, tui.Options{
		Date:        day,
		RowsPerHour: *rowsPerHour,
		Location:    loc,
		Logger:      logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run day view: %w", err)
	}
	return nil
}

// openLog keeps logs off the terminal the UI draws on.
func openLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}
