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
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"vibrance/internal/config"
)

const appName = "vibrance"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Resolve(appName, args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 2
	}

	logger := newLogger(stderr, cfg.LogLevel)
	service := NewPaletteService(logger, cfg.CacheSize)
	renderer := newPaletteRenderer(stdout, cfg.JSON)
	options := paletteOptionsFromConfig(cfg)

	render := func(path string) bool {
		result, err := service.Generate(path, options)
		if err != nil {
			logger.Error("palette failed", "path", path, "err", err)
			return false
		}
		if err := renderer.Render(result); err != nil {
			logger.Error("render palette", "path", path, "err", err)
			return false
		}
		return true
	}

	failures := 0
	for _, path := range cfg.Paths {
		if !render(path) {
			failures++
		}
	}

	if cfg.Watch {
		logger.Info("watching for changes", "files", len(cfg.Paths), "failed", failures)
		onChange := func(path string) { render(path) }
		if err := watchPaths(ctx, cfg.Paths, logger, onChange); err != nil {
			logger.Error("watch inputs", "err", err)
			return 1
		}
	}

	if failures > 0 {
		return 1
	}
	return 0
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if file, ok := w.(interface{ Fd() uintptr }); ok {
		noColor = !isatty.IsTerminal(file.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

func paletteOptionsFromConfig(cfg config.Config) PaletteOptions {
	return PaletteOptions{
		MaxColors:      cfg.MaxColors,
		ResizeArea:     cfg.ResizeArea,
		MaxDimension:   cfg.MaxDimension,
		Region:         cfg.Region,
		DefaultFilter:  cfg.DefaultFilter,
		Workers:        cfg.Workers,
		AlphaThreshold: cfg.AlphaThreshold,
	}
}
