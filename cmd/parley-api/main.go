package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"parley/internal/bootstrap"
	"parley/internal/events"
	"parley/internal/httpapi"
)

func main() {
	var addr string
	var verbose bool
	flag.StringVar(&addr, "addr", "", "Listen address (overrides PARLEY_HTTP_ADDR)")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	hub := httpapi.NewHub(logger)
	services, err := bootstrap.Build(events.NewSink(hub.Emit), logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	if addr == "" {
		addr = services.Config.HTTP.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.WatchRules(ctx)
	server := httpapi.NewServer(services, hub, logger)
	if err := server.Run(ctx, addr); err != nil {
		logger.Error("http api stopped", "error", err)
		services.Shutdown()
		os.Exit(1)
	}

	logger.Info("shutting down")
	services.Shutdown()
}
