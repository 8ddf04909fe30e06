package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apexgrid/racedash/config"
	"github.com/apexgrid/racedash/engine"
	"github.com/apexgrid/racedash/log"
	"github.com/apexgrid/racedash/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	logLevel := flag.String("loglevel", "", "override the configured log level (debug|info|warn|error)")
	logDir := flag.String("logdir", "", "override the configured log directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}

	lg := log.New(cfg.Log.Level, cfg.Log.Dir)
	lg.Info("starting racedash",
		"backend", cfg.Backend.BaseURL,
		"port", cfg.Server.Port,
		"track", cfg.Track.DefinitionPath)

	e, err := engine.New(cfg, lg)
	if err != nil {
		lg.Error("engine init failed", "err", err)
		os.Exit(1)
	}
	srv := server.New(cfg.Server.Port, e, lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Run(ctx) })
	g.Go(func() error { return srv.Start() })
	g.Go(func() error {
		<-ctx.Done()
		lg.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("exit with error", "err", err)
		os.Exit(1)
	}
	lg.Info("shut down cleanly")
}
