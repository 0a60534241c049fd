// Command brickcast serves the LEGO sets dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sartorproj/brickcast/config"
	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/server"
)

var (
	configPath = flag.String("config", "", "config file (.toml or .yaml)")
	port       = flag.Int("port", 0, "listen port, used only when the config file sets none")
	devMode    = flag.Bool("dev", false, "development mode")
	dataDir    = flag.String("data", "", "directory holding the dataset chunks")
	preload    = flag.Bool("preload", true, "load the dataset before accepting requests")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "brickcast:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, info, err := config.LoadWithInfo(*configPath)
	if err != nil {
		return err
	}
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
		cfg.Data.Chunks = nil
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	cache := dataset.NewCache(nil)
	srv, err := server.New(cfg, server.Options{Logger: logger, Cache: cache})
	if err != nil {
		return err
	}

	if *preload {
		if err := warm(cache, cfg, logger); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port))
		errc <- srv.ListenAndServe(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func warm(cache *dataset.Cache, cfg *config.AppConfig, logger *slog.Logger) error {
	chunks, dir, pattern := cfg.Sources()
	if len(chunks) == 0 {
		var err error
		if chunks, err = dataset.Discover(dir, pattern); err != nil {
			return err
		}
	}

	start := time.Now()
	t, err := cache.Get(context.Background(), chunks)
	if err != nil {
		return err
	}
	lo, hi, _ := t.YearBounds()
	logger.Info("dataset loaded", "chunks", len(chunks), "rows", t.Len(), "years", fmt.Sprintf("%d-%d", lo, hi), "took", time.Since(start))
	return nil
}
