// Command tutorchat runs the tutoring backend: dialog and assessment
// endpoints backed by a language model, with PDF export of feedback.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"

	"github.com/nkovalenko/tutorchat"
	"github.com/nkovalenko/tutorchat/internal/api"
	"github.com/nkovalenko/tutorchat/internal/config"
	"github.com/nkovalenko/tutorchat/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tutorchat:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.StringP("config", "c", "config.yaml", "config file path or name")
		addr       = pflag.String("addr", "", "listen address (overrides config)")
		dataDir    = pflag.String("data", "", "data directory (overrides config)")
		poolSize   = pflag.Int("pool", tutorchat.DefaultPoolSize(), "export service pool size")
	)
	pflag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
		log.Warn("config file not found, using defaults", "path", *configPath)
		cfg = config.DefaultConfig()
		if saveErr := config.Save(*configPath, cfg); saveErr != nil {
			log.Warn("could not write default config", "error", saveErr)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}

	cfgMgr := config.NewManager(*configPath, cfg)

	store, err := storage.New(cfg.Data.Dir)
	if err != nil {
		return err
	}

	pool := tutorchat.NewExportPool(*poolSize, func() *tutorchat.Service {
		current := cfgMgr.Get()
		opts := []tutorchat.Option{
			tutorchat.WithLogger(log),
			tutorchat.WithCodeTheme(current.Export.CodeTheme),
			tutorchat.WithDateFormat(current.Export.DateFormat),
		}
		if current.Export.StyleDir != "" {
			opts = append(opts, tutorchat.WithStyleDir(current.Export.StyleDir))
		}
		if len(current.Fonts.SearchDirs) > 0 {
			opts = append(opts, tutorchat.WithFontDirs(current.Fonts.SearchDirs...))
		}
		return tutorchat.New(opts...)
	})

	srv := api.NewServer(cfgMgr, store, pool, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)

		if err := pool.Close(); err != nil {
			log.Warn("closing export pool", "error", err)
		}
	}()

	log.Info("starting tutorchat", "addr", cfg.Server.Addr, "data", cfg.Data.Dir, "pool", *poolSize)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
