package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pdfsplice/internal/api"
	"github.com/dgallion1/pdfsplice/internal/config"
	"github.com/dgallion1/pdfsplice/internal/pdfcodec"
	"github.com/dgallion1/pdfsplice/internal/pipeline"
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/dgallion1/pdfsplice/internal/sink"
	"github.com/dgallion1/pdfsplice/internal/version"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	store, err := sink.OpenStore(cfg.StorePath)
	if err != nil {
		log.Error("failed to open document store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Outputs go to the local store unless a remote store is configured.
	var outputs sink.Sink = store
	var remote *sink.Remote
	if cfg.RemoteURL != "" {
		remote = sink.NewRemote(cfg.RemoteURL, cfg.RemoteAPIKey)
		outputs = remote
		log.Info("writing outputs to remote store", "url", cfg.RemoteURL)
	}

	// Initialize pipeline.
	engine := restructure.New(pdfcodec.New(log), outputs, log)
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewRunner(engine, store, log), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// No handler can submit once the listener is closed.
		orch.Stop()

		if remote != nil {
			remote.Close()
		}
	}()

	log.Info("starting pdfsplice", "port", cfg.Port, "version", version.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
