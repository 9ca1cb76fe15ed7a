// Command server is the entry point for the Devfolio backend.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devfolio/internal/config"
	"devfolio/internal/observability"
	"devfolio/internal/server"
)

// @title Devfolio API
// @version 1.0
// @description Developer portfolio backend: registration, cookie sessions and profile management.

// @host localhost:5000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "devfolio-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	srv.NewApp()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdown := func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), shutdownTracing(ctx))
	}
	if err := serve(srv.Start, shutdown, sigChan); err != nil {
		log.Fatal(err)
	}
}

// serve runs start until a signal arrives, then runs shutdown. It returns only after
// shutdown has finished, so buffered spans are flushed before the process exits.
func serve(start func() error, shutdown func(context.Context) error, signals <-chan os.Signal) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-signals

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := start(); err != nil {
		return err
	}
	<-done
	return nil
}
