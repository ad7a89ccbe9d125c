// Command server runs the blog's HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookblog/internal/bootstrap"
	"bookblog/internal/cache"
	"bookblog/internal/config"
	"bookblog/internal/middleware"
	"bookblog/internal/observability"
	"bookblog/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "bookblog",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: 1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout+5*time.Second)
	store, redisClient, err := bootstrap.InitRuntime(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServer(cfg, store, redisClient)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	// Listen has returned; release resources.
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}
	cache.Close()
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("Tracer shutdown error: %v", err)
	}
}
