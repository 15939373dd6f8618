// Package main runs the supplier portal service, the backend that the
// purchase-order frontends talk to. It validates supplier access tokens,
// proxies order and comment flows to the external API gateway, and hosts
// the internal administration endpoints.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/compranal/supplier_portal/internal/admin"
	"github.com/compranal/supplier_portal/internal/auth"
	"github.com/compranal/supplier_portal/internal/config"
	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
	"github.com/compranal/supplier_portal/internal/metrics"
	"github.com/compranal/supplier_portal/internal/npo"
	"github.com/compranal/supplier_portal/internal/supplier"
)

const (
	sessionCleanupInterval = 5 * time.Minute
	sessionMaxIdle         = 30 * time.Minute
)

func main() {
	// Local development overrides; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{Service: "portal", Level: cfg.Logging.Level})
	m := metrics.New()

	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		log.Fatalf("Failed to create gateway client: %v", err)
	}

	api := supplier.NewAPI(gw, logger)
	sessions := supplier.NewManager(api, logger)

	stop := make(chan struct{})
	sessions.StartCleanup(sessionCleanupInterval, sessionMaxIdle, stop)

	server := NewServer(cfg, logger, m, sessions,
		admin.NewService(gw, logger),
		auth.NewService(gw, logger),
		npo.NewService(gw, logger))

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("portal listening on %s", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Service stopped")
}
