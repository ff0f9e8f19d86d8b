package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"droneops/showlog/internal/api"
	"droneops/showlog/internal/config"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/routes"
	"droneops/showlog/internal/store"
	"droneops/showlog/internal/store/factory"
	"droneops/showlog/internal/webhook"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.FromEnv()

	// Initialize structured logging
	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("showlog starting up",
		"environment", cfg.AppEnv,
		"storage_provider", cfg.StorageProvider,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	metricsReg := metrics.Default()

	// The webhook endpoint is verified with a handshake as soon as it is
	// configured; delivery stays best-effort either way.
	dispatcher := webhook.NewDispatcher(metricsReg)
	dispatcher.SetConfig(context.Background(), webhook.Config{
		URL:       cfg.Webhook.URL,
		Method:    cfg.Webhook.Method,
		Secret:    cfg.Webhook.Secret,
		TimeoutMs: cfg.Webhook.TimeoutMs,
	})

	provider, err := factory.New(context.Background(), cfg, dispatcher, time.Now, metricsReg)
	if err != nil {
		logging.Error("Failed to initialize storage provider", "error", err.Error())
		log.Fatalf("❌ Failed to initialize storage provider: %v", err)
	}
	logging.Info("Storage provider ready", "backend", provider.Label())

	registry := store.NewRegistry()
	registry.Swap(provider)
	defer func() {
		if err := registry.Active().Close(); err != nil {
			logging.Error("Failed to close storage provider", "error", err.Error())
		}
	}()

	deps := &api.Dependencies{
		Registry:   registry,
		Dispatcher: dispatcher,
		Metrics:    metricsReg,
		UpSince:    time.Now(),
	}

	router := routes.RegisterRoutes(deps)

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	listenAddr := ":" + cfg.Port
	logging.Info("Server starting",
		"port", cfg.Port,
		"environment", cfg.AppEnv,
	)

	log.Println("Starting server on " + listenAddr)
	log.Fatal(http.ListenAndServe(listenAddr, mux))
}
