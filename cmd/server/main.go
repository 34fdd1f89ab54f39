package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/api/routes"
	"swissjobs-utils/internal/bfs"
	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/enrich"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/search"
	"swissjobs-utils/internal/storage"
	"swissjobs-utils/pkg/utils"

	_ "swissjobs-utils/internal/provider/jobroom"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Swiss jobs acquisition service")

	// Municipality index and resolver
	index, err := bfs.NewIndex(cfg.BFS.DatasetPath)
	if err != nil {
		logger.Fatal("Failed to load municipality index", map[string]interface{}{"error": err.Error()})
	}
	resolver := bfs.NewResolver(index, cfg.BFS.FuzzyThreshold, logger)
	logger.Info("Municipality index loaded", map[string]interface{}{"municipalities": index.Size()})

	// Optional Redis response cache
	cache, err := utils.NewSearchCache(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	defer cache.Close()

	// Listing store
	repo, err := storage.NewRepository(cfg.Storage.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open listing store", map[string]interface{}{"error": err.Error()})
	}
	defer repo.Close()

	// Enrichment manager; the service runs fine without an LLM key,
	// the enrich endpoint is just not mounted then.
	var enricher *enrich.Manager
	if cfg.LLM.APIKey != "" {
		enricher, err = enrich.NewManager(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize enrichment", map[string]interface{}{"error": err.Error()})
		}
	} else {
		logger.Warn("LLM_API_KEY not set, enrichment endpoint disabled")
	}

	// Search engine
	svc, err := search.NewService(cfg, logger, resolver, cache, repo)
	if err != nil {
		logger.Fatal("Failed to build search engine", map[string]interface{}{"error": err.Error()})
	}
	svc.Start()
	defer svc.Stop()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Setup routes
	routes.SetupRoutes(e, cfg, svc, enricher)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping search workers...")
		svc.Stop()

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
