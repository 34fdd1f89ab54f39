// Command swissjobs is the CLI front end of the acquisition engine: it
// runs searches, fetches listing details and resolves locations
// without going through the HTTP server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"swissjobs-utils/internal/bfs"
	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/search"
	"swissjobs-utils/internal/storage"
	"swissjobs-utils/pkg/utils"

	_ "swissjobs-utils/internal/provider/jobroom"
)

var (
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "swissjobs",
	Short: "Acquire job listings from Swiss job portals",
	Long: `swissjobs searches Swiss job portals through a browser-shaped
session, resolves locations to official municipality codes and can
persist results locally.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or csv")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(providersCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds the full engine stack for one CLI invocation.
func newEngine(store bool) (*search.Service, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// CLI output goes to stdout; keep log noise down unless asked.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "error"
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()

	index, err := bfs.NewIndex(cfg.BFS.DatasetPath)
	if err != nil {
		return nil, nil, err
	}
	resolver := bfs.NewResolver(index, cfg.BFS.FuzzyThreshold, logger)

	cache, err := utils.NewSearchCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var repo *storage.Repository
	if store {
		repo, err = storage.NewRepository(cfg.Storage.Path, logger)
		if err != nil {
			cache.Close()
			return nil, nil, err
		}
	}

	svc, err := search.NewService(cfg, logger, resolver, cache, repo)
	if err != nil {
		cache.Close()
		if repo != nil {
			repo.Close()
		}
		return nil, nil, err
	}
	svc.Start()

	cleanup := func() {
		svc.Stop()
		cache.Close()
		if repo != nil {
			repo.Close()
		}
		logging.CloseLogging()
	}
	return svc, cleanup, nil
}
