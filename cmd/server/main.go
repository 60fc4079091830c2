// Package main provides the SST validation HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/sst-validation/internal/adapter/store"
	"go.ngs.io/sst-validation/internal/adapter/store/ghrsst"
	"go.ngs.io/sst-validation/internal/adapter/store/matchup"
	httpHandler "go.ngs.io/sst-validation/internal/http"
	"go.ngs.io/sst-validation/internal/logging"
	"go.ngs.io/sst-validation/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("sst-validation version %s\n", version)
		return
	}

	logger, err := logging.New(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FILE", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging configuration: %v\n", err)
		os.Exit(2)
	}

	if err := run(logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Load configuration from environment.
	port := getEnv("PORT", "8080")
	dataDir := getEnv("SST_DATA_DIR", "./data/sst")
	marker := getEnv("SST_PRODUCT_MARKER", ghrsst.DefaultProductMarker)
	dbPath := getEnv("MATCHUP_DB_PATH", "")
	origins := getEnv("CORS_ALLOWED_ORIGINS", "")

	cfg := usecase.DefaultConfig()
	var err error
	if cfg.SmoothingRadiusKm, err = getEnvFloat("SMOOTHING_RADIUS_KM", cfg.SmoothingRadiusKm); err != nil {
		return err
	}
	if cfg.Concurrency, err = getEnvInt("QUERY_CONCURRENCY", cfg.Concurrency); err != nil {
		return err
	}
	cacheSize, err := getEnvInt("DATASET_CACHE_SIZE", store.DefaultCacheSize)
	if err != nil {
		return err
	}

	fileConfig := ghrsst.DefaultConfig()
	if extra := getEnv("SST_EXTRA_VARS", ""); extra != "" {
		fileConfig.ExtraVarNames = splitList(extra)
	}

	logger.Info("Starting SST validation server", slog.String("version", version))
	logging.LogBuildInfo(logger)
	logger.Info("Configuration",
		slog.String("port", port),
		slog.String("data_dir", dataDir),
		slog.String("product_marker", marker),
		slog.Float64("smoothing_radius_km", cfg.SmoothingRadiusKm),
		slog.Int("query_concurrency", cfg.Concurrency),
		slog.Int("dataset_cache_size", cacheSize),
		slog.Any("extra_vars", fileConfig.ExtraVarNames))

	// Initialize stores.
	catalog := ghrsst.NewCatalog(dataDir, marker)
	loader, err := store.NewCachedLoader(ghrsst.NewLoader(fileConfig), cacheSize, logger)
	if err != nil {
		return err
	}

	// Match-up storage is optional.
	var matchups matchup.Store
	if dbPath != "" {
		db, err := matchup.NewSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open match-up database: %w", err)
		}
		defer db.Close()
		matchups = db
		logger.Info("Match-up store initialized", slog.String("path", dbPath))
	} else {
		logger.Info("Match-up store disabled (no MATCHUP_DB_PATH configured)")
	}

	// Initialize use case.
	extractUC := usecase.NewExtractUseCase(catalog, loader, matchups, cfg, logger)

	// Setup router.
	gin.SetMode(gin.ReleaseMode)
	router := httpHandler.SetupRouter(extractUC, origins, logger)

	// Start server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			slog.String("addr", srv.Addr),
			slog.String("health", fmt.Sprintf("http://localhost:%s/health", port)),
			slog.Any("endpoints", []string{
				"GET /v1/points", "GET /v1/dates", "GET /v1/datasets/:date",
				"POST /v1/matchups", "GET /v1/matchups", "GET /metrics",
			}))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("SST Validation Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  sst-validation [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  SST_DATA_DIR            GHRSST L4 NetCDF directory, searched recursively (default: ./data/sst)")
	fmt.Println("  SST_PRODUCT_MARKER      File name marker of the product (default: -DMI-L4)")
	fmt.Println("  SST_EXTRA_VARS          Comma-separated optional variables to declare (default: analysis_error)")
	fmt.Println("  SMOOTHING_RADIUS_KM     Radius of the smoothed temperature (default: 25)")
	fmt.Println("  DATASET_CACHE_SIZE      Number of files kept in memory (default: 8)")
	fmt.Println("  QUERY_CONCURRENCY       Files queried in parallel (default: number of CPUs)")
	fmt.Println("  MATCHUP_DB_PATH         SQLite database for match-ups (optional)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FILE                Rotating log file (default: stderr)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server on a data directory")
	fmt.Println("  SST_DATA_DIR=/data/ghrsst sst-validation")
	fmt.Println()
	fmt.Println("  # Query one point for a week")
	fmt.Println("  curl 'http://localhost:8080/v1/points?lat=54.4&lon=6.6&from=2015-03-12&to=2015-03-19&vars=time,analysed_sst'")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                  Health check")
	fmt.Println("  GET  /metrics                 Prometheus metrics")
	fmt.Println("  GET  /v1/points               Extract variables at a point")
	fmt.Println("  GET  /v1/dates                List dates with data")
	fmt.Println("  GET  /v1/datasets/:date       Variables and extent of one file")
	fmt.Println("  POST /v1/matchups             Extract and store match-ups (if configured)")
	fmt.Println("  GET  /v1/matchups             List stored match-ups (if configured)")
	fmt.Println()
}
