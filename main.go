package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caption-studio/backend/internal/api"
	"github.com/caption-studio/backend/internal/auth"
	"github.com/caption-studio/backend/internal/captions"
	"github.com/caption-studio/backend/internal/completion"
	"github.com/caption-studio/backend/internal/config"
	"github.com/caption-studio/backend/internal/db"
	"github.com/caption-studio/backend/internal/job"
	"github.com/caption-studio/backend/internal/script"
	"github.com/caption-studio/backend/internal/storage"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	os.MkdirAll(cfg.DataPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	// Caption fetcher wraps the yt-dlp binary
	fetcher := captions.NewFetcher(cfg.YtdlpPath, cfg.TempPath, cfg.FetchRate)
	if !fetcher.Available() {
		log.Printf("WARNING: %s not found in PATH, caption fetches will fail until it is installed", cfg.YtdlpPath)
	}

	// Completion client; the token is resolved per request so it can be
	// saved through the settings API at runtime
	completer := completion.NewClient(func() (string, error) {
		return completion.ResolvePAT(database)
	})

	// Job queue with the pipeline stages registered
	jobQueue := job.NewJobQueue(database.DB())
	pipeline := script.NewService(database, fetcher, completer)
	pipeline.Register(jobQueue)

	// Export directory for plain text results
	exporter, err := storage.NewExporter(cfg.ExportPath)
	if err != nil {
		log.Fatalf("Failed to initialize export directory: %v", err)
	}

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Create router
	router := api.NewRouter(database, jwtService, cfg, jobQueue, fetcher, exporter)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Data path: %s", cfg.DataPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		jobQueue.Stop()
		database.Close()
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
