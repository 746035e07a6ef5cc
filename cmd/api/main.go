package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fablecast/mediagen/internal/api"
	"github.com/fablecast/mediagen/internal/audio"
	"github.com/fablecast/mediagen/internal/captions"
	"github.com/fablecast/mediagen/internal/config"
	"github.com/fablecast/mediagen/internal/render"
	"github.com/fablecast/mediagen/internal/services"
)

func main() {
	log.Println("Starting Media API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize services
	processor := audio.NewProcessor(cfg.FFmpegPath, cfg.SoundstretchPath)
	speechSvc := services.NewEdgeTTSService(cfg.EdgeTTSPath, processor)
	imageSvc := services.NewImageService(cfg.GeminiKey)
	encoder := services.NewEncoder(cfg.FFmpegPath, cfg.FFprobePath, cfg.TempDir)

	// Caption alignment — Whisper when an OpenAI key is configured, MFA
	// subprocess otherwise
	var aligner captions.Aligner
	if cfg.OpenAIKey != "" {
		aligner = captions.NewWhisperAligner(cfg.OpenAIKey)
		log.Println("Caption aligner: OpenAI Whisper")
	} else {
		aligner = captions.NewMFAAligner(cfg.MFAPath)
		log.Println("Caption aligner: Montreal Forced Aligner")
	}

	renderer := render.NewRenderer(speechSvc, encoder, processor, aligner, render.Config{
		AssetsDir: cfg.AssetsDir,
		OutputDir: cfg.OutputDir,
		TempDir:   cfg.TempDir,
	})

	// Create API handler
	handler := api.NewHandler(renderer, speechSvc, imageSvc, cfg.TempDir, cfg.OutputDir)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
