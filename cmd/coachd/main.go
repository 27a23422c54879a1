package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/config"
	"github.com/Rudranshhhhh/Cybercoach/internal/logger"
	"github.com/Rudranshhhhh/Cybercoach/internal/server"
	"github.com/Rudranshhhhh/Cybercoach/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Cybercoach Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Initialize Services ──────────────────────────────────────────
	store := server.NewSessionStore()
	bank := server.NewBankGenerator(time.Now().UnixNano())

	var primary server.Generator
	if llm := server.NewLLMGenerator(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, log); llm != nil {
		log.Info().Str("model", cfg.LLMModel).Msg("LLM scenario generation enabled")
		primary = llm
	} else {
		log.Warn().Msg("GROK_API_KEY not set, serving scenarios from the static bank")
	}

	quizService := server.NewQuizService(store, primary, bank, log)
	reportService := server.NewReportService(log)

	// ─── Initialize Handler and Router ────────────────────────────────
	h := server.NewHandler(quizService, reportService, primary != nil, cfg.NumQuestions, cfg.MaxQuestions, log)
	r := server.NewRouter(h, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Int("active_sessions", store.Count()).Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
