package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/api"
	"github.com/Rudranshhhhh/Cybercoach/internal/config"
	"github.com/Rudranshhhhh/Cybercoach/internal/guard"
	"github.com/Rudranshhhhh/Cybercoach/internal/logger"
	"github.com/Rudranshhhhh/Cybercoach/internal/session"
	"github.com/Rudranshhhhh/Cybercoach/internal/ui"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// The screen belongs to the renderer, so logs go to stderr.
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Int("questions", cfg.NumQuestions).
		Msg("Starting Cybercoach exam client")

	// ─── Wire the Exam ─────────────────────────────────────────────────
	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	host := ui.NewTermHost(os.Stdout, log)
	grd := guard.New(host, cfg.ReturnPath, cfg.CancelNavigateDelay, log)
	ctrl := session.New(client, grd, cfg.NumQuestions, log)
	app := ui.NewApp(ctrl, grd, host, os.Stdin, log)

	// ─── Run ───────────────────────────────────────────────────────────
	if err := app.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Exam client error")
	}
	log.Info().Msg("Exam client exited")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
