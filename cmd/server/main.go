package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"studybuddy/internal/config"
	"studybuddy/internal/handler"
	"studybuddy/internal/llm/gemini"
	"studybuddy/internal/logging"
	"studybuddy/internal/port"
	"studybuddy/internal/repository/postgres"
	"studybuddy/internal/router"
	"studybuddy/internal/service"
	"studybuddy/internal/usage"
	"studybuddy/internal/usage/supabase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	generator := gemini.NewClient(&cfg.Gemini)
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; generation requests will fail")
	}

	recorder, db, err := newUsageRecorder(cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	tracker := usage.NewTracker(recorder, usage.TrackerConfig{
		CostPerToken: cfg.Usage.CostPerToken,
		Timeout:      time.Duration(cfg.Usage.TimeoutSecs) * time.Second,
	}, log)

	studySvc := service.NewStudyService(generator, tracker, log)

	studyH := handler.NewStudyHandler(studySvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, log, studyH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("model", generator.Model()).
			Str("usage_provider", cfg.Usage.Provider).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// Finish in-flight usage records before the DB pool closes; handlers still
	// running past the shutdown timeout are not recorded.
	tracker.Close()
	log.Info().Msg("server stopped")
	return nil
}

// newUsageRecorder picks the ai_usage sink. db is non-nil only for the
// postgres provider.
func newUsageRecorder(cfg *config.Config, log zerolog.Logger) (port.UsageRecorder, *sqlx.DB, error) {
	switch cfg.Usage.Provider {
	case "postgres":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.NewUsageRepo(db), db, nil
	case "supabase":
		if cfg.Usage.SupabaseURL == "" || cfg.Usage.SupabaseKey == "" {
			log.Warn().Msg("supabase usage provider selected without URL or service role key; usage logging disabled")
			return usage.NewNoopRecorder(log), nil, nil
		}
		return supabase.NewRecorder(cfg.Usage.SupabaseURL, cfg.Usage.SupabaseKey, cfg.Usage.SupabaseTable), nil, nil
	default:
		return usage.NewNoopRecorder(log), nil, nil
	}
}
