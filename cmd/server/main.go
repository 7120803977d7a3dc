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
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"newsbrief.io/newsbrief/internal/api"
	"newsbrief.io/newsbrief/internal/auth"
	"newsbrief.io/newsbrief/internal/config"
	"newsbrief.io/newsbrief/internal/core"
	"newsbrief.io/newsbrief/internal/llm"
	"newsbrief.io/newsbrief/internal/logging"
	"newsbrief.io/newsbrief/internal/mailer"
	"newsbrief.io/newsbrief/internal/newsapi"
	"newsbrief.io/newsbrief/internal/store"
)

func main() {
	seedFlag := flag.Bool("seed", false, "Seed an empty database and exit")
	fixImagesFlag := flag.Bool("fix-images", false, "Refresh missing or legacy article images and exit")
	forceFlag := flag.Bool("force", false, "With -fix-images, refresh every article image")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	ctx := context.Background()

	// Initialize database store
	dbStore, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDB)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	completer, closeCompleter := newCompleter(ctx, cfg)
	defer closeCompleter()

	summarizer := core.NewLLMService(completer)
	provider := newsapi.NewClient(cfg.NewsAPIKey, newsapi.WithBaseURL(cfg.NewsAPIURL))
	if !provider.Enabled() {
		slog.Warn("NEWS_API_KEY not set, serving stored and mock articles only")
	}
	newsService := core.NewNewsService(dbStore, provider, summarizer)

	// One-shot maintenance commands
	if *seedFlag {
		n, err := newsService.Seed(ctx)
		if err != nil {
			slog.Error("Seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Seeding complete", "articles", n)
		return
	}
	if *fixImagesFlag {
		n, err := newsService.RefreshImages(ctx, *forceFlag)
		if err != nil {
			slog.Error("Image refresh failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Updated images for %d articles\n", n)
		return
	}

	if _, err := newsService.Seed(ctx); err != nil {
		slog.Error("Seeding failed, continuing", "error", err)
	}

	var mail core.Mailer
	if cfg.SMTP.Enabled() {
		m, err := mailer.New(mailer.Config(cfg.SMTP))
		if err != nil {
			slog.Error("Failed to configure mailer", "error", err)
			os.Exit(1)
		}
		mail = m
	} else {
		slog.Warn("SMTP_HOST not set, password reset emails are disabled")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)
	accountService := core.NewAccountService(dbStore, tokens, mail, cfg.ClientURL, cfg.ResetTokenTTL)
	summaryService := core.NewSummaryService(dbStore, summarizer)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(accountService, newsService, summaryService)
	router := api.NewRouter(apiHandler, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  rate.Limit(cfg.AuthRateLimit),
		AuthRateBurst:  cfg.AuthRateBurst,
		TrustProxy:     cfg.TrustProxy,
	})

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen", "addr", serverAddr, "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting gracefully")
}

// newCompleter prefers an OpenAI-compatible backend, then Gemini. With
// neither key set summaries fall back to truncation.
func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, func()) {
	noop := func() {}
	switch {
	case cfg.OpenAIAPIKey != "":
		slog.Info("Using OpenAI-compatible summarizer", "model", cfg.OpenAIModel)
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), noop

	case cfg.GeminiAPIKey != "":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			slog.Error("Failed to create Gemini client, summaries will be truncated", "error", err)
			return nil, noop
		}
		slog.Info("Using Gemini summarizer")
		return client, func() {
			if err := client.Close(); err != nil {
				slog.Warn("Failed to close Gemini client", "error", err)
			}
		}

	default:
		slog.Warn("No LLM API key set, summaries will be truncated")
		return nil, noop
	}
}
