package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlefevre/skypulse/app/api"
	"github.com/mlefevre/skypulse/app/bluesky"
	"github.com/mlefevre/skypulse/app/cfg"
	"github.com/mlefevre/skypulse/app/database"
	"github.com/mlefevre/skypulse/app/ingest"
	"github.com/mlefevre/skypulse/app/sentiment"
	"github.com/mlefevre/skypulse/app/textclean"
	"github.com/mlefevre/skypulse/app/translate"
)

// defaultQuery is used when no override is given and no marker is stored
const defaultQuery = "Macron"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting skypulse", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	postRepo := database.NewPostRepository(db)
	runner, err := buildRunner(appCfg, postRepo)
	if err != nil {
		slog.Error("Failed to build ingestion pipeline", "error", err)
		os.Exit(1)
	}

	if appCfg.Serve {
		runServer(appCfg, postRepo, runner)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx, appCfg.Query)
	if err != nil {
		slog.Error("Ingestion run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Inserted %d new posts for query %q (fetched %d, duplicates %d, skipped %d)\n",
		report.Inserted, report.Query, report.Fetched, report.Duplicates, report.Skipped)
}

func buildRunner(appCfg *cfg.Cfg, postRepo database.PostRepository) (*ingest.Runner, error) {
	if appCfg.Identifier == "" || appCfg.Password == "" {
		return nil, fmt.Errorf("BLUESKY_IDENTIFIER and BLUESKY_PASSWORD must be set")
	}

	cleaner, err := textclean.NewCleaner()
	if err != nil {
		return nil, err
	}

	var translator ingest.TextTranslator
	if appCfg.TranslateURL != "" {
		translator = translate.NewTranslator(appCfg.TranslateURL, "")
		slog.Info("Translation enabled", "url", appCfg.TranslateURL)
	}

	var since time.Time
	if appCfg.SinceHours > 0 {
		since = time.Now().UTC().Add(-time.Duration(appCfg.SinceHours) * time.Hour)
	}

	client := bluesky.NewClient(appCfg.PDSURL, appCfg.AppViewURL,
		appCfg.Identifier, appCfg.Password, appCfg.UserAgent)

	return ingest.NewRunner(
		postRepo,
		ingest.NewResolver(postRepo, defaultQuery),
		ingest.NewCollector(client, appCfg.Lang, appCfg.PageLimit, appCfg.MaxPages, since),
		ingest.NewNormalizer(cleaner, translator),
		sentiment.NewAnalyzer(appCfg.SentimentURL, appCfg.SentimentKey),
	), nil
}

func runServer(appCfg *cfg.Cfg, postRepo database.PostRepository, runner *ingest.Runner) {
	handler := api.NewHandler(postRepo, runner, appCfg.Query)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
