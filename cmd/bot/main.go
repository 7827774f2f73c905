package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/engine"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/market"
	"github.com/kbxbnb/BnBot/internal/news"
	"github.com/kbxbnb/BnBot/internal/notify"
	"github.com/kbxbnb/BnBot/internal/scheduler"
	"github.com/kbxbnb/BnBot/internal/sentiment"
	"github.com/kbxbnb/BnBot/internal/storage"
	"github.com/kbxbnb/BnBot/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/bnbot.db", "path to SQLite database")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)
	log.Info("starting bnbot")

	// Init database
	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init services
	marketClient := market.NewClient(cfg, log)
	newsClient := news.NewClient(cfg, log)
	ingestor := news.NewIngestor(newsClient, repo, log)
	scorer := sentiment.NewChain(sentiment.NewLLMScorer(cfg, log), sentiment.NewLexiconScorer())
	notifier := notify.NewNotifier(cfg, log)
	pipeline := engine.NewPipeline(repo, marketClient, scorer, notifier, cfg, log)
	exitEngine := engine.NewExitEngine(repo, marketClient, notifier, cfg, log)
	admin := engine.NewAdmin(repo, notifier, log)
	webServer := web.NewServer(repo, marketClient, admin, cfg, log)

	sched := scheduler.NewScheduler(log,
		scheduler.Job{Name: "news", Interval: cfg.NewsInterval(), Run: ingestor.RunOnce},
		scheduler.Job{Name: "pipeline", Interval: cfg.PipelineInterval(), Run: pipeline.RunOnce},
		scheduler.Job{Name: "exit", Interval: cfg.ExitInterval(), Run: exitEngine.RunOnce},
	)

	// Start scheduler in goroutine
	go sched.Run(ctx)

	// Start web server in goroutine
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.Send("BnBot", "🤖 BnBot started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown
	cancel() // stop polling loops

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.Send("BnBot", "🛑 BnBot stopped")
	log.Info("bnbot stopped")
}
