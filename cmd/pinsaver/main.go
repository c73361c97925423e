package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"

	"pinsaver/internal/bot"
	"pinsaver/internal/config"
	"pinsaver/internal/metrics"
	"pinsaver/internal/notify"
	"pinsaver/internal/pinry"
	"pinsaver/internal/router"
	"pinsaver/internal/scraper"
	"pinsaver/internal/storage"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(cfg.Level())

	log.WithFields(logrus.Fields{
		"badgerdb_path":  cfg.BadgerDBPath,
		"scrape_timeout": cfg.ScrapeTimeout.String(),
		"metrics_addr":   cfg.MetricsAddr,
	}).Info("Configuration loaded successfully")

	// --- Initialize Components ---
	var repo storage.Repository
	repo, err = storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	tg, err := tgbot.New(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return
	}

	r := router.New(
		repo,
		scraper.NewRodScraper(cfg.ScrapeTimeout, log),
		pinry.NewClient(nil, log),
		notify.WithFallback(bot.NewPresenter(tg), notify.NewLogPresenter(log)),
		cfg.SeedSettings(),
		log,
	)
	handler := bot.NewHandler(tg, r, log)

	// --- Application Startup ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go repo.RunGC(ctx, cfg.GCInterval)
	if cfg.MetricsAddr != "" {
		go metrics.Serve(ctx, cfg.MetricsAddr, log)
	}
	go handler.Start(ctx)

	log.Info("Pinry Saver is running. Press Ctrl+C to exit.")

	<-ctx.Done()
	stop()

	log.Info("Pinry Saver shut down gracefully.")
}
