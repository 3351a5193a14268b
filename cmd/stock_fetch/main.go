package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"stock-fetch/internal/middleware/logger"
	"stock-fetch/internal/stock_fetch/api"
	"stock-fetch/internal/stock_fetch/browser"
	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/helper"
	"stock-fetch/internal/stock_fetch/processor"
	"stock-fetch/internal/stock_fetch/scraper/naver"
	"stock-fetch/internal/stock_fetch/scraper/toss"
	"stock-fetch/internal/stock_fetch/serializer"
	"stock-fetch/internal/stock_fetch/uploader"
	"stock-fetch/pkg/config"
)

func main() {
	log, err := logger.NewLogger(os.Getenv("APP_ENV") != "production")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	log.Info("Starting stock discussion collector...")

	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Warn("Timezone fallback in effect", zap.Error(err))
	}

	stores := helper.MustMongo(
		ctx,
		cfg.Mongo.Host,
		cfg.Mongo.DBName,
		cfg.Mongo.Username,
		cfg.Mongo.Password,
		cfg.Mongo.AuthSource,
	)

	gcs, err := uploader.NewGCS(ctx, log, cfg.GCS.Bucket, cfg.GCS.CredentialsFile)
	if err != nil {
		log.Fatal("GCS client init failed", zap.Error(err))
	}
	defer func() { _ = gcs.Close() }()

	mgr := browser.NewManager(log)
	if err := mgr.Start(); err != nil {
		log.Fatal("Browser start failed", zap.Error(err))
	}
	defer mgr.Close()

	pipeline := &export.Pipeline{
		Log:        log,
		Serializer: serializer.NewParquet(loc),
		Uploader:   gcs,
	}

	naverScraper := naver.New(log, mgr, naver.Config{
		RequestDelay:      cfg.Scrape.RequestDelay.Std(),
		MaxRetries:        cfg.Scrape.MaxRetries,
		DetailWorkers:     cfg.Scrape.DetailWorkers,
		BrowserSwitchPage: cfg.Scrape.BrowserSwitchPage,
		Location:          loc,
	})
	tossScraper := toss.New(log, mgr, toss.Config{
		RequestDelay: cfg.Scrape.RequestDelay.Std(),
		MaxRetries:   cfg.Scrape.MaxRetries,
		Location:     loc,
	})

	srv := &api.Server{
		Log: log,
		Naver: &processor.Naver{
			Log:      log,
			Catalog:  stores,
			Crawler:  naverScraper,
			Export:   pipeline,
			BasePath: cfg.GCS.BasePath,
			Location: loc,
		},
		Toss: &processor.Toss{
			Log:      log,
			Catalog:  stores,
			Crawler:  tossScraper,
			Export:   pipeline,
			BasePath: cfg.GCS.BasePath,
			Location: loc,
		},
		Location: loc,
	}

	r := srv.Router()
	_ = r.SetTrustedProxies(nil)
	log.Info("Collector is running", zap.String("address", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
