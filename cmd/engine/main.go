package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SiphonMoney/matching-engine/params"
	"github.com/SiphonMoney/matching-engine/pkg/api"
	"github.com/SiphonMoney/matching-engine/pkg/app/exchange"
	"github.com/SiphonMoney/matching-engine/pkg/events"
	"github.com/SiphonMoney/matching-engine/pkg/storage"
	"github.com/SiphonMoney/matching-engine/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("starting", "db", cfg.Storage.Path, "addr", cfg.API.Addr)

	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		sugar.Fatalw("open_store_failed", "err", err)
	}
	defer store.Close()

	opts := exchange.Options{AutoSettle: cfg.Engine.AutoSettle}
	if len(cfg.Events.Brokers) > 0 {
		producer := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
		defer producer.Close()
		opts.Publisher = producer
		sugar.Infow("kafka_enabled", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	app := exchange.NewApp(store, sugar, opts)
	if err := app.InitBook(); err != nil {
		sugar.Fatalw("init_book_failed", "err", err)
	}

	server := api.NewServer(app, sugar)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.API.Addr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		sugar.Infow("shutting_down", "signal", sig.String())
	case err := <-errCh:
		sugar.Errorw("server_stopped", "err", err)
	}
}
