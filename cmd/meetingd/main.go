// Command meetingd runs the meeting assistant daemon: the HTTP API,
// the mailbox polling scheduler, and the reply reconciliation engine.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkhoa/meeting-assistant/internal/extract"
	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/notify"
	"github.com/mkhoa/meeting-assistant/internal/reconcile"
	"github.com/mkhoa/meeting-assistant/internal/server"
	"github.com/mkhoa/meeting-assistant/internal/store"
	"github.com/mkhoa/meeting-assistant/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.NewDefault()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	gateway, err := mailbox.NewGmailGateway(ctx, mailbox.GmailConfig{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RefreshToken: cfg.Gmail.RefreshToken,
		Account:      cfg.Gmail.Account,
		TopicName:    cfg.Gmail.TopicName,
	}, logger)
	if err != nil {
		log.Fatalf("init mailbox gateway: %v", err)
	}

	engine := reconcile.NewEngine(st, logger)
	window := time.Duration(cfg.Polling.WindowHours) * time.Hour
	poller := sync.New(gateway, engine, window, logger)

	mailer := notify.NewMailer(cfg.SMTP, st, logger)
	extractor := extract.New(cfg.AI, logger)
	if extractor == nil {
		logger.Warn("no AI key configured, action item extraction disabled")
	}

	srv := server.New(*cfg, server.Deps{
		Store:     st,
		Gateway:   gateway,
		Watcher:   gateway,
		Engine:    engine,
		Poller:    poller,
		Mailer:    mailer,
		Extractor: extractor,
	}, logger)

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("start api server: %v", err)
	}

	if cfg.Polling.AutoStart && gateway.Ready() {
		interval := time.Duration(cfg.Polling.IntervalMinutes) * time.Minute
		if err := poller.Start(interval); err != nil {
			logger.Warn("auto-start polling", logging.Error(err))
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	poller.Stop()
	srv.Stop()
}
