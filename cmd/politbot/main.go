package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/edenorcraft/politbot/db"
	"github.com/edenorcraft/politbot/internal/auth"
	"github.com/edenorcraft/politbot/internal/bot"
	"github.com/edenorcraft/politbot/internal/config"
	"github.com/edenorcraft/politbot/internal/election"
	"github.com/edenorcraft/politbot/internal/notify"
	"github.com/edenorcraft/politbot/internal/politics"
	"github.com/edenorcraft/politbot/internal/scheduler"
	"github.com/edenorcraft/politbot/internal/store"
	"github.com/edenorcraft/politbot/internal/voting"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	conn, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	st := store.New(conn)
	notifier := notify.NewTelegram(cfg.BotToken, cfg.ChannelID)
	checker := auth.NewChecker(cfg.IdentityAPIURL, cfg.IdentityAPIToken)
	guard := auth.NewGuard(st, cfg, checker)

	parties := politics.NewManager(st, cfg, notifier)
	elections := election.NewEngine(st, cfg, notifier)
	votings := voting.NewEngine(st, cfg, notifier)

	sched := scheduler.New(st, cfg, notifier, checker, parties, elections, votings)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	b := bot.New(cfg, st, notifier, guard, parties, elections, votings)
	r := bot.NewRouter(b, cfg.WebhookSecret)

	log.Printf("Listening on :%s", cfg.Port)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
