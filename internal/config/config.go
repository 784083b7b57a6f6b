package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config carries everything the bot reads from the environment. Load it once
// in main after godotenv and pass it down; nothing else touches os.Getenv.
type Config struct {
	BotToken      string
	WebhookSecret string
	ChannelID     int64
	BotUsername   string

	IdentityAPIURL   string
	IdentityAPIToken string

	AdminIDs []int64

	DatabasePath string
	Port         string

	MinPartyMembers     int
	PartyFormingMinutes int

	ParliamentSeats          int
	ElectionThresholdPercent int
	TermMonths               int

	AuthRecheckDays int
}

func Load() (Config, error) {
	cfg := Config{
		BotToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		BotUsername:      os.Getenv("BOT_USERNAME"),
		IdentityAPIURL:   os.Getenv("API_URL"),
		IdentityAPIToken: os.Getenv("API_TOKEN"),
		DatabasePath:     getEnv("DATABASE_PATH", "politics.db"),
		Port:             getEnv("PORT", "3000"),
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.IdentityAPIURL == "" || cfg.IdentityAPIToken == "" {
		return Config{}, fmt.Errorf("API_URL and API_TOKEN are required")
	}

	var err error

	if cfg.ChannelID, err = getEnvInt64("CHANNEL_ID", 0); err != nil {
		return Config{}, err
	}

	if cfg.AdminIDs, err = parseAdminIDs(os.Getenv("ADMIN_IDS")); err != nil {
		return Config{}, err
	}

	if cfg.MinPartyMembers, err = getEnvInt("PARTY_MIN_MEMBERS", 3); err != nil {
		return Config{}, err
	}

	if cfg.PartyFormingMinutes, err = getEnvInt("PARTY_CREATION_TIME_MINUTES", 10); err != nil {
		return Config{}, err
	}

	if cfg.ParliamentSeats, err = getEnvInt("PARLIAMENT_SEATS", 40); err != nil {
		return Config{}, err
	}

	if cfg.ElectionThresholdPercent, err = getEnvInt("ELECTION_THRESHOLD_PERCENT", 5); err != nil {
		return Config{}, err
	}

	if cfg.TermMonths, err = getEnvInt("PARLIAMENT_TERM_MONTHS", 6); err != nil {
		return Config{}, err
	}

	if cfg.AuthRecheckDays, err = getEnvInt("AUTH_RECHECK_DAYS", 30); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// IsAdmin reports whether id is on the operator allow-list.
func (c Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return n, nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	var ids []int64

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS entry %q is not an integer: %w", part, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
