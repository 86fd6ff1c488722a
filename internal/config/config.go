package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	LikeAPIURL       string
	ShortenerAPIKey  string
	PublicBaseURL    string
	HowToVerifyURL   string
	VIPAccessURL     string
	AdminIDs         []int64
	HTTPAddr         string
	PollInterval     time.Duration
	DailyLimit       int
	ResetWindow      time.Duration
	VerifyTTL        time.Duration
	EnforceVerifyTTL bool
}

// Load reads configuration from environment variables with sane defaults.
// A local .env file is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LikeAPIURL:       strings.TrimSpace(os.Getenv("LIKE_API_URL")),
		ShortenerAPIKey:  strings.TrimSpace(os.Getenv("SHORTENER_API_KEY")),
		PublicBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		HowToVerifyURL:   strings.TrimSpace(os.Getenv("HOW_TO_VERIFY_URL")),
		VIPAccessURL:     strings.TrimSpace(os.Getenv("VIP_ACCESS_URL")),
		AdminIDs:         parseAdminIDs(os.Getenv("ADMIN_IDS")),
		HTTPAddr:         strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		PollInterval:     time.Duration(parsePositiveInt(os.Getenv("POLL_INTERVAL_SECONDS"), 5)) * time.Second,
		DailyLimit:       parsePositiveInt(os.Getenv("DAILY_REQUEST_LIMIT"), 1),
		ResetWindow:      time.Duration(parsePositiveInt(os.Getenv("REQUEST_RESET_HOURS"), 20)) * time.Hour,
		VerifyTTL:        time.Duration(parsePositiveInt(os.Getenv("VERIFY_TTL_MINUTES"), 10)) * time.Minute,
		EnforceVerifyTTL: parseBool(os.Getenv("VERIFY_TTL_ENFORCED"), true),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "likebot.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":5000"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.LikeAPIURL == "" {
		return cfg, fmt.Errorf("LIKE_API_URL is required")
	}
	if cfg.PublicBaseURL == "" {
		return cfg, fmt.Errorf("PUBLIC_BASE_URL is required")
	}

	return cfg, nil
}

// IsAdmin reports whether the given Telegram ID is in the admin allow-list.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parsePositiveInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
