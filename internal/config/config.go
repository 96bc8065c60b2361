package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port string

	// Alerting
	AlertThreshold decimal.Decimal
	NtfyTopic      string
	NtfyBaseURL    string

	// Sources
	SpotURL       string
	SpotAsset     string
	SpotCurrency  string
	NavStrategy   string // "csv" or "html"
	NavCSVURL     string
	NavHTMLURL    string
	NavWindowDays int
	AuxURL        string

	// Persistence
	HistoryPath string

	// HTTP resilience
	MaxAttempts int
	RetryDelay  time.Duration
	GetTimeout  time.Duration
	PostTimeout time.Duration

	// Run mode
	RunOnce      bool
	PollInterval time.Duration

	// Alert dedup (optional, daemon mode only)
	RedisURL      string
	RedisPassword string
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		AlertThreshold: envDecimal("ALERT_THRESHOLD", decimal.NewFromInt(3000)),
		NtfyTopic:      envOr("NTFY_TOPIC", "inpzu-alert-wojtas"),
		NtfyBaseURL:    envOr("NTFY_BASE_URL", "https://ntfy.sh"),
		SpotURL:        envOr("SPOT_URL", "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"),
		SpotAsset:      envOr("SPOT_ASSET", "bitcoin"),
		SpotCurrency:   envOr("SPOT_CURRENCY", "usd"),
		NavStrategy:    envOr("NAV_STRATEGY", "csv"),
		NavCSVURL:      envOr("NAV_CSV_URL", "https://stooq.pl/q/d/l/?s=1150.n&i=d"),
		NavHTMLURL:     envOr("NAV_HTML_URL", "https://stooq.pl/q/d/?s=1150.n"),
		NavWindowDays:  envInt("NAV_WINDOW_DAYS", 10),
		AuxURL:         envOr("AUX_URL", "https://markets.ft.com/data/indices/tearsheet/summary?s=BITCOIN:IOM"),
		HistoryPath:    envOr("HISTORY_PATH", "intraday_diff_inpzu_vs_btc.csv"),
		MaxAttempts:    envInt("HTTP_MAX_ATTEMPTS", 3),
		RetryDelay:     envDuration("HTTP_RETRY_DELAY", 2*time.Second),
		GetTimeout:     envDuration("HTTP_GET_TIMEOUT", 20*time.Second),
		PostTimeout:    envDuration("HTTP_POST_TIMEOUT", 10*time.Second),
		RunOnce:        envBool("RUN_ONCE", false),
		PollInterval:   envDuration("POLL_INTERVAL", 15*time.Minute),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"NTFY_TOPIC":     &cfg.NtfyTopic,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if os.Getenv(key) != "" {
			continue // explicit env var wins over the secret store
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid integer in env, using fallback", "key", key, "value", v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("invalid boolean in env, using fallback", "key", key, "value", v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration in env, using fallback", "key", key, "value", v)
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
		slog.Warn("invalid decimal in env, using fallback", "key", key, "value", v)
	}
	return fallback
}
