package config

import (
	"time"

	pkgconfig "github.com/utidosgames/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	WhatsAppPhone string
	StoreName     string

	CashbackPercent int
	DailyBonusCoins int64

	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	AdminLinkTTL     time.Duration
	AdminLinkBaseURL string

	AdminUsername string
	AdminPassword string

	CSRFEnabled    bool
	AllowedOrigins []string

	SchedulerTick   time.Duration
	PurgeEvery      time.Duration
	ProSweepEvery   time.Duration
	ReindexEvery    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the storefront configuration from the environment. Missing
// required values abort the process.
func Load() *Config {
	cfg := FromEnv()

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	pkgconfig.MustNonEmpty(cfg.WhatsAppPhone, "WHATSAPP_PHONE")

	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv() *Config {
	return &Config{
		Config: pkgconfig.Load(),

		WhatsAppPhone: pkgconfig.EnvDefault("WHATSAPP_PHONE", ""),
		StoreName:     pkgconfig.EnvDefault("STORE_NAME", "UTI dos Games"),

		CashbackPercent: pkgconfig.EnvIntDefault("COINS_CASHBACK_PERCENT", 2),
		DailyBonusCoins: int64(pkgconfig.EnvIntDefault("COINS_DAILY_BONUS", 10)),

		AccessTTL:        pkgconfig.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:       pkgconfig.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		AdminLinkTTL:     pkgconfig.EnvDurationDefault("ADMIN_LINK_TTL", 15*time.Minute),
		AdminLinkBaseURL: pkgconfig.EnvDefault("ADMIN_LINK_BASE_URL", "http://localhost:8080/admin-login"),

		AdminUsername: pkgconfig.EnvDefault("ADMIN_USERNAME", ""),
		AdminPassword: pkgconfig.EnvDefault("ADMIN_PASSWORD", ""),

		CSRFEnabled:    pkgconfig.EnvBoolDefault("CSRF_ENABLED", true),
		AllowedOrigins: pkgconfig.CSV(pkgconfig.EnvDefault("ALLOWED_ORIGINS", "http://localhost:5173")),

		SchedulerTick:   pkgconfig.EnvDurationDefault("SCHEDULER_TICK", time.Second),
		PurgeEvery:      pkgconfig.EnvDurationDefault("PURGE_EVERY", time.Hour),
		ProSweepEvery:   pkgconfig.EnvDurationDefault("PRO_SWEEP_EVERY", 10*time.Minute),
		ReindexEvery:    pkgconfig.EnvDurationDefault("REINDEX_EVERY", 6*time.Hour),
		ShutdownTimeout: pkgconfig.EnvDurationDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}
