// Package config loads application settings from flags and environment
// variables via viper. Invalid values log a warning and fall back to
// their defaults instead of failing startup.
package config

import (
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Defaults mirror a containerized deployment; override per environment.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultAPIURL          = "https://api.jolpi.ca/ergast/f1"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultLang            = "en"
	DefaultTimezone        = "Europe/Prague"
	DefaultAssetDir        = "assets"
	DefaultTranslationsDir = "translations"
	DefaultDatabasePath    = "data/f1.db"
	DefaultRefreshEvery    = 30 * time.Minute
)

// Config is the immutable runtime configuration, loaded once at start.
type Config struct {
	Host string
	Port int

	APIURL         string
	RequestTimeout time.Duration

	DefaultLang     string
	DefaultTimezone string

	AssetDir        string
	TranslationsDir string
	DatabasePath    string

	SchedulerEnabled bool
	RefreshEvery     time.Duration

	Debug bool
}

// SetDefaults registers every known key with viper so environment
// variables bind even without flags.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("api-url", DefaultAPIURL)
	v.SetDefault("request-timeout", DefaultRequestTimeout)
	v.SetDefault("default-lang", DefaultLang)
	v.SetDefault("default-timezone", DefaultTimezone)
	v.SetDefault("asset-dir", DefaultAssetDir)
	v.SetDefault("translations-dir", DefaultTranslationsDir)
	v.SetDefault("database-path", DefaultDatabasePath)
	v.SetDefault("scheduler-enabled", true)
	v.SetDefault("refresh-every", DefaultRefreshEvery)
	v.SetDefault("debug", false)
}

// Load materializes a Config from viper, sanitizing values that would
// break the service.
func Load(v *viper.Viper, logger *zap.Logger) *Config {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &Config{
		Host:             v.GetString("host"),
		Port:             v.GetInt("port"),
		APIURL:           v.GetString("api-url"),
		RequestTimeout:   v.GetDuration("request-timeout"),
		DefaultLang:      v.GetString("default-lang"),
		DefaultTimezone:  v.GetString("default-timezone"),
		AssetDir:         v.GetString("asset-dir"),
		TranslationsDir:  v.GetString("translations-dir"),
		DatabasePath:     v.GetString("database-path"),
		SchedulerEnabled: v.GetBool("scheduler-enabled"),
		RefreshEvery:     v.GetDuration("refresh-every"),
		Debug:            v.GetBool("debug"),
	}

	if cfg.Port <= 0 || cfg.Port >= 65536 {
		logger.Warn("invalid port, using default",
			zap.Int("value", cfg.Port), zap.Int("default", DefaultPort))
		cfg.Port = DefaultPort
	}
	if cfg.RequestTimeout <= 0 {
		logger.Warn("invalid request timeout, using default",
			zap.Duration("value", cfg.RequestTimeout))
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RefreshEvery <= 0 {
		logger.Warn("invalid refresh interval, using default",
			zap.Duration("value", cfg.RefreshEvery))
		cfg.RefreshEvery = DefaultRefreshEvery
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		logger.Warn("unknown timezone, using default",
			zap.String("value", cfg.DefaultTimezone), zap.String("default", DefaultTimezone))
		cfg.DefaultTimezone = DefaultTimezone
	}

	return cfg
}
