package config

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ProviderConfig controls one external feed provider.
type ProviderConfig struct {
	Name    string
	Enabled bool
	FeedURL string
	Format  string // "csv" or "json"
}

// Config is the process-wide configuration, materialized once at startup
// and passed explicitly into the pipeline. The pipeline itself never reads
// the environment.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	HTTPPort string

	KafkaBrokers     []string
	KafkaPricesTopic string
	EventsEnabled    bool

	FetchTimeout   time.Duration
	FetchRPS       float64
	DefaultCountry string
	DealCronSpec   string

	BlockedStoreDomains []string

	Providers []ProviderConfig
}

// Load reads configuration from environment variables and an optional .env
// file and returns the typed Config.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "priceradar")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_PRICES_TOPIC", "LISTING_PRICES")
	viper.SetDefault("EVENTS_ENABLED", false)
	viper.SetDefault("FETCH_TIMEOUT_SECONDS", 20)
	viper.SetDefault("FETCH_RPS", 2.0)
	viper.SetDefault("DEFAULT_COUNTRY", "RO")
	viper.SetDefault("DEAL_CRON_SPEC", "@hourly")
	viper.SetDefault("BLOCKED_STORE_DOMAINS", "")

	if err := viper.ReadInConfig(); err != nil {
		logrus.WithError(err).Warn("Failed to read .env file, using environment variables")
	}

	cfg := &Config{
		DBHost:           viper.GetString("DB_HOST"),
		DBPort:           viper.GetString("DB_PORT"),
		DBUser:           viper.GetString("DB_USER"),
		DBPassword:       viper.GetString("DB_PASSWORD"),
		DBName:           viper.GetString("DB_NAME"),
		HTTPPort:         viper.GetString("HTTP_PORT"),
		KafkaBrokers:     splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaPricesTopic: viper.GetString("KAFKA_PRICES_TOPIC"),
		EventsEnabled:    viper.GetBool("EVENTS_ENABLED"),
		FetchTimeout:     time.Duration(viper.GetInt("FETCH_TIMEOUT_SECONDS")) * time.Second,
		FetchRPS:         viper.GetFloat64("FETCH_RPS"),
		DefaultCountry:   viper.GetString("DEFAULT_COUNTRY"),
		DealCronSpec:     viper.GetString("DEAL_CRON_SPEC"),
	}
	cfg.BlockedStoreDomains = splitList(viper.GetString("BLOCKED_STORE_DOMAINS"))
	cfg.Providers = loadProviders()

	logrus.WithField("providers", len(cfg.Providers)).Info("Configuration loaded successfully")
	return cfg, nil
}

// loadProviders builds the provider list from PROVIDER_<NAME>_URL /
// PROVIDER_<NAME>_ENABLED / PROVIDER_<NAME>_FORMAT variables for the fixed
// set of known providers.
func loadProviders() []ProviderConfig {
	known := []string{"PROFITSHARE", "TWOPERFORMANT", "SHEET", "SEARCHAPI"}
	formats := map[string]string{
		"PROFITSHARE":   "csv",
		"TWOPERFORMANT": "csv",
		"SHEET":         "csv",
		"SEARCHAPI":     "json",
	}

	var providers []ProviderConfig
	for _, name := range known {
		viper.SetDefault("PROVIDER_"+name+"_ENABLED", false)
		providers = append(providers, ProviderConfig{
			Name:    strings.ToLower(name),
			Enabled: viper.GetBool("PROVIDER_" + name + "_ENABLED"),
			FeedURL: viper.GetString("PROVIDER_" + name + "_URL"),
			Format:  formats[name],
		})
	}
	return providers
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
