package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	MigrationsPath string

	// RateLimit is the limiter period string, e.g. "100-M" for 100 requests
	// per minute per client.
	RateLimit string

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string

	// Lending policy knobs.
	LateFeePercent            decimal.Decimal
	SettlementDiscountPercent decimal.Decimal
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("LATE_FEE_PERCENT", "2")
	viper.SetDefault("SETTLEMENT_DISCOUNT_PERCENT", "10")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	lateFee, err := decimal.NewFromString(viper.GetString("LATE_FEE_PERCENT"))
	if err != nil {
		log.Printf("Warning: Invalid LATE_FEE_PERCENT (%q). Defaulting to 2.\n", viper.GetString("LATE_FEE_PERCENT"))
		lateFee = decimal.NewFromInt(2)
	}
	cfg.LateFeePercent = lateFee

	discount, err := decimal.NewFromString(viper.GetString("SETTLEMENT_DISCOUNT_PERCENT"))
	if err != nil {
		log.Printf("Warning: Invalid SETTLEMENT_DISCOUNT_PERCENT (%q). Defaulting to 10.\n", viper.GetString("SETTLEMENT_DISCOUNT_PERCENT"))
		discount = decimal.NewFromInt(10)
	}
	cfg.SettlementDiscountPercent = discount

	return cfg, nil
}
