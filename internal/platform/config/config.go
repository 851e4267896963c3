package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// RedisAddr is the address of the Redis instance backing the job queue.
	RedisAddr string

	// ReservePercentage is the share of monthly operating income appropriated
	// into the reserve fund. ReserveMinimumPercentage is the legal floor the
	// compliance report certifies against.
	ReservePercentage        decimal.Decimal
	ReserveMinimumPercentage decimal.Decimal

	// SystemActorID is recorded as the acting identity for scheduler-driven
	// appropriations.
	SystemActorID string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("RESERVE_PERCENTAGE", "30")
	viper.SetDefault("RESERVE_MINIMUM_PERCENTAGE", "30")
	viper.SetDefault("SYSTEM_ACTOR_ID", "system")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.SystemActorID = viper.GetString("SYSTEM_ACTOR_ID")

	percentage, err := decimal.NewFromString(viper.GetString("RESERVE_PERCENTAGE"))
	if err != nil || percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		log.Printf("Warning: Invalid value for RESERVE_PERCENTAGE ('%s'). Defaulting to 30.\n", viper.GetString("RESERVE_PERCENTAGE"))
		percentage = decimal.NewFromInt(30)
	}
	cfg.ReservePercentage = percentage

	minimum, err := decimal.NewFromString(viper.GetString("RESERVE_MINIMUM_PERCENTAGE"))
	if err != nil || minimum.IsNegative() {
		log.Printf("Warning: Invalid value for RESERVE_MINIMUM_PERCENTAGE ('%s'). Defaulting to 30.\n", viper.GetString("RESERVE_MINIMUM_PERCENTAGE"))
		minimum = decimal.NewFromInt(30)
	}
	cfg.ReserveMinimumPercentage = minimum

	return cfg, nil
}
