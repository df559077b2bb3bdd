package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	Timezone          string `mapstructure:"TIMEZONE"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisTaskDB    int    `mapstructure:"REDIS_TASK_DB"`

	// Dialog behaviour.
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	CollectRetryLimit   int           `mapstructure:"COLLECT_RETRY_LIMIT"`
	ExternalCallTimeout time.Duration `mapstructure:"EXTERNAL_CALL_TIMEOUT"`
	SearchTimeout       time.Duration `mapstructure:"SEARCH_TIMEOUT"`

	// Google AI and speech.
	GeminiAPIKey             string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel              string `mapstructure:"GEMINI_MODEL"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Airport reference data.
	AirportSource  string `mapstructure:"AIRPORT_SOURCE"`
	AirportDataURL string `mapstructure:"AIRPORT_DATA_URL"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MongoDB        string `mapstructure:"MONGO_DB"`

	// Optional postgres table of airline names keyed by carrier code.
	AirlinesDSN string `mapstructure:"AIRLINES_DSN"`

	// Flight offers (Amadeus self-service).
	AmadeusClientID     string        `mapstructure:"AMADEUS_CLIENT_ID"`
	AmadeusClientSecret string        `mapstructure:"AMADEUS_CLIENT_SECRET"`
	AmadeusTokenURL     string        `mapstructure:"AMADEUS_TOKEN_URL"`
	AmadeusOffersURL    string        `mapstructure:"AMADEUS_OFFERS_URL"`
	OfferCurrency       string        `mapstructure:"OFFER_CURRENCY"`
	OfferMaxResults     int           `mapstructure:"OFFER_MAX_RESULTS"`
	TokenExpiryMargin   time.Duration `mapstructure:"TOKEN_EXPIRY_MARGIN"`
	OfferRequestsPerSec float64       `mapstructure:"OFFER_REQUESTS_PER_SECOND"`

	BookingQueueEnabled bool `mapstructure:"BOOKING_QUEUE_ENABLED"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments inject the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_TASK_DB", 1)
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("COLLECT_RETRY_LIMIT", 5)
	viper.SetDefault("EXTERNAL_CALL_TIMEOUT", "15s")
	viper.SetDefault("SEARCH_TIMEOUT", "30s")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("AIRPORT_SOURCE", "http")
	viper.SetDefault("AIRPORT_DATA_URL", "https://raw.githubusercontent.com/mwgg/Airports/refs/heads/master/airports.json")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "flightbot")
	viper.SetDefault("AIRLINES_DSN", "")
	viper.SetDefault("AMADEUS_CLIENT_ID", "")
	viper.SetDefault("AMADEUS_CLIENT_SECRET", "")
	viper.SetDefault("AMADEUS_TOKEN_URL", "https://test.api.amadeus.com/v1/security/oauth2/token")
	viper.SetDefault("AMADEUS_OFFERS_URL", "https://test.api.amadeus.com/v2/shopping/flight-offers")
	viper.SetDefault("OFFER_CURRENCY", "USD")
	viper.SetDefault("OFFER_MAX_RESULTS", 50)
	viper.SetDefault("TOKEN_EXPIRY_MARGIN", "60s")
	viper.SetDefault("OFFER_REQUESTS_PER_SECOND", 5)
	viper.SetDefault("BOOKING_QUEUE_ENABLED", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if AppConfig.AmadeusClientID == "" || AppConfig.AmadeusClientSecret == "" {
		log.Println("AMADEUS_CLIENT_ID/AMADEUS_CLIENT_SECRET not set; flight searches will return no offers")
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the configured time zone used for "today" checks.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
