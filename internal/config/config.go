/**
 * @description
 * Configuration management for the KioskPay service. Values come from the
 * environment, with an optional env file next to the binary, loaded through
 * Viper into a single Config struct.
 *
 * @dependencies
 * - github.com/spf13/viper: configuration loading and env binding.
 */

package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPlatformFeePercent  = 10.0
	DefaultRefillPaymentLimit  = 250
	DefaultLowLiquidThreshold  = 25
	DefaultRefillSweepSchedule = "*/15 * * * *"
)

// Config holds all configuration for the KioskPay service.
type Config struct {
	ServerPort            string        `mapstructure:"SERVER_PORT"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	RedisURL              string        `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix  string        `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL           string        `mapstructure:"RABBITMQ_URL"`
	EventExchange         string        `mapstructure:"EVENT_EXCHANGE"`
	TelemetryQueue        string        `mapstructure:"TELEMETRY_QUEUE"`
	RazorpayKeyID         string        `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string        `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL       string        `mapstructure:"RAZORPAY_BASE_URL"`
	SessionJWTSecret      string        `mapstructure:"SESSION_JWT_SECRET"`
	SessionTTL            time.Duration `mapstructure:"SESSION_TTL"`
	PlatformFeePercent    float64       `mapstructure:"PLATFORM_FEE_PERCENT"`
	RefillPaymentLimit    int           `mapstructure:"REFILL_PAYMENT_LIMIT"`
	LowLiquidThreshold    int           `mapstructure:"LOW_LIQUID_THRESHOLD"`
	RefillSweepSchedule   string        `mapstructure:"REFILL_SWEEP_SCHEDULE"`
	AuthAllowLegacyDigest bool          `mapstructure:"AUTH_ALLOW_LEGACY_DIGEST"`
	LoginRateLimit        int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow       time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
	PublicBaseURL         string        `mapstructure:"PUBLIC_BASE_URL"`
	CORSAllowedOrigins    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables and an optional
// env file in path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "kioskpay:rate_limit")
	viper.SetDefault("EVENT_EXCHANGE", "kioskpay.events")
	viper.SetDefault("TELEMETRY_QUEUE", "kioskpay.telemetry")
	viper.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	viper.SetDefault("SESSION_TTL", "12h")
	viper.SetDefault("PLATFORM_FEE_PERCENT", DefaultPlatformFeePercent)
	viper.SetDefault("REFILL_PAYMENT_LIMIT", DefaultRefillPaymentLimit)
	viper.SetDefault("LOW_LIQUID_THRESHOLD", DefaultLowLiquidThreshold)
	viper.SetDefault("REFILL_SWEEP_SCHEDULE", DefaultRefillSweepSchedule)
	viper.SetDefault("AUTH_ALLOW_LEGACY_DIGEST", true)
	viper.SetDefault("LOGIN_RATE_LIMIT", 10)
	viper.SetDefault("LOGIN_RATE_WINDOW", "1m")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "KIOSKPAY_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("TELEMETRY_QUEUE")
	_ = viper.BindEnv("RAZORPAY_KEY_ID")
	_ = viper.BindEnv("RAZORPAY_KEY_SECRET")
	_ = viper.BindEnv("RAZORPAY_BASE_URL")
	_ = viper.BindEnv("SESSION_JWT_SECRET")
	_ = viper.BindEnv("SESSION_TTL")
	_ = viper.BindEnv("PLATFORM_FEE_PERCENT")
	_ = viper.BindEnv("REFILL_PAYMENT_LIMIT")
	_ = viper.BindEnv("LOW_LIQUID_THRESHOLD")
	_ = viper.BindEnv("REFILL_SWEEP_SCHEDULE")
	_ = viper.BindEnv("AUTH_ALLOW_LEGACY_DIGEST")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT")
	_ = viper.BindEnv("LOGIN_RATE_WINDOW")
	_ = viper.BindEnv("PUBLIC_BASE_URL")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// The env file is optional.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.SessionJWTSecret = strings.TrimSpace(config.SessionJWTSecret)
	config.PublicBaseURL = strings.TrimRight(strings.TrimSpace(config.PublicBaseURL), "/")

	config.normalize()

	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL is required")
	}
	if config.SessionJWTSecret == "" {
		return config, errors.New("SESSION_JWT_SECRET is required")
	}
	return config, nil
}

// normalize coerces out-of-range values back to their defaults.
func (c *Config) normalize() {
	if c.PlatformFeePercent <= 0 || c.PlatformFeePercent >= 100 {
		log.Printf("level=warn component=config msg=\"invalid PLATFORM_FEE_PERCENT; using default\" value=%v", c.PlatformFeePercent)
		c.PlatformFeePercent = DefaultPlatformFeePercent
	}
	if c.RefillPaymentLimit <= 0 {
		log.Printf("level=warn component=config msg=\"invalid REFILL_PAYMENT_LIMIT; using default\" value=%d", c.RefillPaymentLimit)
		c.RefillPaymentLimit = DefaultRefillPaymentLimit
	}
	if c.LowLiquidThreshold < 0 || c.LowLiquidThreshold > 100 {
		log.Printf("level=warn component=config msg=\"invalid LOW_LIQUID_THRESHOLD; using default\" value=%d", c.LowLiquidThreshold)
		c.LowLiquidThreshold = DefaultLowLiquidThreshold
	}
	if strings.TrimSpace(c.RefillSweepSchedule) == "" {
		c.RefillSweepSchedule = DefaultRefillSweepSchedule
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.LoginRateWindow <= 0 {
		c.LoginRateWindow = time.Minute
	}
	if c.RedisRateLimitPrefix = strings.TrimSpace(c.RedisRateLimitPrefix); c.RedisRateLimitPrefix == "" {
		c.RedisRateLimitPrefix = "kioskpay:rate_limit"
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
