// Package config provides configuration management for the wallet insight
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Chains    ChainsConfig
	Providers ProvidersConfig
	Poller    PollerConfig
	Detection DetectionConfig
	Spending  SpendingConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds store configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainsConfig holds the set of enabled blockchains
type ChainsConfig struct {
	Enabled []string
}

// ProvidersConfig holds external data provider configuration
type ProvidersConfig struct {
	EtherscanAPIKey  string
	BscscanAPIKey    string
	SolanaAPIKey     string
	EtherscanBaseURL string
	BscscanBaseURL   string
	SolanaBaseURL    string
	BitcoinBaseURL   string
	CoinGeckoBaseURL string
	PriceCacheTTL    time.Duration
}

// PollerConfig holds the periodic analysis loop configuration
type PollerConfig struct {
	Interval time.Duration
}

// DetectionConfig holds wallet aggregation configuration
type DetectionConfig struct {
	MaxWallets int
}

// SpendingConfig holds spending classifier configuration
type SpendingConfig struct {
	// TreatNegativeAsIncoming skips negative spend deltas (Solana inbound
	// transfers) instead of counting them as small trades.
	TreatNegativeAsIncoming bool
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// NotifyConfig holds notification channel credentials
type NotifyConfig struct {
	SMTPHost          string
	SMTPPort          string
	EmailUser         string
	EmailPassword     string
	TelegramBotToken  string
	TelegramChatID    string
	DiscordWebhookURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_insight"),
				User:           getEnv("POSTGRES_USER", "insight"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "wallet_insight"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Chains: ChainsConfig{
			Enabled: splitList(getEnv("ENABLED_CHAINS", "ethereum,bsc,solana,bitcoin")),
		},
		Providers: ProvidersConfig{
			EtherscanAPIKey:  getEnv("ETHERSCAN_API_KEY", ""),
			BscscanAPIKey:    getEnv("BSCSCAN_API_KEY", ""),
			SolanaAPIKey:     getEnv("SOLANA_API_KEY", ""),
			EtherscanBaseURL: getEnv("ETHERSCAN_BASE_URL", "https://api.etherscan.io/api"),
			BscscanBaseURL:   getEnv("BSCSCAN_BASE_URL", "https://api.bscscan.com/api"),
			SolanaBaseURL:    getEnv("SOLANA_BASE_URL", "https://api.solana.fm/v0"),
			BitcoinBaseURL:   getEnv("BITCOIN_BASE_URL", "https://blockchain.info"),
			CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			PriceCacheTTL:    getEnvAsDuration("PRICE_CACHE_TTL", 60*time.Second),
		},
		Poller: PollerConfig{
			Interval: getEnvAsDuration("POLL_INTERVAL", 5*time.Minute),
		},
		Detection: DetectionConfig{
			MaxWallets: getEnvAsInt("DETECTION_MAX_WALLETS", 150),
		},
		Spending: SpendingConfig{
			TreatNegativeAsIncoming: getEnvAsBool("SPENDING_TREAT_NEGATIVE_AS_INCOMING", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Notify: NotifyConfig{
			SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:          getEnv("SMTP_PORT", "465"),
			EmailUser:         getEnv("EMAIL_USER", ""),
			EmailPassword:     getEnv("EMAIL_PASS", ""),
			TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// PostgresURL returns the connection URL used by the migration runner
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
