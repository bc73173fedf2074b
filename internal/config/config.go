package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// WalletConfig carries the starting balance every new wallet is seeded with.
type WalletConfig struct {
	SeedBalance string `mapstructure:"seed_balance"`
}

func (w WalletConfig) SeedBalanceDecimal() (decimal.Decimal, error) {
	if w.SeedBalance == "" {
		return decimal.NewFromInt(1000), nil
	}
	return decimal.NewFromString(w.SeedBalance)
}

type BillingConfig struct {
	DefaultConsultationFee string `mapstructure:"default_consultation_fee"`
}

func (b BillingConfig) DefaultFeeDecimal() (decimal.Decimal, error) {
	if b.DefaultConsultationFee == "" {
		return decimal.NewFromInt(300), nil
	}
	return decimal.NewFromString(b.DefaultConsultationFee)
}

type OutboxConfig struct {
	BatchSize           int `mapstructure:"batch_size"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	RetryAttempts       int `mapstructure:"retry_attempts"`
	RetryDelaySeconds   int `mapstructure:"retry_delay_seconds"`
	RetentionHours      int `mapstructure:"retention_hours"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	return time.Duration(o.PollIntervalSeconds) * time.Second
}

func (o OutboxConfig) RetryDelay() time.Duration {
	return time.Duration(o.RetryDelaySeconds) * time.Second
}

func (o OutboxConfig) Retention() time.Duration {
	return time.Duration(o.RetentionHours) * time.Hour
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
