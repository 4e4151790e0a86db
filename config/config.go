package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	ServiceName string `mapstructure:"service_name"`

	DatabaseURL string `mapstructure:"database_url"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	JWTSecret                string `mapstructure:"jwt_secret"`
	AccessTokenExpiryMinutes int    `mapstructure:"access_token_expiry_minutes"`
	RefreshTokenExpiryDays   int    `mapstructure:"refresh_token_expiry_days"`

	// BlacklistFailOpen controls the read path of the revocation store:
	// true lets requests through when the store is unreachable, false
	// rejects them. The write path always fails closed.
	BlacklistFailOpen bool `mapstructure:"blacklist_fail_open"`
	// StrictLogout makes a failed revocation write during logout fail the
	// request instead of degrading to a warning.
	StrictLogout bool `mapstructure:"strict_logout"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	Consul ConsulConfig `mapstructure:"consul"`
}

func (c *Config) AccessTokenExpiry() time.Duration {
	return time.Duration(c.AccessTokenExpiryMinutes) * time.Minute
}

func (c *Config) RefreshTokenExpiry() time.Duration {
	return time.Duration(c.RefreshTokenExpiryDays) * 24 * time.Hour
}

// Load reads config.yaml (working dir or ./config) with ACCESS_CENTER_*
// environment overrides and validates the result. Validation happens here,
// once, so the rest of the process can trust the values.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("ACCESS_CENTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("http_port", 8080)
	viper.SetDefault("grpc_port", 50051)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("service_name", "access-center")
	viper.SetDefault("redis_addr", "localhost:6379")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("access_token_expiry_minutes", 15)
	viper.SetDefault("refresh_token_expiry_days", 30)
	viper.SetDefault("blacklist_fail_open", false)
	viper.SetDefault("strict_logout", true)
	viper.SetDefault("admin_email", "admin@example.com")
	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.address", "localhost:8500")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults and environment apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d: must be between 1 and 65535", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port %d: must be between 1 and 65535", c.GRPCPort)
	}
	// 256 bits minimum, checked once here so the codec never has to.
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 256 bits (32 bytes) long, got %d bytes", len(c.JWTSecret))
	}
	if c.AccessTokenExpiryMinutes < 1 || c.AccessTokenExpiryMinutes > 999 {
		return fmt.Errorf("invalid access_token_expiry_minutes %d: must be between 1 and 999", c.AccessTokenExpiryMinutes)
	}
	if c.RefreshTokenExpiryDays < 1 || c.RefreshTokenExpiryDays > 999 {
		return fmt.Errorf("invalid refresh_token_expiry_days %d: must be between 1 and 999", c.RefreshTokenExpiryDays)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	return nil
}
