package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	// LogOutput selects the console sink: stdout or stderr.
	LogOutput string `mapstructure:"log_output"`

	APIURL             string        `mapstructure:"api_url"`
	PublicAPIURL       string        `mapstructure:"public_api_url"`
	DefaultBaseURL     string        `mapstructure:"default_base_url"`
	AppOrigin          string        `mapstructure:"app_origin"`
	SameOriginInClient bool          `mapstructure:"same_origin_in_client"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	TokenStoreType  string        `mapstructure:"token_store_type"`
	TokenStorePath  string        `mapstructure:"token_store_path"`
	TokenTTLSeconds int64         `mapstructure:"token_ttl_seconds"`
	TokenTTL        time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`

	GatewayAddr     string `mapstructure:"gateway_addr"`
	GatewayUpstream string `mapstructure:"gateway_upstream"`

	v *viper.Viper
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "backoffice")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_output", "stdout")
	v.SetDefault("api_url", "")
	v.SetDefault("public_api_url", "")
	v.SetDefault("default_base_url", "/api")
	v.SetDefault("app_origin", "http://localhost:3000")
	v.SetDefault("same_origin_in_client", false)
	v.SetDefault("http_timeout_seconds", 0) // transport default
	v.SetDefault("token_store_type", "bbolt")
	v.SetDefault("token_store_path", "./data/session.db")
	v.SetDefault("token_ttl_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("publishers_file", "")
	v.SetDefault("gateway_addr", ":3000")
	v.SetDefault("gateway_upstream", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second

	if strings.TrimSpace(cfg.DefaultBaseURL) == "" {
		return nil, fmt.Errorf("invalid default_base_url (must not be empty)")
	}

	cfg.v = v
	return &cfg, nil
}

// Lookup returns the current value for key. Environment variables are read on
// every call, so API_URL changes are seen without reloading.
func (c *Config) Lookup(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}
