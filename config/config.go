package config

import (
	"log"

	"github.com/spf13/viper"
)

// LimiterPreset holds the parameters for one named fixed-window rate limiter.
type LimiterPreset struct {
	MaxRequests int   `mapstructure:"max_requests"`
	WindowMs    int64 `mapstructure:"window_ms"`
}

type Config struct {
	Database struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		Name           string `mapstructure:"name"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey       string `mapstructure:"secret_key"`
		AccessTTLMin    int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLHours int    `mapstructure:"refresh_ttl_hours"`
	} `mapstructure:"jwt"`
	Webhook struct {
		// PublicKey is the hex-encoded ed25519 public key of the CRM sender.
		PublicKey      string `mapstructure:"public_key"`
		MaxSkewSeconds int    `mapstructure:"max_skew_seconds"`
		ReplayTTLSec   int    `mapstructure:"replay_ttl_seconds"`
	} `mapstructure:"webhook"`
	Tokens struct {
		InvitationTTLHours int `mapstructure:"invitation_ttl_hours"`
		ActivationTTLHours int `mapstructure:"activation_ttl_hours"`
		ResetTTLMinutes    int `mapstructure:"reset_ttl_minutes"`
	} `mapstructure:"tokens"`
	RateLimits map[string]LimiterPreset `mapstructure:"rate_limits"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	ApplyDefaults()

	// The signing secret and the webhook public key are trust anchors.
	// Refusing to start without them beats failing on the first request.
	if AppConfig.JWT.SecretKey == "" {
		log.Fatal("jwt.secret_key is not configured")
	}
	if AppConfig.Webhook.PublicKey == "" {
		log.Fatal("webhook.public_key is not configured")
	}
}

// ApplyDefaults fills in the optional knobs that have sensible defaults.
// It is exported so tests can build a config without a config.yml on disk.
func ApplyDefaults() {
	if AppConfig.JWT.AccessTTLMin == 0 {
		AppConfig.JWT.AccessTTLMin = 15
	}
	if AppConfig.JWT.RefreshTTLHours == 0 {
		AppConfig.JWT.RefreshTTLHours = 24 * 7
	}
	if AppConfig.Webhook.MaxSkewSeconds == 0 {
		AppConfig.Webhook.MaxSkewSeconds = 300
	}
	if AppConfig.Webhook.ReplayTTLSec < AppConfig.Webhook.MaxSkewSeconds {
		AppConfig.Webhook.ReplayTTLSec = AppConfig.Webhook.MaxSkewSeconds
	}
	if AppConfig.Tokens.InvitationTTLHours == 0 {
		AppConfig.Tokens.InvitationTTLHours = 24
	}
	if AppConfig.Tokens.ActivationTTLHours == 0 {
		AppConfig.Tokens.ActivationTTLHours = 24
	}
	if AppConfig.Tokens.ResetTTLMinutes == 0 {
		AppConfig.Tokens.ResetTTLMinutes = 30
	}
	if AppConfig.RateLimits == nil {
		AppConfig.RateLimits = map[string]LimiterPreset{}
	}
	if _, ok := AppConfig.RateLimits["auth"]; !ok {
		AppConfig.RateLimits["auth"] = LimiterPreset{MaxRequests: 10, WindowMs: 60000}
	}
	if _, ok := AppConfig.RateLimits["public"]; !ok {
		AppConfig.RateLimits["public"] = LimiterPreset{MaxRequests: 100, WindowMs: 60000}
	}
	if _, ok := AppConfig.RateLimits["admin"]; !ok {
		AppConfig.RateLimits["admin"] = LimiterPreset{MaxRequests: 300, WindowMs: 60000}
	}
}
