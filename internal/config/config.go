package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	Secret         string        `mapstructure:"secret"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	LogLevel       string        `mapstructure:"log_level"`

	MaxRooms          int   `mapstructure:"max_rooms"`
	MinKeyLen         int   `mapstructure:"min_key_len"`
	MaxKeyLen         int   `mapstructure:"max_key_len"`
	MaxRoomAgeMs      int64 `mapstructure:"max_room_age_ms"`
	CleanupIntervalMs int64 `mapstructure:"cleanup_interval_ms"`
	StrictAuthorship  bool  `mapstructure:"strict_authorship"`

	JoinRateLimit    int           `mapstructure:"join_rate_limit"`
	JoinRateInterval time.Duration `mapstructure:"join_rate_interval"`
}

func (c *Config) MaxRoomAge() time.Duration {
	return time.Duration(c.MaxRoomAgeMs) * time.Millisecond
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMs) * time.Millisecond
}

// env names per key; the first one is canonical, the rest are aliases
// kept from older deployments.
var envNames = map[string][]string{
	"mode":                {"MODE"},
	"port":                {"PORT"},
	"secret":              {"SESSION_SECRET"},
	"allowed_origins":     {"ALLOWED_ORIGINS"},
	"trusted_proxies":     {"TRUSTED_PROXIES"},
	"read_limit":          {"READ_LIMIT"},
	"ping_period":         {"PING_PERIOD"},
	"log_level":           {"LOG_LEVEL"},
	"max_rooms":           {"MAX_ROOMS"},
	"min_key_len":         {"MIN_KEY_LEN", "MIN_ENCRYPTION_KEY_LENGTH"},
	"max_key_len":         {"MAX_KEY_LEN", "MAX_ENCRYPTION_KEY_LENGTH"},
	"max_room_age_ms":     {"MAX_ROOM_AGE_MS"},
	"cleanup_interval_ms": {"CLEANUP_INTERVAL_MS"},
	"strict_authorship":   {"STRICT_AUTHORSHIP"},
	"join_rate_limit":     {"JOIN_RATE_LIMIT"},
	"join_rate_interval":  {"JOIN_RATE_INTERVAL"},
}

// Load reads flags, .env, the environment and an optional YAML file, in
// that order of precedence.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("cipher", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	fs.Int("port", 3001, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	fileName := *configFile
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("secret", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_rooms", 50000)
	v.SetDefault("min_key_len", 6)
	v.SetDefault("max_key_len", 64)
	v.SetDefault("max_room_age_ms", 24*60*60*1000)
	v.SetDefault("cleanup_interval_ms", 15*60*1000)
	v.SetDefault("strict_authorship", false)
	v.SetDefault("join_rate_limit", 10)
	v.SetDefault("join_rate_interval", "1m")

	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, fmt.Errorf("bind flag port: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Secret = secret
		log.Warn().Str("module", "config").Msg("SESSION_SECRET not set, sessions will not survive a restart")
	}

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Int("max_rooms", cfg.MaxRooms).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.MaxRooms < 1:
		return fmt.Errorf("max_rooms must be at least 1, got %d", c.MaxRooms)
	case c.MinKeyLen < 1:
		return fmt.Errorf("min_key_len must be at least 1, got %d", c.MinKeyLen)
	case c.MaxKeyLen < c.MinKeyLen:
		return fmt.Errorf("max_key_len %d is below min_key_len %d", c.MaxKeyLen, c.MinKeyLen)
	case c.MaxRoomAgeMs <= 0:
		return errors.New("max_room_age_ms must be positive")
	case c.CleanupIntervalMs <= 0:
		return errors.New("cleanup_interval_ms must be positive")
	case c.PingPeriod <= 0:
		return errors.New("ping_period must be positive")
	case c.ReadLimit <= 0:
		return errors.New("read_limit must be positive")
	case c.JoinRateLimit < 1 || c.JoinRateInterval <= 0:
		return errors.New("join rate limit must be positive")
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
