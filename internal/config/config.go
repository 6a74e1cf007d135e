package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Quansic     QuansicConfig     `yaml:"quansic" mapstructure:"quansic"`
	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz" mapstructure:"musicbrainz"`
	Spotify     SpotifyConfig     `yaml:"spotify" mapstructure:"spotify"`
	Provision   ProvisionConfig   `yaml:"provision" mapstructure:"provision"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// QuansicConfig holds Quansic enrichment service settings.
type QuansicConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// MusicBrainzConfig holds MusicBrainz API settings. MusicBrainz requires a
// contact user agent and caps anonymous clients at one request per second.
type MusicBrainzConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// SpotifyConfig holds Spotify Web API credentials.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	TokenURL     string `yaml:"token_url" mapstructure:"token_url"`
}

// ProvisionConfig holds the downstream provisioning service endpoints.
type ProvisionConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	MintURL     string `yaml:"mint_url" mapstructure:"mint_url"`
	SocialURL   string `yaml:"social_url" mapstructure:"social_url"`
	MonetizeURL string `yaml:"monetize_url" mapstructure:"monetize_url"`
}

// ResolverConfig configures the fallback chains.
type ResolverConfig struct {
	// ChainsFile optionally points at a YAML chains file; empty uses defaults.
	ChainsFile      string `yaml:"chains_file" mapstructure:"chains_file"`
	FailureTTLHours int    `yaml:"failure_ttl_hours" mapstructure:"failure_ttl_hours"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency         int `yaml:"concurrency" mapstructure:"concurrency"`
	CallDelayMillis     int `yaml:"call_delay_millis" mapstructure:"call_delay_millis"`
	AdapterTimeoutSecs  int `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	MaxRetries          int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets default to empty so their env bindings resolve.
	v.SetDefault("quansic.key", "")
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("provision.key", "")
	v.SetDefault("provision.mint_url", "")
	v.SetDefault("provision.social_url", "")
	v.SetDefault("provision.monetize_url", "")
	v.SetDefault("resolver.chains_file", "")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "catalog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("quansic.base_url", "https://api.quansic.com")
	v.SetDefault("quansic.rate_per_second", 2)
	v.SetDefault("musicbrainz.base_url", "https://musicbrainz.org/ws/2")
	v.SetDefault("musicbrainz.user_agent", "catalog-cli/1.0 (ops@octavelabs.io)")
	v.SetDefault("musicbrainz.rate_per_second", 1)
	v.SetDefault("spotify.base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("resolver.failure_ttl_hours", 168)
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.call_delay_millis", 500)
	v.SetDefault("batch.adapter_timeout_secs", 60)
	v.SetDefault("batch.max_retries", 3)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
