// Package config loads application configuration from file, environment,
// and defaults, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Every endpoint shape,
// delay, and limit the pipeline uses lives here and is passed into the
// component that needs it; nothing reads ambient globals.
type Config struct {
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Journal   JournalConfig   `yaml:"journal" mapstructure:"journal"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DirectoryConfig describes the public mailbox directory being harvested.
type DirectoryConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	ListingPath string `yaml:"listing_path" mapstructure:"listing_path"`
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
	Workers     int    `yaml:"workers" mapstructure:"workers"`
}

// FetchConfig configures the shared HTTP page fetcher.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// EnrichConfig configures the detail-enrichment stage.
type EnrichConfig struct {
	DelayMillis int `yaml:"delay_millis" mapstructure:"delay_millis"`
	BatchSize   int `yaml:"batch_size" mapstructure:"batch_size"`
}

// Delay returns the inter-request delay as a duration.
func (e EnrichConfig) Delay() time.Duration {
	return time.Duration(e.DelayMillis) * time.Millisecond
}

// VerifyConfig configures the address-verification stage.
type VerifyConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	DelayMillis     int    `yaml:"delay_millis" mapstructure:"delay_millis"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Delay returns the inter-call delay as a duration.
func (v VerifyConfig) Delay() time.Duration {
	return time.Duration(v.DelayMillis) * time.Millisecond
}

// Timeout returns the API timeout as a duration.
func (v VerifyConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSecs) * time.Second
}

// JournalConfig configures the local run journal.
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MAILBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("directory.base_url", "https://www.anytimemailbox.com")
	v.SetDefault("directory.listing_path", "/l/usa")
	v.SetDefault("directory.output_dir", "Public")
	v.SetDefault("directory.workers", 5)
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("enrich.delay_millis", 500)
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("verify.base_url", "https://us-street.api.smarty.com/street-address")
	v.SetDefault("verify.credentials_file", "smarty_api_key.txt")
	v.SetDefault("verify.delay_millis", 50)
	v.SetDefault("verify.timeout_secs", 10)
	v.SetDefault("journal.path", "mailbox.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
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
