// Package config loads application configuration from config.yaml and the
// LEADAGENT_ environment prefix, and initializes the global zap logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-agent/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      store.Config     `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects and configures the model provider. The provider is
// resolved once at startup, not per call.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`

	AnthropicKey   string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	AnthropicModel string `yaml:"anthropic_model" mapstructure:"anthropic_model"`

	OpenAIKey     string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model" mapstructure:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url" mapstructure:"openai_base_url"`

	OllamaBaseURL string `yaml:"ollama_base_url" mapstructure:"ollama_base_url"`
	OllamaModel   string `yaml:"ollama_model" mapstructure:"ollama_model"`

	MaxTokens  int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// SalesforceConfig holds credentials for the CRM sync command.
type SalesforceConfig struct {
	Domain         string  `yaml:"domain" mapstructure:"domain"`
	ConsumerKey    string  `yaml:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret string  `yaml:"consumer_secret" mapstructure:"consumer_secret"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
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
	v.SetEnvPrefix("LEADAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.openai_model", "gpt-4-turbo-preview")
	v.SetDefault("llm.ollama_base_url", "http://localhost:11434")
	v.SetDefault("llm.ollama_model", "llama3.2")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("server.port", 8000)
	v.SetDefault("salesforce.rate_per_sec", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
