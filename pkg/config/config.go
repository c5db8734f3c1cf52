package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API        APIConfig        `validate:"required"`
	Analysis   AnalysisConfig   `validate:"required"`
	Breaker    BreakerConfig    `validate:"required"`
	Generative GenerativeConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Redis      RedisConfig
	SQLite     SQLiteConfig
	Logging    LoggingConfig `validate:"required"`
}

type APIConfig struct {
	BaseURL    string `validate:"required,url"`
	TimeoutSec int    `validate:"gt=0"`
}

type AnalysisConfig struct {
	SummaryMaxTokens    int `validate:"gt=0"`
	GenerativeMaxTokens int `validate:"gt=0"`
	CombinedMaxTokens   int `validate:"gt=0"`
	RagTopK             int `validate:"gt=0"`
	DiscardStale        bool
}

type BreakerConfig struct {
	Enabled          bool
	FailureThreshold uint32 `validate:"gt=0"`
	OpenTimeoutSec   int    `validate:"gt=0"`
}

type GenerativeConfig struct {
	Provider        string `validate:"oneof=api groq"`
	BaseURL         string `validate:"omitempty,url"`
	APIKey          string
	Model           string
	MaxContextChars int     `validate:"gt=0"`
	Temperature     float32 `validate:"gte=0,lte=2"`
	MaxTokens       int     `validate:"gt=0"`
	TimeoutSec      int     `validate:"gt=0"`
}

type ServerConfig struct {
	Host          string
	Port          int `validate:"gt=0,lt=65536"`
	ReadTimeout   int
	WriteTimeout  int
	BodyLimit     int `validate:"gt=0"`
	SessionTTLMin int `validate:"gt=0"`
	AllowOrigins  string
	AccessLog     bool
	Development   bool

	SubmitsPerMinute int `validate:"gt=0"`
	MaxTextChars     int `validate:"gt=0"`
	MaxQuestionChars int `validate:"gt=0"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLMin   int
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type LoggingConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	Format     string `validate:"oneof=json console"`
	OutputPath string
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c BreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutSec) * time.Second
}

func (c GenerativeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMin) * time.Minute
}

// Load reads configuration from an optional .env file, config.yaml and
// DOCCLIENT_* environment variables. configFile overrides the search paths.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/docclient")
	}

	v.SetEnvPrefix("DOCCLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.baseURL", "http://localhost:8000")
	v.SetDefault("api.timeoutSec", 120)

	v.SetDefault("analysis.summaryMaxTokens", 256)
	v.SetDefault("analysis.generativeMaxTokens", 128)
	v.SetDefault("analysis.combinedMaxTokens", 256)
	v.SetDefault("analysis.ragTopK", 3)
	v.SetDefault("analysis.discardStale", false)

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.failureThreshold", 5)
	v.SetDefault("breaker.openTimeoutSec", 30)

	v.SetDefault("generative.provider", "api")
	v.SetDefault("generative.baseURL", "https://api.groq.com/openai/v1")
	v.SetDefault("generative.model", "llama-3.1-8b-instant")
	v.SetDefault("generative.maxContextChars", 20000)
	v.SetDefault("generative.temperature", 0.2)
	v.SetDefault("generative.maxTokens", 256)
	v.SetDefault("generative.timeoutSec", 30)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 180)
	v.SetDefault("server.bodyLimit", 20971520)
	v.SetDefault("server.sessionTTLMin", 60)
	v.SetDefault("server.allowOrigins", "*")
	v.SetDefault("server.accessLog", true)
	v.SetDefault("server.development", false)
	v.SetDefault("server.submitsPerMinute", 30)
	v.SetDefault("server.maxTextChars", 2000000)
	v.SetDefault("server.maxQuestionChars", 2000)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlMin", 1440)

	v.SetDefault("sqlite.enabled", false)
	v.SetDefault("sqlite.path", "./data/history.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputPath", "stderr")
}
