package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Benzinga BenzingaConfig `yaml:"benzinga"`
	Alpaca   AlpacaConfig   `yaml:"alpaca"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Trading  TradingConfig  `yaml:"trading"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BenzingaConfig struct {
	APIKey         string `yaml:"api_key"`
	PageSize       int    `yaml:"page_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AlpacaConfig struct {
	APIKey         string `yaml:"api_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TradingConfig struct {
	NewsInterval       string  `yaml:"news_interval"`
	PipelineInterval   string  `yaml:"pipeline_interval"`
	ExitInterval       string  `yaml:"exit_interval"`
	BarTimeframe       string  `yaml:"bar_timeframe"`
	BarLimit           int     `yaml:"bar_limit"`
	RvolThreshold      float64 `yaml:"rvol_threshold"`
	RvolWindow         int     `yaml:"rvol_window"`
	ResistanceLookback int     `yaml:"resistance_lookback"`
	NewsBatchSize      int     `yaml:"news_batch_size"`
	DefaultTrailingPct float64 `yaml:"default_trailing_pct"`
	SessionTimezone    string  `yaml:"session_timezone"`
	SessionClose       string  `yaml:"session_close"` // HH:MM, exchange-local
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the config file, overlays environment credentials and applies
// defaults. A missing file is not an error: every field has a default or an
// environment fallback, matching how the adapters degrade when keys are absent.
func Load(path string) (*Config, error) {
	// A .env file next to the binary provides credentials in development.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BENZINGA_API_KEY"); v != "" && cfg.Benzinga.APIKey == "" {
		cfg.Benzinga.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" && cfg.Alpaca.APIKey == "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" && cfg.Alpaca.SecretKey == "" {
		cfg.Alpaca.SecretKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" && cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" && cfg.Telegram.ChatID == 0 {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" && cfg.Email.Host == "" {
		cfg.Email.Host = v
		cfg.Email.Enabled = true
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" && cfg.Email.Port == 0 {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Email.Port = p
		}
	}
	if v := os.Getenv("EMAIL_USERNAME"); v != "" && cfg.Email.Username == "" {
		cfg.Email.Username = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" && cfg.Email.Password == "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" && cfg.Email.To == "" {
		cfg.Email.To = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Benzinga.PageSize == 0 {
		cfg.Benzinga.PageSize = 50
	}
	if cfg.Benzinga.TimeoutSeconds == 0 {
		cfg.Benzinga.TimeoutSeconds = 15
	}
	if cfg.Alpaca.TimeoutSeconds == 0 {
		cfg.Alpaca.TimeoutSeconds = 15
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 20
	}
	if cfg.Trading.NewsInterval == "" {
		cfg.Trading.NewsInterval = "10s"
	}
	if cfg.Trading.PipelineInterval == "" {
		cfg.Trading.PipelineInterval = "10s"
	}
	if cfg.Trading.ExitInterval == "" {
		cfg.Trading.ExitInterval = "10s"
	}
	if cfg.Trading.BarTimeframe == "" {
		cfg.Trading.BarTimeframe = "5Min"
	}
	if cfg.Trading.BarLimit == 0 {
		cfg.Trading.BarLimit = 120
	}
	if cfg.Trading.RvolThreshold == 0 {
		cfg.Trading.RvolThreshold = 1.5
	}
	if cfg.Trading.RvolWindow == 0 {
		cfg.Trading.RvolWindow = 30
	}
	if cfg.Trading.ResistanceLookback == 0 {
		cfg.Trading.ResistanceLookback = 20
	}
	if cfg.Trading.NewsBatchSize == 0 {
		cfg.Trading.NewsBatchSize = 50
	}
	if cfg.Trading.DefaultTrailingPct == 0 {
		cfg.Trading.DefaultTrailingPct = 10.0
	}
	if cfg.Trading.SessionTimezone == "" {
		cfg.Trading.SessionTimezone = "US/Pacific"
	}
	if cfg.Trading.SessionClose == "" {
		cfg.Trading.SessionClose = "12:59"
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	for _, iv := range []struct{ name, value string }{
		{"trading.news_interval", c.Trading.NewsInterval},
		{"trading.pipeline_interval", c.Trading.PipelineInterval},
		{"trading.exit_interval", c.Trading.ExitInterval},
	} {
		if _, err := time.ParseDuration(iv.value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", iv.name, iv.value, err)
		}
	}
	if _, _, err := parseClock(c.Trading.SessionClose); err != nil {
		return fmt.Errorf("invalid trading.session_close %q: %w", c.Trading.SessionClose, err)
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Email.Enabled {
		if c.Email.Host == "" || c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email.host, email.username and email.password are required when email is enabled")
		}
	}
	return nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock out of range")
	}
	return hour, minute, nil
}

func (c *Config) NewsInterval() time.Duration {
	d, _ := time.ParseDuration(c.Trading.NewsInterval)
	return d
}

func (c *Config) PipelineInterval() time.Duration {
	d, _ := time.ParseDuration(c.Trading.PipelineInterval)
	return d
}

func (c *Config) ExitInterval() time.Duration {
	d, _ := time.ParseDuration(c.Trading.ExitInterval)
	return d
}

// SessionLocation resolves the exchange-local timezone used for the
// market-close exit check.
func (c *Config) SessionLocation() *time.Location {
	loc, err := time.LoadLocation(c.Trading.SessionTimezone)
	if err != nil {
		loc = time.FixedZone("PT", -8*60*60)
	}
	return loc
}

// SessionCloseMinutes returns the session-close time as minutes after midnight.
func (c *Config) SessionCloseMinutes() int {
	hour, minute, _ := parseClock(c.Trading.SessionClose)
	return hour*60 + minute
}

func (c *Config) BenzingaTimeout() time.Duration {
	return time.Duration(c.Benzinga.TimeoutSeconds) * time.Second
}

func (c *Config) AlpacaTimeout() time.Duration {
	return time.Duration(c.Alpaca.TimeoutSeconds) * time.Second
}

func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}
