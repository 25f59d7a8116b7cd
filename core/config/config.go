package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// MenuConfig tunes the session navigation engine.
type MenuConfig struct {
	// MessageTTLSeconds is the default lifetime of application messages; 0 -> 12 minutes.
	MessageTTLSeconds int `yaml:"message_ttl_seconds" envconfig:"MENU_MESSAGE_TTL_SECONDS"`
	// SweepIntervalSeconds defines how often expired messages are collected; 0 -> 10 seconds.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"MENU_SWEEP_INTERVAL_SECONDS"`
	// PollDeadlineSeconds bounds how long a poll waits for an answer; 0 -> 60 seconds.
	PollDeadlineSeconds int `yaml:"poll_deadline_seconds" envconfig:"MENU_POLL_DEADLINE_SECONDS"`
	// DefaultPicture is sent when a picture button resolves to a missing file.
	DefaultPicture string `yaml:"default_picture" envconfig:"MENU_DEFAULT_PICTURE"`
	// ButtonsPerRow overrides the keyboard grid width; 0 -> per-mode defaults.
	ButtonsPerRow int `yaml:"buttons_per_row" envconfig:"MENU_BUTTONS_PER_ROW"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdatePollAnswer identifies poll answer updates for rate limit exclusions.
	UpdatePollAnswer = "poll_answer"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "poll_answer": poll answer updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	Menu      MenuConfig      `yaml:"menu"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// MessageTTL returns the configured application message TTL as a duration.
func (c *Config) MessageTTL() time.Duration {
	if c == nil || c.Menu.MessageTTLSeconds <= 0 {
		return 12 * time.Minute
	}
	return time.Duration(c.Menu.MessageTTLSeconds) * time.Second
}

// SweepInterval returns the configured expiry sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	if c == nil || c.Menu.SweepIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Menu.SweepIntervalSeconds) * time.Second
}

// PollDeadline returns the configured poll answer deadline as a duration.
func (c *Config) PollDeadline() time.Duration {
	if c == nil || c.Menu.PollDeadlineSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Menu.PollDeadlineSeconds) * time.Second
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Menu.MessageTTLSeconds < 0 {
		return fmt.Errorf("menu.message_ttl_seconds must be >= 0")
	}
	if cfg.Menu.SweepIntervalSeconds < 0 {
		return fmt.Errorf("menu.sweep_interval_seconds must be >= 0")
	}
	if cfg.Menu.PollDeadlineSeconds < 0 {
		return fmt.Errorf("menu.poll_deadline_seconds must be >= 0")
	}
	if cfg.Menu.ButtonsPerRow < 0 {
		return fmt.Errorf("menu.buttons_per_row must be >= 0")
	}

	allowed := map[string]struct{}{
		UpdateCallback:   {},
		UpdateMessage:    {},
		UpdatePollAnswer: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, poll_answer", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
