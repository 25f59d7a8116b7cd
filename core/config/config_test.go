package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: \"123:abc\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if got := cfg.MessageTTL(); got != 12*time.Minute {
		t.Fatalf("message ttl = %v, want 12m", got)
	}
	if got := cfg.SweepInterval(); got != 10*time.Second {
		t.Fatalf("sweep interval = %v, want 10s", got)
	}
	if got := cfg.PollDeadline(); got != 60*time.Second {
		t.Fatalf("poll deadline = %v, want 60s", got)
	}
}

func TestNormalizeRejectsMissingToken(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeMenuOverrides(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Menu.MessageTTLSeconds = 5
	cfg.Menu.SweepIntervalSeconds = 1
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := cfg.MessageTTL(); got != 5*time.Second {
		t.Fatalf("message ttl = %v, want 5s", got)
	}
	if got := cfg.SweepInterval(); got != time.Second {
		t.Fatalf("sweep interval = %v, want 1s", got)
	}
}

func TestLoadButtonsPerRow(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: \"123:abc\"\nmenu:\n  buttons_per_row: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Menu.ButtonsPerRow != 3 {
		t.Fatalf("buttons per row = %d, want 3", cfg.Menu.ButtonsPerRow)
	}
}

func TestNormalizeRejectsNegativeButtonsPerRow(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Menu.ButtonsPerRow = -1
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for negative buttons_per_row")
	}
}

func TestNormalizeRejectsBadExcludeUpdates(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unsupported exclude value")
	}
}
