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
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Bot.Host != "localhost" || cfg.Bot.Port != 25565 {
		t.Errorf("Bot default server = %s:%d, want localhost:25565", cfg.Bot.Host, cfg.Bot.Port)
	}
	if cfg.Bot.Username != "WebBot" || cfg.Bot.Auth != "offline" {
		t.Errorf("Bot identity = %s/%s, want WebBot/offline", cfg.Bot.Username, cfg.Bot.Auth)
	}
	if cfg.Session.RosterInterval != 30*time.Second {
		t.Errorf("RosterInterval = %v, want 30s", cfg.Session.RosterInterval)
	}
	if cfg.Session.VitalsInterval != 2*time.Second {
		t.Errorf("VitalsInterval = %v, want 2s", cfg.Session.VitalsInterval)
	}
	if cfg.Session.WarmupDelay != 2*time.Second {
		t.Errorf("WarmupDelay = %v, want 2s", cfg.Session.WarmupDelay)
	}
	if cfg.Session.ChatHistory != 100 {
		t.Errorf("ChatHistory = %d, want 100", cfg.Session.ChatHistory)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  auth_token: "s3cret"
  allowed_origins:
    - "https://relay.example.com"
bot:
  host: "play.example.net"
  username: "AltBot"
  auth: "microsoft"
session:
  roster_interval: 10s
  chat_history: 250
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.AuthToken != "s3cret" {
		t.Errorf("AuthToken = %q, want s3cret", cfg.Server.AuthToken)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://relay.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Bot.Host != "play.example.net" || cfg.Bot.Username != "AltBot" || cfg.Bot.Auth != "microsoft" {
		t.Errorf("Bot = %+v", cfg.Bot)
	}
	// Unset fields keep their defaults.
	if cfg.Bot.Port != 25565 {
		t.Errorf("Bot.Port = %d, want default 25565", cfg.Bot.Port)
	}
	if cfg.Session.RosterInterval != 10*time.Second {
		t.Errorf("RosterInterval = %v, want 10s", cfg.Session.RosterInterval)
	}
	if cfg.Session.ChatHistory != 250 {
		t.Errorf("ChatHistory = %d, want 250", cfg.Session.ChatHistory)
	}
	if cfg.Session.VitalsInterval != 2*time.Second {
		t.Errorf("VitalsInterval = %v, want default 2s", cfg.Session.VitalsInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() succeeded on missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Error("Load() succeeded on malformed YAML")
	}
}
