package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bot     BotConfig     `yaml:"bot"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BotConfig is the default game server used when a connect request leaves
// fields blank. The password is only ever read from here; it is passed
// through to the adapter unmodified and never stored anywhere else.
type BotConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"`
}

type SessionConfig struct {
	RosterInterval time.Duration `yaml:"roster_interval"`
	VitalsInterval time.Duration `yaml:"vitals_interval"`
	WarmupDelay    time.Duration `yaml:"warmup_delay"`
	ChatHistory    int           `yaml:"chat_history"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3001,
			Host: "0.0.0.0",
		},
		Bot: BotConfig{
			Host:     "localhost",
			Port:     25565,
			Username: "WebBot",
			Auth:     "offline",
		},
		Session: SessionConfig{
			RosterInterval: 30 * time.Second,
			VitalsInterval: 2 * time.Second,
			WarmupDelay:    2 * time.Second,
			ChatHistory:    100,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
