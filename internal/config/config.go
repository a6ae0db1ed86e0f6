package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Admin struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type Config struct {
	App struct {
		Addr      string `yaml:"addr"`
		DataDir   string `yaml:"data_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`

		// Browser origins allowed to call the API cross-origin.
		CorsOrigins []string `yaml:"cors_origins"`
	} `yaml:"app"`

	Stream struct {
		KeepAliveSeconds int `yaml:"keep_alive_seconds"`
		QueueSize        int `yaml:"queue_size"`
	} `yaml:"stream"`

	Ingest struct {
		RequireAuth  bool    `yaml:"require_auth"`
		MaxBodyBytes int64   `yaml:"max_body_bytes"`
		RatePerSec   float64 `yaml:"rate_per_sec"`
		Burst        int     `yaml:"burst"`
	} `yaml:"ingest"`

	Auth struct {
		JWTSecret       string  `yaml:"jwt_secret"`
		KeyringAccount  string  `yaml:"keyring_account"`
		TokenTTLMinutes int     `yaml:"token_ttl_minutes"`
		Admins          []Admin `yaml:"admins"`
	} `yaml:"auth"`

	Deadline struct {
		CheckSeconds int `yaml:"check_seconds"`
	} `yaml:"deadline"`

	// Populated from the environment only, never written to disk.
	ShutdownToken string `yaml:"-"`
}

func Defaults() Config {
	var cfg Config
	cfg.App.Addr = "127.0.0.1:38471"
	cfg.App.DataDir = "."
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"
	cfg.Stream.KeepAliveSeconds = 15
	cfg.Stream.QueueSize = 64
	cfg.Ingest.RequireAuth = true
	cfg.Ingest.MaxBodyBytes = 64 << 10
	cfg.Ingest.RatePerSec = 5
	cfg.Ingest.Burst = 10
	cfg.Auth.KeyringAccount = "hackhub:jwt"
	cfg.Auth.TokenTTLMinutes = 12 * 60
	cfg.Deadline.CheckSeconds = 30
	return cfg
}

// Load reads path on top of Defaults, so keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) KeepAlive() time.Duration {
	return time.Duration(c.Stream.KeepAliveSeconds) * time.Second
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func (c Config) DeadlineInterval() time.Duration {
	return time.Duration(c.Deadline.CheckSeconds) * time.Second
}
