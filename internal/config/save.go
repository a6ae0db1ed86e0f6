package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if _, _, err := net.SplitHostPort(cfg.App.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("app.addr %q is not host:port", cfg.App.Addr))
	}
	switch strings.ToLower(cfg.App.LogFormat) {
	case "", "console", "json":
	default:
		errs = append(errs, "app.log_format must be console or json")
	}
	for i, o := range cfg.App.CorsOrigins {
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			errs = append(errs, fmt.Sprintf("app.cors_origins[%d] %q must be scheme://host[:port]", i, o))
		}
	}
	if cfg.Stream.KeepAliveSeconds < 0 {
		errs = append(errs, "stream.keep_alive_seconds must be >= 0")
	}
	if cfg.Stream.QueueSize < 1 {
		errs = append(errs, "stream.queue_size must be >= 1")
	}
	if cfg.Ingest.MaxBodyBytes <= 0 {
		errs = append(errs, "ingest.max_body_bytes must be > 0")
	}
	if cfg.Ingest.RatePerSec < 0 {
		errs = append(errs, "ingest.rate_per_sec must be >= 0")
	}
	if cfg.Ingest.RatePerSec > 0 && cfg.Ingest.Burst < 1 {
		errs = append(errs, "ingest.burst must be >= 1 when rate_per_sec is set")
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, "auth.token_ttl_minutes must be > 0")
	}
	if cfg.Deadline.CheckSeconds <= 0 {
		errs = append(errs, "deadline.check_seconds must be > 0")
	}

	seen := map[string]bool{}
	for i, a := range cfg.Auth.Admins {
		name := strings.TrimSpace(a.Username)
		if name == "" {
			errs = append(errs, fmt.Sprintf("auth.admins[%d].username is required", i))
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("auth.admins[%d].username %q is duplicated", i, name))
		}
		seen[name] = true
		if !strings.HasPrefix(a.PasswordHash, "$2") {
			errs = append(errs, fmt.Sprintf("auth.admins[%d].password_hash must be a bcrypt hash", i))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
