package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "HACKHUB_"

// LoadDotEnv loads KEY=VALUE pairs from path into the process
// environment. A missing file is not an error; variables already set win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// OverlayEnv applies HACKHUB_* environment variables on top of cfg.
func OverlayEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(envPrefix + key)); v != "" {
			*dst = v
		}
	}
	set("ADDR", &cfg.App.Addr)
	set("DATA_DIR", &cfg.App.DataDir)
	set("LOG_LEVEL", &cfg.App.LogLevel)
	set("LOG_FORMAT", &cfg.App.LogFormat)
	set("JWT_SECRET", &cfg.Auth.JWTSecret)
	set("SHUTDOWN_TOKEN", &cfg.ShutdownToken)

	if v := strings.TrimSpace(getenv(envPrefix + "CORS_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.App.CorsOrigins = origins
	}
}
