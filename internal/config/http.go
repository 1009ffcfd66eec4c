package config

import (
	"fmt"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr           string
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
}

func LoadHTTPConfig() (*HTTPConfig, error) {
	cfg := &HTTPConfig{
		Addr:      getEnv("HTTP_ADDR", ":3001"),
		JWTSecret: []byte(getEnv("JWT_SECRET", "")),
		TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("invalid HTTP config: JWT_SECRET must be set")
	}

	return cfg, nil
}
