package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const longSecret = "0123456789abcdef0123456789abcdef"

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"SECRET_KEY": longSecret,
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8000" || cfg.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected defaults: port=%s prefix=%s", cfg.Port, cfg.APIPrefix)
	}
	if cfg.Auth.Algorithm != "HS256" {
		t.Fatalf("expected HS256, got %s", cfg.Auth.Algorithm)
	}
	if cfg.TokenTTL() != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", cfg.TokenTTL())
	}
	if !cfg.Auth.CheckActivePerRequest {
		t.Fatalf("expected per-request active check enabled by default")
	}
	if cfg.Auth.LoginAttemptWindow != 15*time.Minute {
		t.Fatalf("expected 15m window, got %v", cfg.Auth.LoginAttemptWindow)
	}
	if cfg.Mongo.Database != "intersect_fhir" || cfg.Mongo.MaxPoolSize != 100 {
		t.Fatalf("unexpected mongo config: %+v", cfg.Mongo)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"SECRET_KEY":                    longSecret,
		"JWT_ALGORITHM":                 "hs512",
		"ACCESS_TOKEN_EXPIRE_MINUTES":   "5",
		"AUTH_CHECK_ACTIVE_PER_REQUEST": "false",
		"ALLOWED_ORIGINS":               "https://a.example, https://b.example ,",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Algorithm != "HS512" {
		t.Fatalf("expected HS512, got %s", cfg.Auth.Algorithm)
	}
	if cfg.TokenTTL() != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", cfg.TokenTTL())
	}
	if cfg.Auth.CheckActivePerRequest {
		t.Fatalf("expected per-request check disabled")
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func TestLoadWith_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":  {},
		"short secret":    {"SECRET_KEY": "short"},
		"bad algorithm":   {"SECRET_KEY": longSecret, "JWT_ALGORITHM": "RS256"},
		"zero ttl":        {"SECRET_KEY": longSecret, "ACCESS_TOKEN_EXPIRE_MINUTES": "0"},
		"pool size order": {"SECRET_KEY": longSecret, "MONGODB_MIN_POOL_SIZE": "50", "MONGODB_MAX_POOL_SIZE": "5"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadWith_ShortSecretAllowedInDevelopment(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"SECRET_KEY": "dev",
		"ENV":        "development",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsDevelopment() || !strings.EqualFold(cfg.Env, "development") {
		t.Fatalf("expected development env")
	}
}
