package config

import (
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "MAX_HEADER_BYTES", "GIN_MODE",
		"LOG_LEVEL", "LOG_PRETTY", "API_BASE_PATH",
		"DB_PATH", "TICKET_VALIDITY", "RENDER_SERVICE_URL", "RENDER_SIZE",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS",
		"ENABLE_HSTS", "HSTS_MAX_AGE",
		"AMQP_ENABLED", "AMQP_URL", "AMQP_QUEUE",
		"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.TicketValidity != 30*24*time.Hour {
		t.Fatalf("ticket validity = %v, want 30 days", cfg.TicketValidity)
	}
	if cfg.RenderServiceURL != "https://api.qrserver.com/v1/create-qr-code/" {
		t.Fatalf("render service url = %q", cfg.RenderServiceURL)
	}
	if cfg.RenderSize != "150x150" {
		t.Fatalf("render size = %q", cfg.RenderSize)
	}
	if cfg.AMQP.Queue != "purchase.completed" || cfg.AMQP.Enabled {
		t.Fatalf("amqp defaults = %+v", cfg.AMQP)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("base path = %q", cfg.APIBasePath)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode = %q", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKET_VALIDITY", "72h")
	t.Setenv("RENDER_SIZE", "300x300")
	t.Setenv("API_BASE_PATH", "tickets/")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TicketValidity != 72*time.Hour {
		t.Fatalf("ticket validity = %v", cfg.TicketValidity)
	}
	if cfg.RenderSize != "300x300" {
		t.Fatalf("render size = %q", cfg.RenderSize)
	}
	if cfg.APIBasePath != "/tickets" {
		t.Fatalf("base path = %q, want normalized", cfg.APIBasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want normalized warn", cfg.LogLevel)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		k, v string
	}{
		{"bad log level", "LOG_LEVEL", "loud"},
		{"zero validity", "TICKET_VALIDITY", "0s"},
		{"negative rate", "RATE_RPS", "-1"},
		{"zero burst", "RATE_BURST", "0"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.k, tc.v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.k, tc.v)
			}
		})
	}
}

func TestLoad_ConditionalValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("expected CACHE_TTL validation error when redis enabled")
	}

	clearEnv(t)
	t.Setenv("AMQP_ENABLED", "true")
	t.Setenv("AMQP_QUEUE", "   ")
	if _, err := Load(); err == nil {
		t.Fatal("expected AMQP_QUEUE validation error when amqp enabled")
	}
}
