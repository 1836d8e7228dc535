package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "")
	t.Setenv("WHOLESALE_FALLBACK_TO_RETAIL", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ReportCacheTTLSeconds != 30 {
		t.Fatalf("expected default report cache TTL 30, got %d", cfg.ReportCacheTTLSeconds)
	}
	if !cfg.WholesaleFallbackToRetail {
		t.Fatalf("expected wholesale fallback enabled by default")
	}
}

func TestLoadWholesaleFallbackDisabled(t *testing.T) {
	t.Setenv("WHOLESALE_FALLBACK_TO_RETAIL", "false")

	cfg := Load()
	if cfg.WholesaleFallbackToRetail {
		t.Fatalf("expected wholesale fallback disabled")
	}
}
