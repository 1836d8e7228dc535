package main

import (
	"testing"

	"warungpos/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakSecretOutsideDev(t *testing.T) {
	err := validateSecurityConfig(config.Config{Env: "production", AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{Env: "production", AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestValidateSecurityConfigRelaxedInDevelopment(t *testing.T) {
	err := validateSecurityConfig(config.Config{Env: "development"})
	if err != nil {
		t.Fatalf("expected development config to pass without secret, got %v", err)
	}
}
