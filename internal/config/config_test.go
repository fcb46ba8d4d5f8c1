package config

import (
	"errors"
	"testing"
)

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %s, want :8080", cfg.ServerAddr)
	}
	if cfg.DBPort != "5432" {
		t.Errorf("DBPort = %s, want 5432", cfg.DBPort)
	}
	if cfg.HashWorkers != 4 {
		t.Errorf("HashWorkers = %d, want 4", cfg.HashWorkers)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %s, want test-secret", cfg.JWTSecret)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("POSTGRES_IP", "db.internal")
	t.Setenv("POSTGRES_USER", "kt")
	t.Setenv("POSTGRES_DB", "knowledge")
	t.Setenv("GENERATOR_URL", "http://generator:5000")
	t.Setenv("HASH_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %s, want db.internal", cfg.DBHost)
	}
	if cfg.DBUser != "kt" {
		t.Errorf("DBUser = %s, want kt", cfg.DBUser)
	}
	if cfg.DBName != "knowledge" {
		t.Errorf("DBName = %s, want knowledge", cfg.DBName)
	}
	if cfg.GeneratorURL != "http://generator:5000" {
		t.Errorf("GeneratorURL = %s, want http://generator:5000", cfg.GeneratorURL)
	}
	if cfg.HashWorkers != 8 {
		t.Errorf("HashWorkers = %d, want 8", cfg.HashWorkers)
	}
}

func TestLoad_InvalidHashWorkersFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("HASH_WORKERS", "-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HashWorkers != 4 {
		t.Errorf("HashWorkers = %d, want fallback 4", cfg.HashWorkers)
	}
}
