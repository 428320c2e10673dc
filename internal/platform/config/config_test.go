package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"STOREFRONT_CATALOG_PRODUCT_URL": "https://fakestoreapi.com/products",
		"STOREFRONT_CATALOG_USER_URL":    "https://api.example.com/users",
		"STOREFRONT_AUTH_TOKEN_SECRET":   "dev-secret",
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(baseEnv()), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Persistence.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Persistence.Backend)
	}
	if cfg.Persistence.TTL != 7*24*time.Hour {
		t.Errorf("expected seven day ttl, got %s", cfg.Persistence.TTL)
	}
	if cfg.Persistence.TokenTTL != 24*time.Hour {
		t.Errorf("expected one day token ttl, got %s", cfg.Persistence.TokenTTL)
	}
	if cfg.Catalog.ReviewURL != "https://api.example.com/users" {
		t.Errorf("expected review url to default to user url, got %s", cfg.Catalog.ReviewURL)
	}
	if cfg.Auth.AdminDomain != "@intimetec.com" {
		t.Errorf("unexpected admin domain %s", cfg.Auth.AdminDomain)
	}
	if cfg.Environment != "local" {
		t.Errorf("expected local environment, got %s", cfg.Environment)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := baseEnv()
	env["STOREFRONT_SERVER_PORT"] = "9090"
	env["STOREFRONT_SERVER_IDLE_TIMEOUT"] = "2m"
	env["STOREFRONT_CATALOG_REVIEW_URL"] = "https://api.example.com/reviews"
	env["STOREFRONT_PERSISTENCE_BACKEND"] = "REDIS"
	env["STOREFRONT_REDIS_ADDR"] = "localhost:6379"
	env["STOREFRONT_REDIS_DB"] = "3"
	env["STOREFRONT_AUTH_ADMIN_DOMAIN"] = "@Example.org"

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Catalog.ReviewURL != "https://api.example.com/reviews" {
		t.Errorf("unexpected review url %s", cfg.Catalog.ReviewURL)
	}
	if cfg.Persistence.Backend != BackendRedis || cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis config %+v / %+v", cfg.Persistence, cfg.Redis)
	}
	if cfg.Auth.AdminDomain != "@example.org" {
		t.Errorf("expected lower-cased admin domain, got %s", cfg.Auth.AdminDomain)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_PERSISTENCE_BACKEND": "firestore",
		"STOREFRONT_PERSISTENCE_TTL":     "-1h",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"Catalog.ProductURL", "Firestore.ProjectID", "Persistence.TTL", "Auth.TokenSecret"}
	if !reflect.DeepEqual(validation.Fields(), want) {
		t.Fatalf("unexpected fields %v, want %v", validation.Fields(), want)
	}
}

func TestLoadAcceptsFixtureInsteadOfRemoteCatalog(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_CATALOG_FIXTURE_FILE": "testdata/catalog.yaml",
		"STOREFRONT_AUTH_TOKEN_SECRET":    "dev-secret",
	}
	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.FixtureFile != "testdata/catalog.yaml" {
		t.Fatalf("unexpected fixture %s", cfg.Catalog.FixtureFile)
	}
}

func TestLoadReadsDotEnvWithLowerPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STOREFRONT_SERVER_PORT=7000\nSTOREFRONT_AUTH_TOKEN_SECRET=\"from-file\"\nexport STOREFRONT_CATALOG_FIXTURE_FILE=catalog.yaml\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"STOREFRONT_SERVER_PORT": "7100"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7100" {
		t.Errorf("expected env map to win, got %s", cfg.Server.Port)
	}
	if cfg.Auth.TokenSecret != "from-file" {
		t.Errorf("expected secret from dotenv, got %q", cfg.Auth.TokenSecret)
	}
	if cfg.Catalog.FixtureFile != "catalog.yaml" {
		t.Errorf("expected fixture from dotenv, got %q", cfg.Catalog.FixtureFile)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("A=1\nB=2\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	values, err := EnvironmentValues(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"B": "3"}))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}
	if values["A"] != "1" || values["B"] != "3" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv(), WithEnvMap(baseEnv()))
	if err != nil {
		t.Fatalf("expected missing dotenv to be ignored, got %v", err)
	}
}
