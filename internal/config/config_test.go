package config

import (
	"os"
	"testing"
)

func unsetDBEnv() {
	_ = os.Unsetenv("BRAINPAL_DB_DRIVER")
	_ = os.Unsetenv("BRAINPAL_POSTGRES_DSN")
}

func TestConfigLoad_Defaults(t *testing.T) {
	unsetDBEnv()
	_ = os.Unsetenv("BRAINPAL_HTTP_PORT")
	_ = os.Unsetenv("BRAINPAL_OPENROUTER_BASE_URL")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.HTTPPort)
	}
	if cfg.OpenRouterBaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected default base url: %s", cfg.OpenRouterBaseURL)
	}
	if cfg.CompletionTimeoutSec != 60 {
		t.Fatalf("unexpected default completion timeout: %d", cfg.CompletionTimeoutSec)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("BRAINPAL_HTTP_PORT", "9191")
	defer func() { _ = os.Unsetenv("BRAINPAL_HTTP_PORT") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("port env override failed, got %d", cfg.HTTPPort)
	}
}

func TestResolveDefaults_AutoSqlite(t *testing.T) {
	unsetDBEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected driver without dsn: %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_AutoPostgres(t *testing.T) {
	unsetDBEnv()
	_ = os.Setenv("BRAINPAL_POSTGRES_DSN", "postgres://u:p@localhost:5432/brainpal")
	defer unsetDBEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected driver with dsn: %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_PostgresRequiresDSN(t *testing.T) {
	unsetDBEnv()
	_ = os.Setenv("BRAINPAL_DB_DRIVER", "postgres")
	defer unsetDBEnv()

	if _, err := New(); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}

func TestResolveDefaults_UnsupportedDriver(t *testing.T) {
	unsetDBEnv()
	_ = os.Setenv("BRAINPAL_DB_DRIVER", "mongodb")
	defer unsetDBEnv()

	if _, err := New(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAdminEmailSet(t *testing.T) {
	c := &Config{AdminEmails: "Admin@Example.com, second@example.com ,"}
	set := c.AdminEmailSet()
	if !set["admin@example.com"] || !set["second@example.com"] {
		t.Fatalf("unexpected admin set: %+v", set)
	}
	if len(set) != 2 {
		t.Fatalf("unexpected admin set size: %d", len(set))
	}
}

func TestDevTokenMap(t *testing.T) {
	c := &Config{DevAuthTokens: "tok1:user1, tok2:user2,bad,:also-bad,trailing:"}
	m := c.DevTokenMap()
	if m["tok1"] != "user1" || m["tok2"] != "user2" {
		t.Fatalf("unexpected token map: %+v", m)
	}
	if len(m) != 2 {
		t.Fatalf("unexpected token map size: %d", len(m))
	}
}
