package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u@localhost/deals")
	t.Setenv("PGHOST", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.PageSize != 30 || cfg.ButtonSettle != 120*time.Millisecond {
		t.Errorf("defaults: %+v", cfg)
	}
	if cfg.DBQueryTimeout != 5*time.Second || cfg.IngestBatch != 200 || cfg.RefillWorkers != 2 {
		t.Errorf("defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors: %v", cfg.CORSOrigins)
	}
}

func TestLoadWithoutBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PGHOST", "")
	t.Setenv("UPSTREAM_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected a warning error without any backend")
	}
}

func TestDatabaseURLFromPGVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PGHOST", "db")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "deals")
	t.Setenv("PGPASSWORD", "s3cret")
	t.Setenv("PGDATABASE", "offers")
	if got, want := databaseURL(), "postgres://deals:s3cret@db:6543/offers"; got != want {
		t.Errorf("databaseURL() = %q; want %q", got, want)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DUR", "250ms")
	t.Setenv("X_SECS", "45")
	t.Setenv("X_BAD", "soon")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_LIST", " a, ,b ")
	if d := getenvDuration("X_DUR", 0); d != 250*time.Millisecond {
		t.Errorf("X_DUR = %v", d)
	}
	if d := getenvDuration("X_SECS", 0); d != 45*time.Second {
		t.Errorf("X_SECS = %v", d)
	}
	if d := getenvDuration("X_BAD", time.Minute); d != time.Minute {
		t.Errorf("X_BAD = %v", d)
	}
	if n := getenvInt("X_INT", 7); n != 7 {
		t.Errorf("X_INT = %d", n)
	}
	if l := getenvList("X_LIST", nil); len(l) != 2 || l[0] != "a" || l[1] != "b" {
		t.Errorf("X_LIST = %v", l)
	}
}
