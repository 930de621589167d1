package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	t.Setenv("WHATSAPP_API_URL", "")

	cfg := Load()
	if cfg.DatabaseDriver != "postgres" || cfg.ServerPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LowStockThreshold != 2 || cfg.SessionTTL != 43200 {
		t.Fatalf("unexpected numeric defaults: %+v", cfg)
	}
	if cfg.AlertsEnabled() {
		t.Fatalf("alerts enabled without a gateway")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "pos.db")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")
	t.Setenv("SESSION_TTL", "not-a-number")
	t.Setenv("WHATSAPP_API_URL", "http://gateway.local")
	t.Setenv("STOCK_ALERT_PHONE", "841234567")

	cfg := Load()
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "pos.db" {
		t.Fatalf("database settings not read: %+v", cfg)
	}
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("threshold %d want 5", cfg.LowStockThreshold)
	}
	if cfg.SessionTTL != 43200 {
		t.Fatalf("bad integer should fall back to default, got %d", cfg.SessionTTL)
	}
	if !cfg.AlertsEnabled() {
		t.Fatalf("alerts should be enabled")
	}
}
