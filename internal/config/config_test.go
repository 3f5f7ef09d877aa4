package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimalConfig(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nscanServiceURL: http://localhost:8000\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.ScanServiceURL != "http://localhost:8000" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRequiresPortAndScanService(t *testing.T) {
	if _, err := Load(writeConfig(t, "scanServiceURL: http://x\n")); err == nil {
		t.Fatalf("missing port should fail")
	}
	if _, err := Load(writeConfig(t, "port: \"8080\"\n")); err == nil {
		t.Fatalf("missing scanServiceURL should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nscanServiceURL: http://file\nfreeMonthlyScanLimit: 5\n")
	t.Setenv("ROOMSCAN_SCAN_SERVICE_URL", "http://env")
	t.Setenv("ROOMSCAN_FREE_MONTHLY_SCAN_LIMIT", "9")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ScanServiceURL != "http://env" {
		t.Fatalf("env override lost: %q", cfg.ScanServiceURL)
	}
	if cfg.FreeMonthlyScanLimit != 9 {
		t.Fatalf("env limit override lost: %d", cfg.FreeMonthlyScanLimit)
	}
}

func TestSignInConfigRequiresIssuerAndAudience(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nscanServiceURL: http://x\nsignInJwksURL: http://jwks\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("jwks without issuer/audience should fail")
	}
}

func TestNegativeLimitsRejected(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nscanServiceURL: http://x\nfreeRoomLimit: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("negative limit should fail")
	}
}

func TestParseScanTimeout(t *testing.T) {
	if d, err := ParseScanTimeout(""); err != nil || d != 0 {
		t.Fatalf("empty timeout: d=%v err=%v", d, err)
	}
	if d, err := ParseScanTimeout("20s"); err != nil || d != 20*time.Second {
		t.Fatalf("parse 20s: d=%v err=%v", d, err)
	}
	if _, err := ParseScanTimeout("nope"); err == nil {
		t.Fatalf("invalid duration should fail")
	}
}
