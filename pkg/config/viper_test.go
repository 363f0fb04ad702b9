package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	v, err := Load(dir, "config")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.ConfigFileUsed() != "" {
		t.Fatalf("unexpected config file %q", v.ConfigFileUsed())
	}
}

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())

	body := []byte("server:\n  port: 4000\n  host: 127.0.0.1\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SERVER_HOST", "0.0.0.0")

	v, err := Load(dir, "config")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := v.GetInt("server.port"); got != 4000 {
		t.Fatalf("server.port = %d, want 4000", got)
	}
	if got := v.GetString("server.host"); got != "0.0.0.0" {
		t.Fatalf("server.host = %q, want env override 0.0.0.0", got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_KEY", "set")
	if got := GetEnv("RELAY_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("GetEnv = %q", got)
	}
	if got := GetEnv("RELAY_TEST_KEY_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv = %q", got)
	}
}
