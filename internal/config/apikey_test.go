package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apierrors "github.com/diogo/nimbus/internal/errors"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range APIKeyEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadAPIKey_FromEnv(t *testing.T) {
	t.Setenv("NIMBUS_HOME", t.TempDir())
	clearKeyEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() returned error: %v", err)
	}
	if key != "google-key" {
		t.Errorf("LoadAPIKey() = %q, want google-key", key)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	key, _ = LoadAPIKey()
	if key != "gemini-key" {
		t.Errorf("GEMINI_API_KEY should take precedence, got %q", key)
	}
}

func TestLoadAPIKey_Missing(t *testing.T) {
	t.Setenv("NIMBUS_HOME", t.TempDir())
	clearKeyEnv(t)
	t.Chdir(t.TempDir())

	_, err := LoadAPIKey()
	if !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if !apierrors.IsAuthError(err) {
		t.Error("missing key should be classified as an auth error")
	}
}

func TestSaveAPIKey_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("NIMBUS_HOME", tmp)
	clearKeyEnv(t)
	t.Chdir(t.TempDir())

	if err := SaveAPIKey("  secret-key  "); err != nil {
		t.Fatalf("SaveAPIKey() returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmp, ".env"))
	if err != nil {
		t.Fatalf(".env not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf(".env mode = %o, want 600", info.Mode().Perm())
	}

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() returned error: %v", err)
	}
	if key != "secret-key" {
		t.Errorf("LoadAPIKey() = %q, want secret-key", key)
	}
}

func TestSaveAPIKey_TightensExistingFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("NIMBUS_HOME", tmp)
	clearKeyEnv(t)

	path := filepath.Join(tmp, ".env")
	if err := os.WriteFile(path, []byte("OTHER=kept\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := SaveAPIKey("new-key"); err != nil {
		t.Fatalf("SaveAPIKey() returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf(".env mode = %o, want 600", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `OTHER="kept"`) && !strings.Contains(string(data), "OTHER=kept") {
		t.Errorf("existing entries lost: %s", data)
	}
	if !strings.Contains(string(data), "new-key") {
		t.Errorf("key missing: %s", data)
	}
}

func TestSaveAPIKey_Empty(t *testing.T) {
	t.Setenv("NIMBUS_HOME", t.TempDir())
	if err := SaveAPIKey("   "); !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"abcdefgh", "****efgh"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.expected {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}
