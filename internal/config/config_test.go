package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}

	def := DefaultConfig()
	if cfg.DirectoryRole != def.DirectoryRole {
		t.Errorf("directory_role = %q, want %q", cfg.DirectoryRole, def.DirectoryRole)
	}
	if cfg.SubscriptionRole != def.SubscriptionRole {
		t.Errorf("subscription_role = %q, want %q", cfg.SubscriptionRole, def.SubscriptionRole)
	}
	if cfg.MaxHours != DefaultMaxHours {
		t.Errorf("max_hours = %d, want %d", cfg.MaxHours, DefaultMaxHours)
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`tenant_id: f1bd758a-4021-4f2b-9b5e-c4e800d5bfae
subscription_id: 9f9897be-22e1-46d0-a936-0c1829e45e1f
directory_role: Privileged Role Administrator
subscription_role: Contributor
max_hours: 4
cache_ttl: 30m
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TenantID != "f1bd758a-4021-4f2b-9b5e-c4e800d5bfae" {
		t.Errorf("tenant_id = %q", cfg.TenantID)
	}
	if cfg.SubscriptionID != "9f9897be-22e1-46d0-a936-0c1829e45e1f" {
		t.Errorf("subscription_id = %q", cfg.SubscriptionID)
	}
	if cfg.DirectoryRole != "Privileged Role Administrator" {
		t.Errorf("directory_role = %q", cfg.DirectoryRole)
	}
	if cfg.SubscriptionRole != "Contributor" {
		t.Errorf("subscription_role = %q", cfg.SubscriptionRole)
	}
	if cfg.MaxHours != 4 {
		t.Errorf("max_hours = %d, want 4", cfg.MaxHours)
	}
	if cfg.CacheTTL != "30m" {
		t.Errorf("cache_ttl = %q, want %q", cfg.CacheTTL, "30m")
	}
}

func TestLoadConfig_NormalizesEmptyFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`tenant_id: f1bd758a-4021-4f2b-9b5e-c4e800d5bfae
directory_role: ""
subscription_role: ""
max_hours: 0
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DirectoryRole != DefaultDirectoryRole {
		t.Errorf("directory_role = %q, want default %q", cfg.DirectoryRole, DefaultDirectoryRole)
	}
	if cfg.SubscriptionRole != DefaultSubscriptionRole {
		t.Errorf("subscription_role = %q, want default %q", cfg.SubscriptionRole, DefaultSubscriptionRole)
	}
	if cfg.MaxHours != DefaultMaxHours {
		t.Errorf("max_hours = %d, want default %d", cfg.MaxHours, DefaultMaxHours)
	}
}

func TestSaveConfig_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "config.yaml")

	cfg := DefaultConfig()
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("expected config file to be created")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := &Config{
		TenantID:         "tenant-1",
		SubscriptionID:   "sub-1",
		ClientID:         "client-1",
		DirectoryRole:    "Global Administrator",
		SubscriptionRole: "Owner",
		MaxHours:         6,
		CacheTTL:         "2h",
	}

	if err := Save(original, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if *loaded != *original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *original)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TenantID != PlaceholderTenantID {
		t.Errorf("tenant_id = %q, want placeholder", cfg.TenantID)
	}
	if cfg.SubscriptionID != PlaceholderSubscriptionID {
		t.Errorf("subscription_id = %q, want placeholder", cfg.SubscriptionID)
	}
	if cfg.DirectoryRole != "Global Administrator" {
		t.Errorf("directory_role = %q, want %q", cfg.DirectoryRole, "Global Administrator")
	}
	if cfg.SubscriptionRole != "Owner" {
		t.Errorf("subscription_role = %q, want %q", cfg.SubscriptionRole, "Owner")
	}
	if cfg.MaxHours != 8 {
		t.Errorf("max_hours = %d, want 8", cfg.MaxHours)
	}
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{PlaceholderTenantID, true},
		{PlaceholderSubscriptionID, true},
		{"YOUR_ANYTHING", true},
		{"f1bd758a-4021-4f2b-9b5e-c4e800d5bfae", false},
	}

	for _, tt := range tests {
		if got := IsPlaceholder(tt.value); got != tt.want {
			t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TenantConfigured() {
		t.Error("placeholder tenant should not count as configured")
	}
	if cfg.SubscriptionConfigured() {
		t.Error("placeholder subscription should not count as configured")
	}

	cfg.TenantID = "tenant-1"
	cfg.SubscriptionID = "sub-1"
	if !cfg.TenantConfigured() {
		t.Error("tenant should count as configured")
	}
	if !cfg.SubscriptionConfigured() {
		t.Error("subscription should count as configured")
	}
}

func TestLoadConfig_PermissionError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	// Create a file, then make it unreadable
	if err := os.WriteFile(path, []byte("tenant_id: test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(path, 0644) })

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unreadable file, got nil")
	}
}

func TestParseCacheTTL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty falls back to default", value: "", want: DefaultCacheTTL},
		{name: "valid duration", value: "30m", want: 30 * time.Minute},
		{name: "unparseable falls back to default", value: "soon", want: DefaultCacheTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CacheTTL: tt.value}
			if got := ParseCacheTTL(cfg); got != tt.want {
				t.Errorf("ParseCacheTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigPath_Override(t *testing.T) {
	customPath := "/tmp/custom-azpim/config.yaml"

	t.Setenv("AZPIM_CONFIG", customPath)

	got, err := ConfigPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != customPath {
		t.Errorf("ConfigPath() = %q, want %q", got, customPath)
	}
}

func TestConfigDir_Error(t *testing.T) {
	// Override HOME to empty to force error
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := ConfigDir()
	if err == nil {
		t.Error("expected error when HOME is not set")
	}
}

func TestLoadDefaultWithPath_Success(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	t.Setenv("AZPIM_CONFIG", configPath)

	cfg := DefaultConfig()
	cfg.TenantID = "tenant-1"
	_ = Save(cfg, configPath)

	loaded, path, err := LoadDefaultWithPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %q, want %q", path, configPath)
	}
	if loaded.TenantID != "tenant-1" {
		t.Errorf("tenant_id = %q, want %q", loaded.TenantID, "tenant-1")
	}
}

func TestLoadDefaultWithPath_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nonexistent", "config.yaml")
	t.Setenv("AZPIM_CONFIG", configPath)

	cfg, path, err := LoadDefaultWithPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %q, want %q", path, configPath)
	}
	if cfg.DirectoryRole != DefaultDirectoryRole {
		t.Errorf("expected default config, got directory_role = %q", cfg.DirectoryRole)
	}
}

func TestConfigPath_Default(t *testing.T) {
	t.Setenv("AZPIM_CONFIG", "")

	got, err := ConfigPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" {
		t.Error("expected non-empty config path")
	}
}
