package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"ENV", "OBJECT_STORE", "PRESIGN_TTL", "IMAGES_CDN_URL", "IMAGES_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("env = %q", cfg.Env)
	}
	if cfg.ObjectStoreType != StoreLocal {
		t.Fatalf("store = %q", cfg.ObjectStoreType)
	}
	if cfg.PresignTTL != 15*time.Minute {
		t.Fatalf("presign ttl = %s", cfg.PresignTTL)
	}
	if cfg.Images.Name != "rst-images" {
		t.Fatalf("images bucket = %q", cfg.Images.Name)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("OBJECT_STORE", " MinIO ")
	t.Setenv("PRESIGN_TTL", "5m")
	t.Setenv("DOWNLOAD_TTL", "bogus")
	t.Setenv("IMAGES_CDN_URL", "https://cdn.example.com/")
	t.Setenv("MINIO_ENDPOINT", "http://localhost:9000")
	t.Setenv("UPLOAD_RATE_LIMIT", "0.5")
	t.Setenv("UPLOAD_RATE_BURST", "-3")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("env = %q", cfg.Env)
	}
	if cfg.ObjectStoreType != StoreMinIO {
		t.Fatalf("store = %q", cfg.ObjectStoreType)
	}
	if cfg.PresignTTL != 5*time.Minute {
		t.Fatalf("presign ttl = %s", cfg.PresignTTL)
	}
	if cfg.DownloadTTL != time.Hour {
		t.Fatalf("invalid download ttl should fall back, got %s", cfg.DownloadTTL)
	}

	if cfg.UploadRateLimit != 0.5 || cfg.UploadBurst != 10 {
		t.Fatalf("rate limit = %v burst = %d", cfg.UploadRateLimit, cfg.UploadBurst)
	}

	addr := cfg.Address(cfg.Images)
	if addr.CDNBaseURL != "https://cdn.example.com" {
		t.Fatalf("cdn = %q", addr.CDNBaseURL)
	}
	if addr.LocalEmulatorEndpoint != "http://localhost:9000" {
		t.Fatalf("emulator = %q", addr.LocalEmulatorEndpoint)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "PORT=9999\nDOCUMENTS_BUCKET=from-file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("DOCUMENTS_BUCKET", "")
	os.Unsetenv("DOCUMENTS_BUCKET")

	cfg := Load()
	if cfg.Port != "7000" {
		t.Fatalf("port = %q, environment should win", cfg.Port)
	}
	if cfg.Documents.Name != "from-file" {
		t.Fatalf("documents bucket = %q", cfg.Documents.Name)
	}
}

func TestEmulatorEndpointForLocalStoreIsEmpty(t *testing.T) {
	cfg := Config{ObjectStoreType: StoreLocal, S3Endpoint: "http://x", MinIOEndpoint: "http://y"}
	if got := cfg.EmulatorEndpoint(); got != "" {
		t.Fatalf("expected empty endpoint, got %q", got)
	}
}
