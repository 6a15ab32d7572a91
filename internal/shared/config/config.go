package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"rec-admin-backend/internal/shared/storage/object"
)

const (
	StoreS3    = "s3"
	StoreMinIO = "minio"
	StoreLocal = "local"
)

// BucketConfig describes one logical asset bucket.
type BucketConfig struct {
	Name   string
	CDNURL string
}

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string

	AWSRegion   string
	S3Endpoint  string
	SSEKMSKeyID string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool

	Images    BucketConfig
	Documents BucketConfig

	PresignTTL     time.Duration
	DownloadTTL    time.Duration
	MaxUploadBytes int64

	// Requests per second and burst allowed per client on upload routes.
	// A zero rate disables limiting.
	UploadRateLimit float64
	UploadBurst     int

	// Seeds the in-memory resource repo when no database is configured.
	DevRecResourceIDs []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", StoreLocal)),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", "ca-central-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinIOEndpoint:   getEnv("MINIO_ENDPOINT", "http://localhost:9000"),
		MinIOAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOUseSSL:     getBool("MINIO_USE_SSL", false),
		Images: BucketConfig{
			Name:   getEnv("IMAGES_BUCKET", "rst-images"),
			CDNURL: strings.TrimSuffix(getEnv("IMAGES_CDN_URL", ""), "/"),
		},
		Documents: BucketConfig{
			Name:   getEnv("DOCUMENTS_BUCKET", "rst-documents"),
			CDNURL: strings.TrimSuffix(getEnv("DOCUMENTS_CDN_URL", ""), "/"),
		},
		PresignTTL:     getDuration("PRESIGN_TTL", 15*time.Minute),
		DownloadTTL:    getDuration("DOWNLOAD_TTL", time.Hour),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 25<<20),

		UploadRateLimit: getFloat("UPLOAD_RATE_LIMIT", 2),
		UploadBurst:     int(getInt64("UPLOAD_RATE_BURST", 10)),

		DevRecResourceIDs: splitAndTrim(getEnv("DEV_REC_RESOURCE_IDS", "REC0001")),
	}
}

// EmulatorEndpoint returns the endpoint public URLs are built from when no CDN
// is configured, or "" when objects are not reachable by URL.
func (c Config) EmulatorEndpoint() string {
	switch c.ObjectStoreType {
	case StoreS3:
		return c.S3Endpoint
	case StoreMinIO:
		return c.MinIOEndpoint
	default:
		return ""
	}
}

// Address returns the public addressing config for b.
func (c Config) Address(b BucketConfig) object.AddressConfig {
	return object.AddressConfig{
		BucketName:            b.Name,
		CDNBaseURL:            b.CDNURL,
		LocalEmulatorEndpoint: c.EmulatorEndpoint(),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return v
}

func getInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return StoreS3
	case "minio":
		return StoreMinIO
	default:
		return StoreLocal
	}
}
