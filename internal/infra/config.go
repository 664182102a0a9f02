package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// defaultImageSources are the hosts the archiver may re-fetch from.
var defaultImageSources = []string{"image.pollinations.ai", "replicate.delivery", "pbxt.replicate.delivery"}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	Version          string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	GeoIPDBPath      string
	TrustedProxies   []string

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RedisURL           string

	ImageProvider          string
	ImageProviderFallbacks []string
	PollinationsModel      string
	ReplicateAPIKey        string
	ReplicateModel         string
	ReplicateVersion       string
	BananaAPIKey           string
	BananaModelKey         string
	StabilityAPIKey        string
	StabilityEngine        string
	GeminiAPIKey           string
	GeminiImageModel       string
	GeminiVisionModel      string
	MockDelay              time.Duration

	SolanaRPCURL     string
	TokenMintAddress string

	FreeAccessEnabled bool
	FreeAccessUntil   time.Time

	DatabaseURL          string
	SupabaseURL          string
	SupabaseKey          string
	SupabaseTable        string
	S3Endpoint           string
	S3AccessKey          string
	S3SecretKey          string
	S3Bucket             string
	S3UseSSL             bool
	S3PublicBaseURL      string
	StoragePath          string
	StorageBaseURL       string
	ImageSourceAllowlist []string
	ArchiveWorkers       int
	ArchiveQueueSize     int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		Version:          getEnv("APP_VERSION", "dev"),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES", nil),

		RateLimitPerWindow: getEnvInt("RATE_LIMIT_PER_WINDOW", 10),
		RateLimitWindow:    time.Second * time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)),
		RedisURL:           os.Getenv("REDIS_URL"),

		ImageProvider:          strings.ToLower(getEnv("IMAGE_PROVIDER", "pollinations")),
		ImageProviderFallbacks: getEnvList("IMAGE_PROVIDER_FALLBACKS", nil),
		PollinationsModel:      getEnv("POLLINATIONS_MODEL", "flux"),
		ReplicateAPIKey:        os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateModel:         getEnv("REPLICATE_MODEL", "black-forest-labs/flux-schnell"),
		ReplicateVersion:       os.Getenv("REPLICATE_VERSION"),
		BananaAPIKey:           os.Getenv("BANANA_API_KEY"),
		BananaModelKey:         os.Getenv("BANANA_MODEL_KEY"),
		StabilityAPIKey:        os.Getenv("STABILITY_API_KEY"),
		StabilityEngine:        getEnv("STABILITY_ENGINE", "stable-diffusion-xl-1024-v1-0"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiImageModel:       getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVisionModel:      getEnv("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
		MockDelay:              getEnvDuration("MOCK_DELAY", 800*time.Millisecond),

		SolanaRPCURL:     getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		TokenMintAddress: os.Getenv("TOKEN_MINT_ADDRESS"),

		FreeAccessEnabled: getEnvBool("FREE_ACCESS_ENABLED", false),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseTable:    getEnv("SUPABASE_TABLE", "banners"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),
		S3Bucket:         getEnv("S3_BUCKET", "banners"),
		S3UseSSL:         getEnvBool("S3_USE_SSL", true),
		S3PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		StoragePath:      os.Getenv("STORAGE_PATH"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		ArchiveWorkers:   getEnvInt("ARCHIVE_WORKERS", 2),
		ArchiveQueueSize: getEnvInt("ARCHIVE_QUEUE_SIZE", 64),
	}

	if raw := strings.TrimSpace(os.Getenv("FREE_ACCESS_UNTIL")); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("FREE_ACCESS_UNTIL must be RFC3339: %w", err)
		}
		cfg.FreeAccessUntil = until
	}

	if cfg.RateLimitPerWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_WINDOW must be positive")
	}

	cfg.ImageSourceAllowlist = buildImageSourceAllowlist(cfg, getEnvList("IMAGE_SOURCE_HOST_ALLOWLIST", nil))
	return cfg, nil
}

// IsProduction reports whether the service runs with production side effects.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// FreeAccessActive reports whether gating is currently suspended.
func (c *Config) FreeAccessActive(now time.Time) bool {
	if !c.FreeAccessEnabled {
		return false
	}
	return c.FreeAccessUntil.IsZero() || now.Before(c.FreeAccessUntil)
}

func buildImageSourceAllowlist(cfg *Config, extra []string) []string {
	seen := map[string]struct{}{}
	add := func(host string) {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			seen[host] = struct{}{}
		}
	}
	for _, raw := range []string{cfg.StorageBaseURL, cfg.S3PublicBaseURL} {
		if u, err := url.Parse(raw); err == nil {
			add(u.Hostname())
		}
	}
	for _, h := range defaultImageSources {
		add(h)
	}
	for _, h := range extra {
		add(h)
	}
	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
