package infra

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	SessionSecret string

	AllowedOrigins []string

	GoogleClientID string
	GoogleIssuer   string

	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiVisionModel string
	ImagenModel       string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryBaseURL   string

	ScratchDir string

	// DeleteRemoteArtifacts controls whether deleting a thumbnail also removes
	// its uploaded image from the object store. Off by default: existing
	// deployments rely on the uploaded copies as an audit trail.
	DeleteRemoteArtifacts bool

	ProviderTimeout    time.Duration
	ProviderMaxRetries int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. All external credentials are validated here, once,
// so no call site has to re-sanitize them later.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SessionSecret:         os.Getenv("SESSION_SECRET"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://localhost:5174")),
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:          getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiVisionModel:     getEnv("GEMINI_VISION_MODEL", "gemini-1.5-flash"),
		ImagenModel:           getEnv("IMAGEN_MODEL", "imagen-4.0-generate-001"),
		CloudinaryBaseURL:     getEnv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1"),
		ScratchDir:            getEnv("SCRATCH_DIR", "images"),
		DeleteRemoteArtifacts: getEnvBool("DELETE_REMOTE_ARTIFACTS", false),
		ProviderTimeout:       time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),
		ProviderMaxRetries:    getEnvInt("PROVIDER_MAX_RETRIES", 0),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	if err := loadCloudinary(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with relaxed cookie and
// error-reporting settings.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

var cloudinaryURLPattern = regexp.MustCompile(`^cloudinary://([^:]+):([^@]+)@(.+)$`)

// loadCloudinary accepts either the composite CLOUDINARY_URL or the three
// discrete variables. Some deployments ship the composite value with a
// duplicated "CLOUDINARY_URL=" prefix pasted into it; that operator error is
// recovered here, once, instead of at every call site.
func loadCloudinary(cfg *Config) error {
	raw := strings.TrimSpace(os.Getenv("CLOUDINARY_URL"))
	if raw != "" {
		raw = strings.TrimPrefix(raw, "CLOUDINARY_URL=")
		m := cloudinaryURLPattern.FindStringSubmatch(raw)
		if m == nil {
			return fmt.Errorf("CLOUDINARY_URL is malformed: expected cloudinary://<api_key>:<api_secret>@<cloud_name>")
		}
		cfg.CloudinaryAPIKey = m[1]
		cfg.CloudinaryAPISecret = m[2]
		cfg.CloudinaryCloudName = m[3]
		return nil
	}

	cfg.CloudinaryCloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
	cfg.CloudinaryAPIKey = os.Getenv("CLOUDINARY_API_KEY")
	cfg.CloudinaryAPISecret = os.Getenv("CLOUDINARY_API_SECRET")

	set := 0
	for _, v := range []string{cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("cloudinary configuration is incomplete: set CLOUDINARY_URL or all of CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
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
