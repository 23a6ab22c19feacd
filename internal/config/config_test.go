package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Environment:       "development",
		SecretKey:         "dev-secret",
		TokenSecretKey:    "dev-token-secret",
		TokenExpiry:       time.Hour,
		AccessTokenExpiry: 30 * time.Minute,
		CSRFCookieMaxAge:  3600,
		Images:            ImageConfig{Storage: ImageStorageLocal, Dir: "./static/images"},
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	longA := strings.Repeat("a", 32)
	longB := strings.Repeat("b", 32)

	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorContains string
	}{
		{"valid_development", func(c *Config) {}, ""},
		{"missing_secret", func(c *Config) { c.SecretKey = "" }, "SECRET_KEY must be set"},
		{"missing_token_secret", func(c *Config) { c.TokenSecretKey = "" }, "TOKEN_SECRET_KEY must be set"},
		{"zero_expiry", func(c *Config) { c.TokenExpiry = 0 }, "TOKEN_EXPIRY_SECONDS"},
		{"negative_expiry", func(c *Config) { c.TokenExpiry = -time.Second }, "TOKEN_EXPIRY_SECONDS"},
		{"zero_access_expiry", func(c *Config) { c.AccessTokenExpiry = 0 }, "ACCESS_TOKEN_EXPIRE_MINUTES"},
		{"zero_cookie_age", func(c *Config) { c.CSRFCookieMaxAge = 0 }, "CSRF_COOKIE_MAX_AGE"},
		{"unknown_storage", func(c *Config) { c.Images.Storage = "ftp" }, "IMAGE_STORAGE"},
		{"local_without_dir", func(c *Config) { c.Images.Dir = "" }, "IMAGE_DIR"},
		{"s3_without_bucket", func(c *Config) { c.Images.Storage = ImageStorageS3 }, "S3_BUCKET"},
		{"s3_with_bucket", func(c *Config) {
			c.Images.Storage = ImageStorageS3
			c.Images.S3Bucket = "avatars"
		}, ""},
		{"production_short_secret", func(c *Config) {
			c.Environment = "production"
			c.TokenSecretKey = longB
		}, "SECRET_KEY must be at least 32 characters"},
		{"production_short_token_secret", func(c *Config) {
			c.Environment = "production"
			c.SecretKey = longA
		}, "TOKEN_SECRET_KEY must be at least 32 characters"},
		{"production_same_secrets", func(c *Config) {
			c.Environment = "production"
			c.SecretKey = longA
			c.TokenSecretKey = longA
		}, "must differ"},
		{"production_valid", func(c *Config) {
			c.Environment = "production"
			c.SecretKey = longA
			c.TokenSecretKey = longB
			c.PublicBaseURL = "https://blog.example.com"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorContains == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errorContains)
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("TOKEN_SECRET_KEY", "token-from-env")
	t.Setenv("TOKEN_EXPIRY_SECONDS", "600")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("OPENAPI_VALIDATION", "true")
	t.Setenv("MAX_IMAGE_BYTES", "not-a-number")

	cfg := fromEnv()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.TokenExpiry != 10*time.Minute {
		t.Errorf("TokenExpiry = %v, want 10m", cfg.TokenExpiry)
	}
	if cfg.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("AccessTokenExpiry = %v, want 15m", cfg.AccessTokenExpiry)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("Redis.DB = %d, want 2", cfg.Redis.DB)
	}
	if !cfg.OpenAPIValidation {
		t.Error("OpenAPIValidation = false, want true")
	}
	if cfg.Images.MaxBytes != 5<<20 {
		t.Errorf("Images.MaxBytes = %d, want default", cfg.Images.MaxBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
