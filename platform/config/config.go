// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// PublicLinkConfig provides settings for building customer-facing links.
type PublicLinkConfig interface {
	GetAppBaseURL() string
	GetPublicRateLimit() float64
	GetPublicRateBurst() int
}

// InvoiceCodeConfig provides settings for sequential invoice codes.
type InvoiceCodeConfig interface {
	GetInvoiceCodePrefix() string
	GetInvoiceCodeWidth() int
}

// BrandingConfig provides the company identity printed on documents.
type BrandingConfig interface {
	GetCompanyFile() string
	GetCompanyName() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketInvoicePDFs() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for outgoing notification mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromAddress() string
	GetSMTPFromName() string
	GetNotifyEmail() string
	IsSMTPEnabled() bool
}

// SchedulerConfig provides settings for the background job runner.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueue() string
	GetAsynqConcurrency() int
	GetExpirySweepInterval() time.Duration
	IsSchedulerEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AppBaseURL             string
	PublicRateLimit        float64
	PublicRateBurst        int
	InvoiceCodePrefix      string
	InvoiceCodeWidth       int
	CompanyFile            string
	CompanyName            string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinioBucketInvoicePDFs string
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	SMTPFromAddress        string
	SMTPFromName           string
	NotifyEmail            string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueue             string
	AsynqConcurrency       int
	ExpirySweepInterval    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// PublicLinkConfig implementation
func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }
func (c *Config) GetPublicRateLimit() float64 { return c.PublicRateLimit }
func (c *Config) GetPublicRateBurst() int     { return c.PublicRateBurst }

// InvoiceCodeConfig implementation
func (c *Config) GetInvoiceCodePrefix() string { return c.InvoiceCodePrefix }
func (c *Config) GetInvoiceCodeWidth() int     { return c.InvoiceCodeWidth }

// BrandingConfig implementation
func (c *Config) GetCompanyFile() string { return c.CompanyFile }
func (c *Config) GetCompanyName() string { return c.CompanyName }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketInvoicePDFs() string { return c.MinioBucketInvoicePDFs }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetNotifyEmail() string     { return c.NotifyEmail }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != "" && c.NotifyEmail != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                   { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool             { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueue() string                 { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int              { return c.AsynqConcurrency }
func (c *Config) GetExpirySweepInterval() time.Duration { return c.ExpirySweepInterval }
func (c *Config) IsSchedulerEnabled() bool              { return c.RedisURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:             strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
		PublicRateLimit:        mustFloat(getEnv("PUBLIC_RATE_LIMIT", "2")),
		PublicRateBurst:        mustInt(getEnv("PUBLIC_RATE_BURST", "10")),
		InvoiceCodePrefix:      getEnv("INVOICE_CODE_PREFIX", "ORC-"),
		InvoiceCodeWidth:       mustInt(getEnv("INVOICE_CODE_WIDTH", "6")),
		CompanyFile:            getEnv("COMPANY_FILE", ""),
		CompanyName:            getEnv("COMPANY_NAME", ""),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketInvoicePDFs: getEnv("MINIO_BUCKET_INVOICE_PDFS", "invoice-pdfs"),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPFromAddress:        getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:           getEnv("SMTP_FROM_NAME", "Orçamentos"),
		NotifyEmail:            getEnv("NOTIFY_EMAIL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		ExpirySweepInterval:    mustDuration(getEnv("EXPIRY_SWEEP_INTERVAL", "15m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.InvoiceCodeWidth <= 0 {
		return nil, fmt.Errorf("INVOICE_CODE_WIDTH must be a positive integer")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
