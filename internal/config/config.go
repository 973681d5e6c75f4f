package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port           string `yaml:"port"`
	MaxConnections int    `yaml:"maxConnections"`

	// Security
	InternalSharedSecret string   `yaml:"internalSharedSecret"`
	CORSAllowedOrigins   []string `yaml:"corsAllowedOrigins"`

	// Limits
	MaxJSONBodyBytes int64 `yaml:"maxJsonBodyBytes"`
	MaxUploadBytes   int64 `yaml:"maxUploadBytes"`
	MaxPDFBytes      int64 `yaml:"maxPdfBytes"`
	MaxImageBytes    int64 `yaml:"maxImageBytes"`
	MaxTextBytes     int64 `yaml:"maxTextBytes"`
	MaxPages         int   `yaml:"maxPages"`

	// Concurrency
	MaxConcurrentRequests int64 `yaml:"maxConcurrentRequests"`
	MaxOCRConcurrent      int64 `yaml:"maxOcrConcurrent"`
	MaxPageWorkers        int   `yaml:"maxPageWorkers"` // per-document page workers cap

	// Server timeouts
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`

	// Request timeouts
	ExtractTimeout time.Duration `yaml:"extractTimeout"`

	// Poppler
	PdftotextBinary  string        `yaml:"pdftotextBinary"`
	PdftoppmBinary   string        `yaml:"pdftoppmBinary"`
	PDFToTextTimeout time.Duration `yaml:"pdfToTextTimeout"`
	RenderTimeout    time.Duration `yaml:"renderTimeout"`
	RenderDPI        int           `yaml:"renderDpi"`

	// OCR
	OCRLanguage       string `yaml:"ocrLanguage"`
	OCRPageSegMode    int    `yaml:"ocrPageSegMode"`
	TessdataPrefix    string `yaml:"tessdataPrefix"`
	PreferTextLayer   bool   `yaml:"preferTextLayer"`
	MinWordsThreshold int    `yaml:"minWordsThreshold"`

	// rate limiting (per IP)
	RateLimitEvery time.Duration `yaml:"rateLimitEvery"`
	RateLimitBurst int           `yaml:"rateLimitBurst"`

	// housekeeping
	CleanupInterval time.Duration `yaml:"cleanupInterval"`

	// health
	HealthDegradeRatio float64 `yaml:"healthDegradeRatio"`

	// http
	MaxHeaderBytes int `yaml:"maxHeaderBytes"`

	// responses
	ValidateRecords bool `yaml:"validateRecords"`

	// logging
	LogLevel string `yaml:"logLevel"`
}

// Defaults returns the built-in configuration used before any file or
// environment overrides are applied.
func Defaults() Config {
	return Config{
		Port:           "8000",
		MaxConnections: 256,

		CORSAllowedOrigins: []string{"*"},

		MaxJSONBodyBytes: 2 << 20,
		MaxUploadBytes:   60 << 20,
		MaxPDFBytes:      50 << 20,
		MaxImageBytes:    20 << 20,
		MaxTextBytes:     1 << 20,
		MaxPages:         20,

		MaxConcurrentRequests: 8,
		MaxOCRConcurrent:      2,
		MaxPageWorkers:        4,

		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   15 * time.Second,

		ExtractTimeout: 150 * time.Second,

		PdftotextBinary:  "pdftotext",
		PdftoppmBinary:   "pdftoppm",
		PDFToTextTimeout: 10 * time.Second,
		RenderTimeout:    30 * time.Second,
		RenderDPI:        200,

		OCRLanguage:       "eng",
		OCRPageSegMode:    3,
		PreferTextLayer:   false,
		MinWordsThreshold: 20,

		RateLimitEvery: 600 * time.Millisecond,
		RateLimitBurst: 20,

		CleanupInterval: 5 * time.Minute,

		HealthDegradeRatio: 0.9,

		MaxHeaderBytes: 1 << 20,

		ValidateRecords: true,

		LogLevel: "info",
	}
}

// Load reads CONFIG_FILE (YAML) when set, then applies environment
// overrides. Environment variables always win over the file.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envStr("PORT", c.Port)
	c.MaxConnections = envInt("MAX_CONNECTIONS", c.MaxConnections)

	c.InternalSharedSecret = envStr("INTERNAL_SHARED_SECRET", c.InternalSharedSecret)
	c.CORSAllowedOrigins = envList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.MaxJSONBodyBytes = int64(envInt("MAX_JSON_BODY_BYTES", int(c.MaxJSONBodyBytes)))
	c.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.MaxPDFBytes = int64(envInt("MAX_PDF_BYTES", int(c.MaxPDFBytes)))
	c.MaxImageBytes = int64(envInt("MAX_IMAGE_BYTES", int(c.MaxImageBytes)))
	c.MaxTextBytes = int64(envInt("MAX_TEXT_BYTES", int(c.MaxTextBytes)))
	c.MaxPages = envInt("MAX_PAGES", c.MaxPages)

	c.MaxConcurrentRequests = int64(envInt("MAX_CONCURRENT_REQUESTS", int(c.MaxConcurrentRequests)))
	c.MaxOCRConcurrent = int64(envInt("MAX_OCR_CONCURRENT", int(c.MaxOCRConcurrent)))
	c.MaxPageWorkers = envInt("MAX_PAGE_WORKERS", c.MaxPageWorkers)

	c.ReadHeaderTimeout = envDur("READ_HEADER_TIMEOUT", c.ReadHeaderTimeout)
	c.ReadTimeout = envDur("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = envDur("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = envDur("IDLE_TIMEOUT", c.IdleTimeout)
	c.ShutdownTimeout = envDur("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.ExtractTimeout = envDur("EXTRACT_TIMEOUT", c.ExtractTimeout)

	c.PdftotextBinary = envStr("PDFTOTEXT_BINARY", c.PdftotextBinary)
	c.PdftoppmBinary = envStr("PDFTOPPM_BINARY", c.PdftoppmBinary)
	c.PDFToTextTimeout = envDur("PDFTOTEXT_TIMEOUT", c.PDFToTextTimeout)
	c.RenderTimeout = envDur("RENDER_TIMEOUT", c.RenderTimeout)
	c.RenderDPI = envInt("RENDER_DPI", c.RenderDPI)

	c.OCRLanguage = envStr("OCR_LANGUAGE", c.OCRLanguage)
	c.OCRPageSegMode = envInt("OCR_PAGE_SEG_MODE", c.OCRPageSegMode)
	c.TessdataPrefix = envStr("TESSDATA_PREFIX", c.TessdataPrefix)
	c.PreferTextLayer = envBool("PREFER_TEXT_LAYER", c.PreferTextLayer)
	c.MinWordsThreshold = envInt("MIN_WORDS_THRESHOLD", c.MinWordsThreshold)

	c.RateLimitEvery = envDur("RATE_LIMIT_EVERY", c.RateLimitEvery)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.CleanupInterval = envDur("CLEANUP_INTERVAL", c.CleanupInterval)

	c.HealthDegradeRatio = envFloat("HEALTH_DEGRADE_RATIO", c.HealthDegradeRatio)

	c.MaxHeaderBytes = envInt("MAX_HEADER_BYTES", c.MaxHeaderBytes)

	c.ValidateRecords = envBool("VALIDATE_RECORDS", c.ValidateRecords)

	c.LogLevel = strings.ToLower(envStr("LOG_LEVEL", c.LogLevel))
}

func (c Config) Validate() error {
	if c.InternalSharedSecret != "" && len(strings.TrimSpace(c.InternalSharedSecret)) < 32 {
		return fmt.Errorf("INTERNAL_SHARED_SECRET must be at least 32 characters when set")
	}
	if c.MaxUploadBytes < c.MaxPDFBytes || c.MaxUploadBytes < c.MaxImageBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least MAX_PDF_BYTES and MAX_IMAGE_BYTES")
	}
	if c.RenderDPI < 72 || c.RenderDPI > 600 {
		return fmt.Errorf("RENDER_DPI must be between 72 and 600, got %d", c.RenderDPI)
	}
	if c.OCRPageSegMode < 0 || c.OCRPageSegMode > 13 {
		return fmt.Errorf("OCR_PAGE_SEG_MODE must be between 0 and 13, got %d", c.OCRPageSegMode)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be one of: debug, info, warn, error)", s)
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
