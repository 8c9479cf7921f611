package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	OCR          OCRConfig          `yaml:"ocr"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Watch        WatchConfig        `yaml:"watch"`
	LogLevel     string             `yaml:"log_level"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // "postgres" | "sqlite"
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// OCRConfig holds text extraction configuration
type OCRConfig struct {
	Pdftotext     string `yaml:"pdftotext"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	Engine        string `yaml:"engine"` // "tesseract-cli" | "gosseract"
	DPI           int    `yaml:"dpi"`
	PSM           int    `yaml:"psm"`
	MinTextChars  int    `yaml:"min_text_chars"`

	ToolTimeout time.Duration `yaml:"tool_timeout"`
}

// SegmentationConfig holds the classifier and boundary thresholds.
type SegmentationConfig struct {
	ClassificationFloor float64  `yaml:"classification_floor"`
	FallbackConfidence  float64  `yaml:"fallback_confidence"`
	ExtraMatchBoost     float64  `yaml:"extra_match_boost"`
	MaxConfidence       float64  `yaml:"max_confidence"`
	StrongConfidence    float64  `yaml:"strong_confidence"`
	ModerateConfidence  float64  `yaml:"moderate_confidence"`
	SimilarityFloor     float64  `yaml:"similarity_floor"`
	RunSoftCap          int      `yaml:"run_soft_cap"`
	HeaderPatterns      []string `yaml:"header_patterns"`
	IdentifierPatterns  []string `yaml:"identifier_patterns"`
}

// PipelineConfig holds run-level knobs.
type PipelineConfig struct {
	Workers          int `yaml:"workers"`
	MaxPages         int `yaml:"max_pages"` // 0 = no limit
	TextPreviewLimit int `yaml:"text_preview_limit"`
}

// CatalogConfig points at an optional signature catalog file (YAML or JSON).
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig holds daemon inbox settings.
type WatchConfig struct {
	Inbox       string        `yaml:"inbox"`
	Outbox      string        `yaml:"outbox"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
	Workers     int           `yaml:"workers"`
	JobTimeout  time.Duration `yaml:"job_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:lcsplit.db?_pragma=foreign_keys(1)",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		OCR: OCRConfig{
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			Engine:        "tesseract-cli",
			DPI:           300,
			PSM:           6,
			MinTextChars:  50,
			ToolTimeout:   2 * time.Minute,
		},
		Segmentation: SegmentationConfig{
			ClassificationFloor: 0.15,
			FallbackConfidence:  0.3,
			ExtraMatchBoost:     0.05,
			MaxConfidence:       0.98,
			StrongConfidence:    0.6,
			ModerateConfidence:  0.4,
			SimilarityFloor:     0.15,
			RunSoftCap:          8,
		},
		Pipeline: PipelineConfig{
			Workers:          4,
			TextPreviewLimit: 1000,
		},
		Watch: WatchConfig{
			Debounce:    2 * time.Second,
			InitialScan: true,
			Workers:     2,
			JobTimeout:  5 * time.Minute,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads defaults, overlays the YAML file at path (if any), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("LCSPLIT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", fmt.Errorf("%w: %v", ErrConfiguration, err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", fmt.Errorf("%w: %v", ErrConfiguration, err))
		}
	}
	mergeWithEnv(cfg)
	return cfg, nil
}

func mergeWithEnv(c *Config) {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MinTextChars = getEnvAsInt("OCR_MIN_TEXT_CHARS", c.OCR.MinTextChars)
	c.OCR.ToolTimeout = getEnvAsDuration("OCR_TOOL_TIMEOUT", c.OCR.ToolTimeout)

	c.Segmentation.StrongConfidence = getEnvAsFloat64("SEG_STRONG_CONFIDENCE", c.Segmentation.StrongConfidence)
	c.Segmentation.ModerateConfidence = getEnvAsFloat64("SEG_MODERATE_CONFIDENCE", c.Segmentation.ModerateConfidence)
	c.Segmentation.SimilarityFloor = getEnvAsFloat64("SEG_SIMILARITY_FLOOR", c.Segmentation.SimilarityFloor)
	c.Segmentation.RunSoftCap = getEnvAsInt("SEG_RUN_SOFT_CAP", c.Segmentation.RunSoftCap)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.MaxPages = getEnvAsInt("PIPELINE_MAX_PAGES", c.Pipeline.MaxPages)

	c.Catalog.Path = getEnv("CATALOG_PATH", c.Catalog.Path)

	c.Watch.Inbox = getEnv("WATCH_INBOX", c.Watch.Inbox)
	c.Watch.Outbox = getEnv("WATCH_OUTBOX", c.Watch.Outbox)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. Errors wrap ErrConfiguration.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("database.driver", c.Database.Driver, OneOf("postgres", "sqlite"))
	v.Field("database.dsn", c.Database.DSN, Required)
	v.Field("ocr.engine", c.OCR.Engine, OneOf("tesseract-cli", "gosseract"))
	v.Field("ocr.dpi", c.OCR.DPI, Positive)
	v.Field("ocr.min_text_chars", c.OCR.MinTextChars, NonNegative)

	s := c.Segmentation
	v.Field("segmentation.classification_floor", s.ClassificationFloor, Between(0, 1))
	v.Field("segmentation.fallback_confidence", s.FallbackConfidence, Between(0, 1))
	v.Field("segmentation.extra_match_boost", s.ExtraMatchBoost, Between(0, 1))
	v.Field("segmentation.max_confidence", s.MaxConfidence, Between(0, 1))
	v.Field("segmentation.strong_confidence", s.StrongConfidence, Between(0, 1))
	v.Field("segmentation.moderate_confidence", s.ModerateConfidence, Between(0, 1))
	v.Field("segmentation.similarity_floor", s.SimilarityFloor, Between(0, 1))
	v.Field("segmentation.run_soft_cap", s.RunSoftCap, Positive)
	if s.ModerateConfidence > s.StrongConfidence {
		v.errors = append(v.errors, ValidationError{
			Field:   "segmentation.moderate_confidence",
			Value:   s.ModerateConfidence,
			Message: "must not exceed strong_confidence",
		})
	}

	v.Field("pipeline.workers", c.Pipeline.Workers, Positive)
	v.Field("pipeline.max_pages", c.Pipeline.MaxPages, NonNegative)
	v.Field("pipeline.text_preview_limit", c.Pipeline.TextPreviewLimit, NonNegative)
	return v.Error(ErrConfiguration)
}

// SlogLevel maps LogLevel ("debug" | "info" | "warn" | "error") onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
