package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ClockSystem = "system"
	ClockRedis  = "redis"
)

// Config holds image server configuration
type Config struct {
	Server ServerConfig  `json:"server" yaml:"server"`
	App    AppConfig     `json:"app" yaml:"app"`
	Naming NamingConfig  `json:"naming" yaml:"naming"`
	Redis  RedisConfig   `json:"redis" yaml:"redis"`
	Logger logger.Config `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr" env:"SERVER_ADDR"`
	Port         int    `json:"port" yaml:"port" env:"PORT"` // overrides Addr when set
	BodyLimit    int    `json:"body_limit" yaml:"body_limit" env:"SERVER_BODY_LIMIT"`
	CORSOrigins  string `json:"cors_origins" yaml:"cors_origins" env:"CORS_ORIGINS"`
	StaticPrefix string `json:"static_prefix" yaml:"static_prefix" env:"STATIC_PREFIX"`
}

type AppConfig struct {
	PublicDir     string   `json:"public_dir" yaml:"public_dir" env:"IMAGES_PUBLIC_DIR"`
	Categories    []string `json:"categories" yaml:"categories" env:"IMAGES_CATEGORIES"`
	MaxFileSize   int64    `json:"max_file_size" yaml:"max_file_size" env:"IMAGES_MAX_FILE_SIZE"`
	MaxBatchFiles int      `json:"max_batch_files" yaml:"max_batch_files" env:"IMAGES_MAX_BATCH_FILES"`
	BatchWorkers  int      `json:"batch_workers" yaml:"batch_workers" env:"IMAGES_BATCH_WORKERS"`
}

type NamingConfig struct {
	Clock string `json:"clock" yaml:"clock" env:"NAMING_CLOCK"` // "system" or "redis"
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" yaml:"db" env:"REDIS_DB"`
}

// ListenAddr returns the address the HTTP server binds to.
func (s ServerConfig) ListenAddr() string {
	if s.Port > 0 {
		return fmt.Sprintf(":%d", s.Port)
	}
	return s.Addr
}

// ImagesDir is the root directory holding one subdirectory per category.
func (a AppConfig) ImagesDir() string {
	return filepath.Join(a.PublicDir, "images")
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8001",
			BodyLimit:    64 * 1024 * 1024, // 10 files of 5MB plus multipart overhead
			CORSOrigins:  "*",
			StaticPrefix: "/public",
		},
		App: AppConfig{
			PublicDir:     "public",
			Categories:    []string{"member/profile", "review", "board"},
			MaxFileSize:   5 * 1024 * 1024, // 5MB
			MaxBatchFiles: 10,
			BatchWorkers:  4,
		},
		Naming: NamingConfig{
			Clock: ClockSystem,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Validate checks values that would make the server unusable.
func (c *Config) Validate() error {
	if c.App.PublicDir == "" {
		return fmt.Errorf("app.public_dir is required")
	}
	if len(c.App.Categories) == 0 {
		return fmt.Errorf("app.categories must not be empty")
	}
	if c.App.MaxBatchFiles <= 0 {
		return fmt.Errorf("app.max_batch_files must be positive, got %d", c.App.MaxBatchFiles)
	}
	switch c.Naming.Clock {
	case ClockSystem, ClockRedis:
	default:
		return fmt.Errorf("naming.clock must be %q or %q, got %q", ClockSystem, ClockRedis, c.Naming.Clock)
	}
	return nil
}

// Load loads configuration from file, then applies .env and environment overrides
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "images", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		parsedCfg = cfg
	}

	if err := applyEnv(parsedCfg); err != nil {
		return nil, err
	}
	if err := parsedCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// applyEnv overrides file values with environment variables. A missing .env is fine.
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()

	sections := []any{&cfg.Server, &cfg.App, &cfg.Naming, &cfg.Redis}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("failed to parse environment: %w", err)
		}
	}
	return nil
}
