package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	ScanServiceURL string `yaml:"scanServiceURL"`
	ScanTimeout    string `yaml:"scanTimeout"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	DatabaseURL   string `yaml:"databaseURL"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	SignInJWKSURL  string `yaml:"signInJwksURL"`
	SignInIssuer   string `yaml:"signInIssuer"`
	SignInAudience string `yaml:"signInAudience"`

	// Free-tier policy. Zero values fall back to reference defaults
	// (5 monthly scans, 1 room, 3 matches, soft prompt after 1,
	// hard gate after 2).
	FreeMonthlyScanLimit int `yaml:"freeMonthlyScanLimit"`
	FreeRoomLimit        int `yaml:"freeRoomLimit"`
	FreeMatchLimit       int `yaml:"freeMatchLimit"`
	SoftPromptAfterScans int `yaml:"softPromptAfterScans"`
	HardGateAfterScans   int `yaml:"hardGateAfterScans"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("ROOMSCAN_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_SCAN_SERVICE_URL"); v != "" {
		cfg.ScanServiceURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_SCAN_TIMEOUT"); v != "" {
		cfg.ScanTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ROOMSCAN_MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("ROOMSCAN_MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("ROOMSCAN_MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("ROOMSCAN_SIGNIN_JWKS_URL"); v != "" {
		cfg.SignInJWKSURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_SIGNIN_ISSUER"); v != "" {
		cfg.SignInIssuer = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_SIGNIN_AUDIENCE"); v != "" {
		cfg.SignInAudience = strings.TrimSpace(v)
	}
	if v := os.Getenv("ROOMSCAN_FREE_MONTHLY_SCAN_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FreeMonthlyScanLimit = n
		}
	}
	if v := os.Getenv("ROOMSCAN_FREE_ROOM_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FreeRoomLimit = n
		}
	}
	if v := os.Getenv("ROOMSCAN_FREE_MATCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FreeMatchLimit = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.ScanServiceURL == "" {
		return errors.New("config: scanServiceURL is required (set in config.yaml or ROOMSCAN_SCAN_SERVICE_URL)")
	}
	if cfg.FreeMonthlyScanLimit < 0 || cfg.FreeRoomLimit < 0 || cfg.FreeMatchLimit < 0 {
		return errors.New("config: free-tier limits must be >= 0")
	}
	if cfg.SoftPromptAfterScans < 0 || cfg.HardGateAfterScans < 0 {
		return errors.New("config: gating thresholds must be >= 0")
	}
	if cfg.SignInJWKSURL != "" && (cfg.SignInIssuer == "" || cfg.SignInAudience == "") {
		return errors.New("config: signInIssuer and signInAudience are required when signInJwksURL is set")
	}
	return nil
}

// ParseScanTimeout parses the optional scan service timeout string.
func ParseScanTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid scanTimeout duration: %w", err)
	}
	return dur, nil
}
