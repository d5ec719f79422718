package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Ollama vision model
	OllamaHost  string
	VisionModel string

	// Jina embeddings
	JinaAPIKey   string
	JinaEndpoint string

	// Nominatim reverse geocoding
	NominatimURL       string
	NominatimUserAgent string

	// Tagging
	Workers int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the YAML config file. Empty values leave the default.
type fileConfig struct {
	OllamaHost         string `yaml:"ollama_host"`
	VisionModel        string `yaml:"vision_model"`
	JinaAPIKey         string `yaml:"jina_api_key"`
	JinaEndpoint       string `yaml:"jina_endpoint"`
	NominatimURL       string `yaml:"nominatim_url"`
	NominatimUserAgent string `yaml:"nominatim_user_agent"`
	Workers            int    `yaml:"workers"`
	LogFile            string `yaml:"log_file"`
	LogLevel           string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaHost:         "http://localhost:11434",
		VisionModel:        "llava:7b",
		JinaEndpoint:       "https://api.jina.ai/v1/embeddings",
		NominatimURL:       "https://nominatim.openstreetmap.org",
		NominatimUserAgent: "image_search_llm_app/1.0",
		Workers:            1,
		LogFile:            "/tmp/imgsearch.log",
		LogLevel:           slog.LevelInfo,
	}
}

// Load resolves configuration from defaults, the optional config file
// (see FilePath) and environment variables, in increasing priority.
func Load() (Config, error) {
	cfg := Default()

	path := FilePath()
	if err := cfg.applyFile(path); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FilePath returns IMGSEARCH_CONFIG or the per-user config location.
func FilePath() string {
	if p := os.Getenv("IMGSEARCH_CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "imgsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "imgsearch", "config.yaml")
}

// applyFile merges a YAML file. A missing file is not an error.
func (c *Config) applyFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.OllamaHost, f.OllamaHost)
	setString(&c.VisionModel, f.VisionModel)
	setString(&c.JinaAPIKey, f.JinaAPIKey)
	setString(&c.JinaEndpoint, f.JinaEndpoint)
	setString(&c.NominatimURL, f.NominatimURL)
	setString(&c.NominatimUserAgent, f.NominatimUserAgent)
	setString(&c.LogFile, f.LogFile)
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.LogLevel != "" {
		c.LogLevel = parseLogLevel(f.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.VisionModel = getEnv("IMGSEARCH_VISION_MODEL", c.VisionModel)
	c.JinaAPIKey = getEnv("JINA_API_KEY", c.JinaAPIKey)
	c.JinaEndpoint = getEnv("IMGSEARCH_JINA_ENDPOINT", c.JinaEndpoint)
	c.NominatimURL = getEnv("IMGSEARCH_NOMINATIM_URL", c.NominatimURL)
	c.NominatimUserAgent = getEnv("IMGSEARCH_NOMINATIM_USER_AGENT", c.NominatimUserAgent)
	c.LogFile = getEnv("IMGSEARCH_LOG_FILE", c.LogFile)

	if s := os.Getenv("IMGSEARCH_LOG_LEVEL"); s != "" {
		c.LogLevel = parseLogLevel(s)
	}
	if s := os.Getenv("IMGSEARCH_WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid IMGSEARCH_WORKERS %q: want a positive integer", s)
		}
		c.Workers = n
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
