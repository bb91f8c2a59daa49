// Package config loads run configuration from the environment (optionally
// seeded from a .env file) plus an optional YAML extraction profile.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Error marks a fatal configuration problem. The CLI aborts before any job is
// created when it sees one.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "configuration error: " + e.Reason
}

type Config struct {
	InputDir     string
	OutputDir    string
	ConvertedDir string

	APIKey  string
	Model   string
	BaseURL string
	Prompt  string

	MaxConcurrent  int
	MaxAttempts    int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	BackoffBase    time.Duration
	BackoffMin     time.Duration
	BackoffMax     time.Duration

	JPEGQuality   int
	MaxImageWidth int
	ConvertTool   string
}

// Profile is the optional YAML extraction profile. It tunes the model-facing
// side of a run without touching the environment.
type Profile struct {
	Prompt string `yaml:"prompt"`
	Model  string `yaml:"model"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is folded in first when present, matching how operators run the
// original batch script.
func Load() (Config, error) {
	_ = godotenv.Load()

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return Config{}, &Error{Reason: "GEMINI_API_KEY not set: copy .env.example to .env and add your credentials"}
	}

	cfg := Config{
		InputDir:  envStr("INPUT_DIR", "lead_pics"),
		OutputDir: envStr("OUTPUT_DIR", "output"),

		APIKey:  apiKey,
		Model:   envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		BaseURL: envStr("GEMINI_BASE_URL", ""),
	}
	cfg.ConvertedDir = filepath.Join(cfg.OutputDir, "converted_images")

	var err error
	if cfg.MaxConcurrent, err = envInt("MAX_CONCURRENT", 10); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.MaxConcurrent < 1 {
		return Config{}, &Error{Reason: "MAX_CONCURRENT must be at least 1"}
	}
	if cfg.MaxAttempts, err = envInt("MAX_ATTEMPTS", 3); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.MaxAttempts < 1 {
		return Config{}, &Error{Reason: "MAX_ATTEMPTS must be at least 1"}
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", 0); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.BackoffBase, err = envDuration("BACKOFF_BASE", 1*time.Second); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.BackoffMin, err = envDuration("BACKOFF_MIN", 4*time.Second); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.BackoffMax, err = envDuration("BACKOFF_MAX", 60*time.Second); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.JPEGQuality, err = envInt("JPEG_QUALITY", 90); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	if cfg.MaxImageWidth, err = envInt("MAX_IMAGE_WIDTH", 2048); err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}
	cfg.ConvertTool = envStr("HEIC_CONVERTER", "magick")

	if err := cfg.applyProfile(strings.TrimSpace(os.Getenv("EXTRACTION_PROFILE"))); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyProfile folds an extraction profile into the config. An explicitly
// configured path must exist; the default path is used only when present.
func (c *Config) applyProfile(path string) error {
	explicit := path != ""
	if !explicit {
		path = "extraction_profile.yaml"
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return &Error{Reason: fmt.Sprintf("read EXTRACTION_PROFILE %s: %v", path, err)}
	}

	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return &Error{Reason: fmt.Sprintf("parse EXTRACTION_PROFILE %s: %v", path, err)}
	}
	if strings.TrimSpace(p.Prompt) != "" {
		c.Prompt = strings.TrimSpace(p.Prompt)
	}
	if strings.TrimSpace(p.Model) != "" {
		c.Model = strings.TrimSpace(p.Model)
	}
	return nil
}

func envStr(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %v", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %v", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %v", varName, v, err)
	}
	return out, nil
}
