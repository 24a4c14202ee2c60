package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all ScalpShield configuration.
type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Log    LogConfig
}

// ServerConfig holds HTTP boundary settings.
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
	RequestsPerSec float64
	Burst          int
}

// ModelConfig locates the pretrained classifier artifact.
type ModelConfig struct {
	// Path to the ONNX model file.
	Path string
	// RuntimeLibPath overrides the ONNX Runtime shared library location.
	// Empty means "next to the model file".
	RuntimeLibPath string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present (its absence is not an error).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Addr:           getenv("SCALPSHIELD_ADDR", ":8080"),
			MaxUploadBytes: getenvInt64("SCALPSHIELD_MAX_UPLOAD_BYTES", 10<<20),
			RequestsPerSec: getenvFloat("SCALPSHIELD_RATE_LIMIT_RPS", 10),
			Burst:          int(getenvInt64("SCALPSHIELD_RATE_LIMIT_BURST", 20)),
		},
		Model: ModelConfig{
			Path:           getenv("SCALPSHIELD_MODEL_PATH", "models/model_xgb.onnx"),
			RuntimeLibPath: os.Getenv("SCALPSHIELD_ONNXRUNTIME_LIB"),
		},
		Log: LogConfig{
			Level:  getenv("SCALPSHIELD_LOG_LEVEL", "info"),
			Format: getenv("SCALPSHIELD_LOG_FORMAT", "text"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("malformed numeric env value, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("malformed numeric env value, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
