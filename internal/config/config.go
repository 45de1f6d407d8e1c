// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the commands share. All values have working
// defaults so the binaries run with no environment at all.
type Config struct {
	ModelDir        string
	RedisAddr       string
	QueueName       string
	ListenAddr      string
	ResultTTL       time.Duration
	LogLevel        string
	ONNXLibraryPath string
}

// Load reads .env if present, then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ModelDir:        getEnv("MODEL_DIR", "models"),
		RedisAddr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		QueueName:       getEnv("QUEUE_NAME", "ml_tasks"),
		ListenAddr:      getEnv("LISTEN_ADDR", "127.0.0.1:5000"),
		ResultTTL:       time.Duration(getEnvInt("RESULT_TTL", 3600)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ONNXLibraryPath: getEnv("ONNX_LIB_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
