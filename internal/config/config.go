package config

import (
	"os"
	"strconv"
	"time"
)

type SlipConfig struct {
	TTL           time.Duration
	MaxPerAccount int
	CodePrefix    string
}

func LoadSlipConfig() *SlipConfig {
	return &SlipConfig{
		TTL:           getEnvAsDuration("SLIP_TTL", 24*time.Hour),
		MaxPerAccount: getEnvAsInt("SLIP_MAX_PER_ACCOUNT", 10),
		CodePrefix:    getEnv("SLIP_CODE_PREFIX", "SLIP"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
