package config

import (
	"os"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"

	appVersion = "1.0"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "SubHub API")
}

func (EnvVars) GetVersion() string {
	return appVersion
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envEnvVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv parses envVar with time.ParseDuration. Unset, malformed and
// non-positive values fall back to defaultValue.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
