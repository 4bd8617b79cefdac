package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetVersion() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Storage
}

// New loads any .env files present in the working directory and returns a
// Config backed by the process environment.
func New(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}
	return mainConfig{}
}
