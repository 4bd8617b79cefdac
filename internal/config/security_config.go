package config

import "time"

const (
	sessionTTLEnvVar = "SESSION_TTL"

	defaultSessionTTL  = time.Hour
	defaultTokenLength = 32 // bytes of entropy per session token
)

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetTokenLength() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionTTL() time.Duration {
	return GetDurationEnv(sessionTTLEnvVar, defaultSessionTTL)
}

func (Security) GetTokenLength() int {
	return defaultTokenLength
}
