package config

import (
	"path/filepath"
	"time"
)

const (
	dataFileEnvVar      = "DATA_FILE"
	saveThrottleEnvVar  = "SAVE_THROTTLE"
	flushIntervalEnvVar = "FLUSH_INTERVAL"

	defaultDataFileName  = "subhub_data.json"
	defaultSaveThrottle  = time.Second
	defaultFlushInterval = 5 * time.Second
)

type StorageConfig interface {
	GetDataFile() string
	GetSaveThrottle() time.Duration
	GetFlushInterval() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetDataFile returns DATA_FILE when set, otherwise the default file name
// inside the data folder.
func (Storage) GetDataFile() string {
	if file := GetEnv(dataFileEnvVar, ""); file != "" {
		return file
	}
	return filepath.Join(EnvVars{}.GetDataFolder(), defaultDataFileName)
}

func (Storage) GetSaveThrottle() time.Duration {
	return GetDurationEnv(saveThrottleEnvVar, defaultSaveThrottle)
}

func (Storage) GetFlushInterval() time.Duration {
	return GetDurationEnv(flushIntervalEnvVar, defaultFlushInterval)
}
