package backend

import (
	"errors"
	"fmt"

	"bizops/internal/config"
)

var backendTypes = []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}

// FromAppConfig picks the DATA_BACKEND settings out of the process config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:         BackendType(appConfig.DataBackend),
		SeedFile:     appConfig.SeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return c, nil
}

// Validate checks that the setting the chosen store needs is present.
// The memory store starts empty without a seed file.
func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
		return nil
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Names lists the accepted DATA_BACKEND values.
func Names() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}
