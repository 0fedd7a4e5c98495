package backend

import (
	"errors"
	"fmt"
	"strings"

	"crediflow/internal/config"
)

var knownBackends = []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}

// Names lists the accepted DATA_BACKEND values in preference order.
func Names() []string {
	names := make([]string, len(knownBackends))
	for i, t := range knownBackends {
		names[i] = t.String()
	}
	return names
}

// FromAppConfig picks the storage settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("backend: nil application config")
	}

	cfg := Config{
		Type:         BackendType(strings.ToLower(strings.TrimSpace(appConfig.DataBackend))),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
		SeedFile:     appConfig.SeedFile,
		SeedDemo:     appConfig.SeedDemo,
	}
	return cfg, cfg.Validate()
}

// Validate checks that the settings the chosen backend needs are present.
func (c Config) Validate() error {
	var missing string
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			missing = "SQLITE_DB_PATH"
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			missing = "POSTGRES_URL"
		}
	default:
		return fmt.Errorf("unknown backend %q (want one of %s)", c.Type, strings.Join(Names(), ", "))
	}
	if missing != "" {
		return fmt.Errorf("%s backend needs %s", c.Type, missing)
	}
	return nil
}
