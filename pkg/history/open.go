package history

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config selects and locates the history backend.
type Config struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"` // empty uses ~/.focus-booster/sessions.{json,db}
	DSN     string `yaml:"dsn" json:"-"`     // postgres connection string
}

// DefaultConfig stores history as JSON in the home directory.
func DefaultConfig() Config {
	return Config{Backend: BackendJSON}
}

// Open returns the configured store, or nil for BackendNone.
func Open(ctx context.Context, cfg Config) (Store, error) {
	path := cfg.Path
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendJSON, "":
		if path == "" {
			p, err := DefaultPath("sessions.json")
			if err != nil {
				return nil, err
			}
			path = p
		}
		store, err := NewJSONStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendSQLite:
		if path == "" {
			p, err := DefaultPath("sessions.db")
			if err != nil {
				return nil, err
			}
			path = p
		}
		store, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("history: unknown backend %q", cfg.Backend)
	}
}

