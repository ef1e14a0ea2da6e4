// Package persistence selects and opens a durable backend for the document
// store. Backends embed the in-memory store and snapshot its exported state
// after every committed mutation; undo/redo history stays session-scoped.
package persistence

import (
	"fmt"

	"rxncore/internal/core"
	"rxncore/internal/infra/persistence/postgres"
	"rxncore/internal/infra/persistence/sqlite"
	"rxncore/pkg/domain"
)

// Driver identifies a concrete persistent storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Config parameterizes backend selection.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// Open constructs the configured backend and returns the hydrated document
// store plus a close function releasing any external handles. An empty driver
// defaults to sqlite.
func Open(cfg Config, engine *domain.RulesEngine) (*core.DocumentStore, func() error, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return core.NewDocumentStore(engine), func() error { return nil }, nil
	case DriverSQLite:
		st, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, nil, err
		}
		return st.DocumentStore, st.Close, nil
	case DriverPostgres:
		st, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, nil, err
		}
		return st.DocumentStore, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
