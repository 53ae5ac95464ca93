package core

import (
	"context"
	"fmt"
	"os"

	"taskcore/internal/infra/persistence/memory"
	"taskcore/internal/infra/persistence/postgres"
	"taskcore/internal/infra/persistence/sqlite"
	"taskcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenTaskStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	TASKCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	TASKCORE_SQLITE_PATH: path to sqlite file (default ./taskcore.db)
//	TASKCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenTaskStore(ctx context.Context) (domain.TaskStore, error) {
	driver := os.Getenv("TASKCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("TASKCORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("TASKCORE_POSTGRES_DSN")
		return postgres.NewStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
