package db

import (
	"errors"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"errsight/internal/config"
)

var (
	connectOnce sync.Once
	sharedDB    *gorm.DB
	connectErr  error
)

// open establishes the underlying GORM connection. It is a variable so
// tests can substitute an in-memory database.
var open = func(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(&Log{}); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Connect opens the GORM database connection on first use and caches the
// handle for the process lifetime. Concurrent first callers collapse onto
// a single in-flight open and all observe the same handle (or the same
// error). There is no automatic reconnect: failures on an established
// handle propagate to the caller.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	connectOnce.Do(func() {
		sharedDB, connectErr = open(cfg)
	})
	return sharedDB, connectErr
}
