package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/lcensies/task-trackers-synchronizer/internal/db/migrations"

	"github.com/pressly/goose/v3"
)

// GooseLogger is the logger interface goose writes migration progress to.
type GooseLogger interface {
	Printf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// RunMigrations runs goose.Up using embedded migrations.
func RunMigrations(sqlDB *sql.DB, dialect string, l GooseLogger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	gooseDialect := "sqlite3"
	if dialect == DialectPostgres {
		gooseDialect = "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if l != nil {
		goose.SetLogger(l)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
