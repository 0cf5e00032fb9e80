package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// IsPostgres reports whether dsn points at a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to dsn and applies the embedded migrations. PostgreSQL URLs
// use the pgx-backed driver, anything else is handed to the pure Go sqlite
// driver as a file DSN.
func Open(dsn string, opts ...Option) (*gorm.DB, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	var dialector gorm.Dialector
	dialect := DialectSQLite
	if IsPostgres(dsn) {
		dialect = DialectPostgres
		dialector = postgres.Open(dsn)
	} else {
		if p := sqliteFile(dsn); p != "" {
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		sqlDB.SetMaxOpenConns(1)
	}
	if err := RunMigrations(sqlDB, dialect, o.gooseLogger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

// sqliteFile returns the on-disk path of a sqlite DSN, or "" for in-memory
// databases.
func sqliteFile(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return p
}

type options struct {
	gooseLogger GooseLogger
}

type Option func(*options)

// WithMigrationLogger routes goose output to l.
func WithMigrationLogger(l GooseLogger) Option {
	return func(o *options) { o.gooseLogger = l }
}
