package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/lcensies/task-trackers-synchronizer/internal/db"
)

// DocumentDatabase stores documents in SQLite or PostgreSQL through gorm.
type DocumentDatabase struct {
	mu      sync.RWMutex
	db      *gorm.DB
	dialect string
	closed  bool
}

var _ Database = (*DocumentDatabase)(nil)

// New wraps an open, migrated connection.
func New(gdb *gorm.DB) *DocumentDatabase {
	dialect := db.DialectSQLite
	if gdb.Dialector.Name() == db.DialectPostgres {
		dialect = db.DialectPostgres
	}
	return &DocumentDatabase{db: gdb, dialect: dialect}
}

// Open connects to dsn, migrates it and returns the document database.
func Open(dsn string, opts ...db.Option) (*DocumentDatabase, error) {
	gdb, err := db.Open(dsn, opts...)
	if err != nil {
		return nil, err
	}
	return New(gdb), nil
}

func (d *DocumentDatabase) conn(ctx context.Context, table string) (*gorm.DB, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if d.closed {
		return nil, ErrClosed
	}
	return d.db.WithContext(ctx), nil
}

func (d *DocumentDatabase) order() string {
	if d.dialect == db.DialectPostgres {
		return "ctid"
	}
	return "rowid"
}

func (d *DocumentDatabase) GetAll(ctx context.Context, table string) ([]Document, error) {
	return d.Find(ctx, table, nil)
}

func (d *DocumentDatabase) AddRow(ctx context.Context, table string, row Document) error {
	return d.AddAll(ctx, table, []Document{row})
}

func (d *DocumentDatabase) AddAll(ctx context.Context, table string, rows []Document) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, err := d.conn(ctx, table)
	if err != nil {
		return err
	}

	encoded := make([]string, 0, len(rows))
	for _, r := range rows {
		s, err := encode(r)
		if err != nil {
			return err
		}
		encoded = append(encoded, s)
	}
	if len(encoded) == 0 {
		return nil
	}

	insert := "INSERT INTO " + table + " (data) VALUES (?)"
	return tx.Transaction(func(tx *gorm.DB) error {
		for _, s := range encoded {
			if err := tx.Exec(insert, s).Error; err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		return nil
	})
}

func (d *DocumentDatabase) Find(ctx context.Context, table string, query Document) ([]Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, err := d.conn(ctx, table)
	if err != nil {
		return nil, err
	}
	where, args, err := d.whereClause(query)
	if err != nil {
		return nil, err
	}

	q := "SELECT data FROM " + table + where + " ORDER BY " + d.order()
	rows, err := tx.Raw(q, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *DocumentDatabase) Remove(ctx context.Context, table string, query Document) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, err := d.conn(ctx, table)
	if err != nil {
		return 0, err
	}
	where, args, err := d.whereClause(query)
	if err != nil {
		return 0, err
	}

	res := tx.Exec("DELETE FROM "+table+where, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, res.Error)
	}
	return res.RowsAffected, nil
}

// Close releases the underlying connection pool. Calling it more than once
// is a no-op.
func (d *DocumentDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// whereClause renders query as " WHERE ..." with bound arguments, or an
// empty string for an empty query. Keys are validated by parseQuery and
// values are never interpolated.
func (d *DocumentDatabase) whereClause(query Document) (string, []any, error) {
	conds, err := parseQuery(query)
	if err != nil {
		return "", nil, err
	}
	if len(conds) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(conds))
	args := make([]any, 0, 3*len(conds))
	for _, c := range conds {
		var (
			expr string
			a    []any
		)
		if d.dialect == db.DialectPostgres {
			expr, a, err = postgresCondition(c)
		} else {
			expr, a = sqliteCondition(c)
		}
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, expr)
		args = append(args, a...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func sqliteCondition(c condition) (string, []any) {
	path := "$." + strings.Join(c.path, ".")
	switch v := c.value.(type) {
	case nil:
		return "json_type(data, ?) = 'null'", []any{path}
	case bool:
		// json_extract turns true/false into 1/0, json_type keeps them apart
		// from numbers
		return "json_type(data, ?) = ?", []any{path, fmt.Sprint(v)}
	case string:
		return "(json_type(data, ?) = 'text' AND json_extract(data, ?) = ?)", []any{path, path, v}
	default:
		// parseQuery leaves only json.Number here
		return "(json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) = ?)", []any{path, path, sqliteNumber(v.(json.Number))}
	}
}

// sqliteNumber binds integers as INTEGER so values beyond 2^53 compare
// exactly; anything else is bound as REAL.
func sqliteNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, _ := n.Float64()
	return f
}

func postgresCondition(c condition) (string, []any, error) {
	var nested any = c.value
	for i := len(c.path) - 1; i >= 0; i-- {
		nested = map[string]any{c.path[i]: nested}
	}
	b, err := json.Marshal(nested)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return "data::jsonb @> ?::jsonb", []any{string(b)}, nil
}

// MemoryURL selects the in-process store in Connect.
const MemoryURL = "memory://"

// Connect opens the store named by dsn: MemoryURL for an in-process store,
// otherwise a database understood by db.Open.
func Connect(dsn string, opts ...db.Option) (Database, error) {
	if dsn == MemoryURL {
		return NewMemory(), nil
	}
	return Open(dsn, opts...)
}
