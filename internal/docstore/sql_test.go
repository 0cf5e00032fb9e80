package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcensies/task-trackers-synchronizer/internal/db"
)

func TestWhereClause_Postgres(t *testing.T) {
	d := &DocumentDatabase{dialect: db.DialectPostgres}

	where, args, err := d.whereClause(Document{"source": "gitlab", "meta.project": "core"})
	require.NoError(t, err)

	assert.Equal(t, " WHERE data::jsonb @> ?::jsonb AND data::jsonb @> ?::jsonb", where)
	assert.Equal(t, []any{`{"meta":{"project":"core"}}`, `{"source":"gitlab"}`}, args)
}

func TestWhereClause_SQLite(t *testing.T) {
	d := &DocumentDatabase{dialect: db.DialectSQLite}

	where, args, err := d.whereClause(Document{"enabled": true, "owner": nil})
	require.NoError(t, err)

	assert.Equal(t, " WHERE json_type(data, ?) = ? AND json_type(data, ?) = 'null'", where)
	assert.Equal(t, []any{"$.enabled", "true", "$.owner"}, args)
}

func TestWhereClause_Empty(t *testing.T) {
	d := &DocumentDatabase{dialect: db.DialectSQLite}

	where, args, err := d.whereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestWhereClause_SQLiteBindsIntegersExactly(t *testing.T) {
	d := &DocumentDatabase{dialect: db.DialectSQLite}

	_, args, err := d.whereClause(Document{"a": int64(1)<<53 + 1, "b": 1.5})
	require.NoError(t, err)

	assert.Equal(t, []any{"$.a", "$.a", int64(9007199254740993), "$.b", "$.b", 1.5}, args)
}
