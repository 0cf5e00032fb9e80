package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryDatabase keeps documents in process. Rows are stored serialized so
// callers never share maps with the store.
type MemoryDatabase struct {
	mu     sync.RWMutex
	tables map[string][]string
	closed bool
}

var _ Database = (*MemoryDatabase)(nil)

func NewMemory() *MemoryDatabase {
	m := &MemoryDatabase{tables: map[string][]string{}}
	for _, t := range Tables {
		m.tables[t] = nil
	}
	return m
}

func (m *MemoryDatabase) check(table string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemoryDatabase) GetAll(ctx context.Context, table string) ([]Document, error) {
	return m.Find(ctx, table, nil)
}

func (m *MemoryDatabase) AddRow(ctx context.Context, table string, row Document) error {
	return m.AddAll(ctx, table, []Document{row})
}

func (m *MemoryDatabase) AddAll(_ context.Context, table string, rows []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(table); err != nil {
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
	m.tables[table] = append(m.tables[table], encoded...)
	return nil
}

func (m *MemoryDatabase) Find(_ context.Context, table string, query Document) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(table); err != nil {
		return nil, err
	}
	conds, err := parseQuery(query)
	if err != nil {
		return nil, err
	}

	out := []Document{}
	for _, raw := range m.tables[table] {
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if matches(doc, conds) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MemoryDatabase) Remove(_ context.Context, table string, query Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(table); err != nil {
		return 0, err
	}
	conds, err := parseQuery(query)
	if err != nil {
		return 0, err
	}

	var removed int64
	kept := m.tables[table][:0]
	for _, raw := range m.tables[table] {
		doc, err := decode(raw)
		if err != nil {
			return 0, err
		}
		if matches(doc, conds) {
			removed++
			continue
		}
		kept = append(kept, raw)
	}
	m.tables[table] = kept
	return removed, nil
}

func (m *MemoryDatabase) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func matches(doc Document, conds []condition) bool {
	for _, c := range conds {
		v, ok := lookup(doc, c.path)
		if !ok || !equal(v, c.value) {
			return false
		}
	}
	return true
}

func lookup(doc Document, path []string) (any, bool) {
	var cur any = doc
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// equal compares a decoded JSON value with a normalized query scalar.
func equal(stored, want any) bool {
	switch w := want.(type) {
	case nil:
		return stored == nil
	case string:
		s, ok := stored.(string)
		return ok && s == w
	case bool:
		b, ok := stored.(bool)
		return ok && b == w
	case json.Number:
		n, ok := stored.(json.Number)
		return ok && sameNumber(n, w)
	}
	return false
}
