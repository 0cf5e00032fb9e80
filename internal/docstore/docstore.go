// Package docstore keeps schemaless JSON documents in a relational database.
//
// Every allowed table has a single TEXT column named data holding one
// serialized JSON object per row. Lookups compare individual fields of the
// stored object for equality.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	TableIssues = "issues"
	TableRules  = "rules"
)

// Tables lists the tables documents may be stored in. They are created by
// the db migrations.
var Tables = []string{TableIssues, TableRules}

var (
	ErrUnknownTable = errors.New("table not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrClosed       = errors.New("database is closed")
)

// Document is a single JSON object.
type Document = map[string]any

// Database stores documents by table.
type Database interface {
	GetAll(ctx context.Context, table string) ([]Document, error)
	AddRow(ctx context.Context, table string, row Document) error
	AddAll(ctx context.Context, table string, rows []Document) error
	// Find returns the documents whose fields equal every key/value pair of
	// query. Keys may be dotted paths into nested objects. An empty query
	// matches every document.
	Find(ctx context.Context, table string, query Document) ([]Document, error)
	// Remove deletes the documents Find would return and reports how many.
	Remove(ctx context.Context, table string, query Document) (int64, error)
	Close() error
}

func checkTable(table string) error {
	for _, t := range Tables {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, table)
}

var segmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// condition is one validated key/value pair of a query.
type condition struct {
	path  []string
	value any
}

// parseQuery validates keys and values and returns the conditions in key
// order so generated SQL is stable.
func parseQuery(query Document) ([]condition, error) {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]condition, 0, len(keys))
	for _, k := range keys {
		path := strings.Split(k, ".")
		for _, seg := range path {
			if !segmentRe.MatchString(seg) {
				return nil, fmt.Errorf("%w: bad key %q", ErrInvalidQuery, k)
			}
		}
		v, err := scalar(query[k])
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrInvalidQuery, k, err)
		}
		out = append(out, condition{path: path, value: v})
	}
	return out, nil
}

// scalar normalizes v to one of string, bool, nil or json.Number. Numbers
// keep their exact decimal form so integers beyond 2^53 survive.
func scalar(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case json.Number:
		if _, ok := new(big.Rat).SetString(string(x)); !ok || !json.Valid([]byte(x)) {
			return nil, fmt.Errorf("malformed number %q", string(x))
		}
		return x, nil
	case int:
		return intNumber(int64(x)), nil
	case int8:
		return intNumber(int64(x)), nil
	case int16:
		return intNumber(int64(x)), nil
	case int32:
		return intNumber(int64(x)), nil
	case int64:
		return intNumber(x), nil
	case uint:
		return uintNumber(uint64(x)), nil
	case uint8:
		return uintNumber(uint64(x)), nil
	case uint16:
		return uintNumber(uint64(x)), nil
	case uint32:
		return uintNumber(uint64(x)), nil
	case uint64:
		return uintNumber(x), nil
	case float32:
		return floatNumber(float64(x))
	case float64:
		return floatNumber(x)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func intNumber(i int64) json.Number   { return json.Number(strconv.FormatInt(i, 10)) }
func uintNumber(u uint64) json.Number { return json.Number(strconv.FormatUint(u, 10)) }

func floatNumber(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// sameNumber compares two JSON numbers by value, so 1 and 1.0 are equal and
// large integers are compared without rounding.
func sameNumber(a, b json.Number) bool {
	if a == b {
		return true
	}
	x, ok := new(big.Rat).SetString(string(a))
	if !ok {
		return false
	}
	y, ok := new(big.Rat).SetString(string(b))
	return ok && x.Cmp(y) == 0
}

func encode(row Document) (string, error) {
	if row == nil {
		row = Document{}
	}
	b, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

// decode keeps numbers as json.Number.
func decode(raw string) (Document, error) {
	var d Document
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}
