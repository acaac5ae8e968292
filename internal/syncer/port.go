// Package syncer plans the statements that bring a target schema in line
// with a source schema.
package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"db-sync/internal/schema"
)

// Inspector is the introspection port the planner reads schemas through.
type Inspector interface {
	// ListTables returns table names in the order they are processed.
	ListTables(ctx context.Context) ([]string, error)
	TableStructure(ctx context.Context, table string) ([]schema.Column, map[string]schema.Index, map[string]schema.ForeignKey, error)
	// CreateStatement returns the engine-native CREATE TABLE text.
	CreateStatement(ctx context.Context, table string) (string, error)
}

// Load builds a snapshot of the named tables. CREATE text is fetched only
// for tables where withCreate returns true.
func Load(ctx context.Context, port Inspector, name string, tables []string, withCreate func(string) bool) (*schema.Schema, error) {
	s := schema.NewSchema(name)
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, idx, fks, err := port.TableStructure(ctx, table)
		if err != nil {
			return nil, err
		}
		t := &schema.Table{Name: table, Columns: cols, Indexes: idx, ForeignKeys: fks}
		if withCreate != nil && withCreate(table) {
			if t.CreateStatement, err = port.CreateStatement(ctx, table); err != nil {
				return nil, err
			}
		}
		s.Add(t)
	}
	return s, nil
}

// Snapshot serves a loaded schema through the Inspector port. It lets a
// stored or hand-built schema stand in for a live server.
type Snapshot struct {
	Schema *schema.Schema
}

func (s Snapshot) ListTables(ctx context.Context) ([]string, error) {
	return s.Schema.Names(), nil
}

func (s Snapshot) TableStructure(ctx context.Context, table string) ([]schema.Column, map[string]schema.Index, map[string]schema.ForeignKey, error) {
	t, ok := s.Schema.Tables[table]
	if !ok {
		return nil, nil, nil, schema.Introspection(table, errTableNotFound)
	}
	return t.Columns, t.Indexes, t.ForeignKeys, nil
}

func (s Snapshot) CreateStatement(ctx context.Context, table string) (string, error) {
	t, ok := s.Schema.Tables[table]
	if !ok {
		return "", schema.Introspection(table, errTableNotFound)
	}
	return t.CreateStatement, nil
}

var _ Inspector = Snapshot{}

var errTableNotFound = errors.New("table not found")

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
