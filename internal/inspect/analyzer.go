// Package inspect reads table structure from a live MySQL or MariaDB
// server through information_schema.
package inspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"
)

// Analyzer introspects one schema of one server.
type Analyzer struct {
	db      *sqlx.DB
	dialect dialect.Dialect
	schema  string
	logger  *zap.Logger
}

func NewAnalyzer(db *sqlx.DB, d dialect.Dialect, schemaName string, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		db:      db,
		dialect: d,
		schema:  schemaName,
		logger:  logger.With(zap.String("schema", schemaName), zap.String("dialect", d.Name())),
	}
}

// Schema returns the name of the introspected schema.
func (a *Analyzer) Schema() string { return a.schema }

// Open connects to the server and verifies the handle with a ping.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, &schema.Error{Kind: schema.ErrConnection, Err: fmt.Errorf("failed to open db: %w", err)}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &schema.Error{Kind: schema.ErrConnection, Err: fmt.Errorf("failed to connect to db: %w", err)}
	}
	// introspection is sequential
	db.SetMaxOpenConns(1)
	return db, nil
}

// DetectDialect resolves flavor "auto" from the server version; any other
// flavor is looked up directly.
func DetectDialect(ctx context.Context, db *sqlx.DB, flavor string) (dialect.Dialect, error) {
	if !strings.EqualFold(flavor, "auto") && flavor != "" {
		return dialect.GetDialect(flavor)
	}
	var version string
	if err := db.GetContext(ctx, &version, (&dialect.MysqlDialect{}).VersionQuery()); err != nil {
		return nil, &schema.Error{Kind: schema.ErrConnection, Err: fmt.Errorf("failed to query server version: %w", err)}
	}
	return dialect.GetDialect(dialect.FlavorFromVersion(version))
}

// ListTables returns base tables (views excluded) in name order.
func (a *Analyzer) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	if err := a.db.SelectContext(ctx, &names, a.dialect.TablesQuery(), a.schema); err != nil {
		return nil, &schema.Error{Kind: schema.ErrIntrospection, Err: fmt.Errorf("failed to query tables: %w", err)}
	}
	a.logger.Debug("listed tables", zap.Int("count", len(names)))
	return names, nil
}

// TableStructure returns the ordered columns, indexes and foreign keys of
// one table.
func (a *Analyzer) TableStructure(ctx context.Context, table string) ([]schema.Column, map[string]schema.Index, map[string]schema.ForeignKey, error) {
	var colRows []columnRow
	if err := a.db.SelectContext(ctx, &colRows, a.dialect.ColumnsQuery(), a.schema, table); err != nil {
		return nil, nil, nil, schema.Introspection(table, fmt.Errorf("failed to query columns: %w", err))
	}
	if len(colRows) == 0 {
		return nil, nil, nil, schema.Introspection(table, errors.New("table has no columns or does not exist"))
	}
	columns := buildColumns(a.dialect, colRows)

	var idxRows []indexRow
	if err := a.db.SelectContext(ctx, &idxRows, a.dialect.IndexesQuery(), a.schema, table); err != nil {
		return nil, nil, nil, schema.Introspection(table, fmt.Errorf("failed to query indexes: %w", err))
	}
	indexes, skipped := groupIndexes(idxRows)
	for _, name := range skipped {
		a.logger.Warn("skipping expression index; it cannot be rendered as a column list",
			zap.String("table", table), zap.String("index", name))
	}

	var fkRows []foreignKeyRow
	if err := a.db.SelectContext(ctx, &fkRows, a.dialect.ForeignKeysQuery(), a.schema, table); err != nil {
		return nil, nil, nil, schema.Introspection(table, fmt.Errorf("failed to query foreign keys: %w", err))
	}
	fks, err := groupForeignKeys(table, fkRows)
	if err != nil {
		return nil, nil, nil, err
	}

	a.logger.Debug("introspected table",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
		zap.Int("indexes", len(indexes)),
		zap.Int("foreign_keys", len(fks)))
	return columns, indexes, fks, nil
}

// CreateStatement returns the server's SHOW CREATE TABLE text.
func (a *Analyzer) CreateStatement(ctx context.Context, table string) (string, error) {
	var name, stmt string
	row := a.db.QueryRowContext(ctx, a.dialect.CreateTableQuery(table))
	if err := row.Scan(&name, &stmt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.New("table does not exist")
		}
		return "", schema.Introspection(table, fmt.Errorf("failed to read create statement: %w", err))
	}
	return stmt, nil
}
