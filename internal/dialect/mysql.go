package dialect

import (
	"fmt"
	"strings"

	"db-sync/internal/schema"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) VersionQuery() string {
	return `SELECT VERSION()`
}

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME AS table_name FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME AS column_name, COLUMN_TYPE AS column_type, IS_NULLABLE AS is_nullable,
       COLUMN_DEFAULT AS column_default, EXTRA AS extra
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`
}

// IndexesQuery returns one row per index member; grouping happens
// client-side so member order never depends on GROUP_CONCAT formatting.
func (d *MysqlDialect) IndexesQuery() string {
	return `SELECT INDEX_NAME AS index_name, COLUMN_NAME AS column_name, NON_UNIQUE AS non_unique,
       SEQ_IN_INDEX AS seq_in_index, INDEX_TYPE AS index_type
FROM information_schema.STATISTICS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`
}

func (d *MysqlDialect) ForeignKeysQuery() string {
	return `SELECT k.CONSTRAINT_NAME AS constraint_name, k.COLUMN_NAME AS column_name,
       k.REFERENCED_TABLE_NAME AS referenced_table_name, k.REFERENCED_COLUMN_NAME AS referenced_column_name,
       r.UPDATE_RULE AS update_rule, r.DELETE_RULE AS delete_rule
FROM information_schema.KEY_COLUMN_USAGE k
JOIN information_schema.REFERENTIAL_CONSTRAINTS r
  ON r.CONSTRAINT_SCHEMA = k.TABLE_SCHEMA
 AND r.TABLE_NAME = k.TABLE_NAME
 AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION`
}

func (d *MysqlDialect) CreateTableQuery(table string) string {
	return fmt.Sprintf("SHOW CREATE TABLE %s", QuoteIdentifier(table))
}

// ParseDefault decodes COLUMN_DEFAULT. MySQL reports string literals
// unquoted, and expression defaults (8.0.13+) carry DEFAULT_GENERATED in
// EXTRA; those are kept as parenthesized expressions. BIT and binary
// defaults arrive as b'..' or 0x.. literals and are kept verbatim.
func (d *MysqlDialect) ParseDefault(raw *string, extra string) schema.Default {
	def := schema.ParseDefault(raw)
	if def.Kind != schema.DefaultString {
		return def
	}
	switch {
	case hasExtraToken(extra, defaultGenerated):
		return schema.NumberDefault("(" + def.Value + ")")
	case IsBinaryLiteral(def.Value):
		return schema.NumberDefault(def.Value)
	}
	return def
}

func (d *MysqlDialect) NormalizeExtra(extra string) string {
	return DefaultNormalizeExtra(extra)
}

const defaultGenerated = "DEFAULT_GENERATED"

func hasExtraToken(extra, token string) bool {
	for _, f := range strings.Fields(extra) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
