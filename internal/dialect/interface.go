package dialect

import "db-sync/internal/schema"

// Dialect abstracts the catalog differences between MySQL-family servers.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection). Each takes the schema name
	// as its first placeholder and, except TablesQuery, the table name as
	// the second.
	VersionQuery() string
	TablesQuery() string
	ColumnsQuery() string
	IndexesQuery() string
	ForeignKeysQuery() string
	CreateTableQuery(table string) string

	// Decoding of catalog values into the structural model
	ParseDefault(raw *string, extra string) schema.Default
	NormalizeExtra(extra string) string
}
