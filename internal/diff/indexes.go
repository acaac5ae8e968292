package diff

import (
	"slices"

	"db-sync/internal/ddl"
	"db-sync/internal/schema"
)

// Indexes emits DROP INDEX for target-only indexes, then a drop+add pair
// (or a bare add) for every source index that is missing or different in
// the target. The PRIMARY index is never touched: primary-key changes
// are outside what this differ synchronizes, see PrimaryKeyChanged.
func Indexes(table string, source, target map[string]schema.Index) []ddl.Statement {
	var stmts []ddl.Statement
	for _, name := range sortedNames(target) {
		if name == schema.PrimaryKeyName {
			continue
		}
		if _, ok := source[name]; !ok {
			stmts = append(stmts, ddl.DropIndex{Table: table, Index: name})
		}
	}

	for _, name := range sortedNames(source) {
		if name == schema.PrimaryKeyName {
			continue
		}
		si := source[name]
		ti, exists := target[name]
		if exists && si.Equal(ti) {
			continue
		}
		if exists {
			stmts = append(stmts, ddl.DropIndex{Table: table, Index: name})
		}
		stmts = append(stmts, ddl.AddIndex{Table: table, Index: si})
	}
	return stmts
}

// PrimaryKeyChanged reports whether the PRIMARY entries of the two index
// sets differ, including one side lacking a primary key.
func PrimaryKeyChanged(source, target map[string]schema.Index) bool {
	sp, sok := source[schema.PrimaryKeyName]
	tp, tok := target[schema.PrimaryKeyName]
	if sok != tok {
		return true
	}
	return sok && !sp.Equal(tp)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
