package diff

import (
	"db-sync/internal/ddl"
	"db-sync/internal/schema"
)

// ForeignKeys follows the Indexes pattern over constraints: target-only
// constraints are dropped, missing ones added, and any difference in the
// full tuple (columns, referenced table and columns, both rules) becomes
// a drop followed by an add.
func ForeignKeys(table string, source, target map[string]schema.ForeignKey) []ddl.Statement {
	var stmts []ddl.Statement
	for _, name := range sortedNames(target) {
		if _, ok := source[name]; !ok {
			stmts = append(stmts, ddl.DropForeignKey{Table: table, ForeignKey: name})
		}
	}

	for _, name := range sortedNames(source) {
		sf := source[name]
		tf, exists := target[name]
		if exists && sf.Equal(tf) {
			continue
		}
		if exists {
			stmts = append(stmts, ddl.DropForeignKey{Table: table, ForeignKey: name})
		}
		stmts = append(stmts, ddl.AddForeignKey{Table: table, ForeignKey: sf})
	}
	return stmts
}
