// Package diff compares one table's source and target structure and
// returns the statements that converge the target onto the source.
package diff

import (
	"db-sync/internal/ddl"
	"db-sync/internal/schema"
)

// Columns emits ADD and MODIFY statements in source order, each with a
// position directive relative to the preceding source column, followed
// by DROP statements for target-only columns in target order. Drops come
// last so no AFTER clause references a column that is already gone.
func Columns(table string, source, target []schema.Column) []ddl.Statement {
	targetByName := make(map[string]schema.Column, len(target))
	for _, c := range target {
		targetByName[c.Name] = c
	}

	var stmts []ddl.Statement
	pos := ddl.First()
	for _, sc := range source {
		tc, ok := targetByName[sc.Name]
		switch {
		case !ok:
			stmts = append(stmts, ddl.AddColumn{Table: table, Column: sc, Position: pos})
		case !sc.Equal(tc):
			stmts = append(stmts, ddl.ModifyColumn{Table: table, Column: sc, Position: pos})
		}
		// position follows the source's final order, not emitted statements
		pos = ddl.After(sc.Name)
	}

	inSource := make(map[string]bool, len(source))
	for _, sc := range source {
		inSource[sc.Name] = true
	}
	for _, tc := range target {
		if !inSource[tc.Name] {
			stmts = append(stmts, ddl.DropColumn{Table: table, Column: tc.Name})
		}
	}
	return stmts
}
