package syncer

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"db-sync/internal/ddl"
	"db-sync/internal/diff"
	"db-sync/internal/schema"
)

// Options tunes a sync run.
type Options struct {
	// Tables restricts the run to the named tables, on both sides.
	// Empty means every table.
	Tables []string

	// OrderByDependency processes source tables referenced-first instead
	// of in enumeration order.
	OrderByDependency bool

	// Warn receives notices about differences the script does not
	// synchronize. May be nil.
	Warn func(table, msg string)
}

func (o Options) includes() func(string) bool {
	if len(o.Tables) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(o.Tables))
	for _, t := range o.Tables {
		set[t] = true
	}
	return func(name string) bool { return set[name] }
}

func (o Options) warn(table, msg string) {
	if o.Warn != nil {
		o.Warn(table, msg)
	}
}

// Generate produces the full sync script from two snapshots:
//
//	SET FOREIGN_KEY_CHECKS = 0
//	per source table: CREATE TABLE (missing in target) or column, index
//	  and foreign-key diffs, in that order
//	DROP TABLE for every target-only table
//	SET FOREIGN_KEY_CHECKS = 1
//
// Both snapshots are validated first; any invariant violation aborts the
// run without a script.
func Generate(source, target *schema.Schema, opts Options) (ddl.Script, error) {
	if err := multierr.Combine(
		validate("source", source),
		validate("target", target),
	); err != nil {
		return nil, err
	}

	include := opts.includes()
	script := ddl.Script{ddl.ForeignKeyChecks{Enabled: false}}

	for _, st := range sourceTables(source, include, opts) {
		tt, ok := target.Tables[st.Name]
		if !ok {
			if strings.TrimSpace(st.CreateStatement) == "" {
				return nil, schema.Invariant(st.Name, "", "table is missing from target but has no CREATE TABLE statement")
			}
			script = append(script,
				ddl.Comment{Text: "Create new table " + st.Name},
				ddl.CreateTable{Table: st.Name, Statement: st.CreateStatement},
			)
			continue
		}
		script = append(script, diffTable(st, tt, opts)...)
	}

	for _, name := range target.Names() {
		if source.Has(name) || !include(name) {
			continue
		}
		script = append(script,
			ddl.Comment{Text: "Drop table " + name},
			ddl.DropTable{Table: name},
		)
	}

	return append(script, ddl.ForeignKeyChecks{Enabled: true}), nil
}

// DiffTable returns the column, index and foreign-key statements for a
// table present on both sides.
func DiffTable(source, target *schema.Table) []ddl.Statement {
	return diffTable(source, target, Options{})
}

func diffTable(source, target *schema.Table, opts Options) []ddl.Statement {
	var stmts []ddl.Statement
	if diff.PrimaryKeyChanged(source.Indexes, target.Indexes) {
		msg := fmt.Sprintf("primary key differs (source: %s, target: %s) and is not synchronized",
			primaryKeyColumns(source), primaryKeyColumns(target))
		opts.warn(source.Name, msg)
		stmts = append(stmts, ddl.Comment{Text: fmt.Sprintf("WARNING: table %s %s", source.Name, msg)})
	}
	stmts = append(stmts, diff.Columns(source.Name, source.Columns, target.Columns)...)
	stmts = append(stmts, diff.Indexes(source.Name, source.Indexes, target.Indexes)...)
	stmts = append(stmts, diff.ForeignKeys(source.Name, source.ForeignKeys, target.ForeignKeys)...)
	return stmts
}

func sourceTables(source *schema.Schema, include func(string) bool, opts Options) []*schema.Table {
	var tables []*schema.Table
	for _, name := range source.Names() {
		if include(name) {
			tables = append(tables, source.Tables[name])
		}
	}
	if !opts.OrderByDependency {
		return tables
	}
	sorted, breaks := schema.SortByDependency(tables)
	for _, name := range breaks {
		opts.warn(name, "circular foreign-key dependency; placed before some of the tables it references")
	}
	return sorted
}

func primaryKeyColumns(t *schema.Table) string {
	pk, ok := t.Indexes[schema.PrimaryKeyName]
	if !ok {
		return "none"
	}
	return "(" + strings.Join(pk.Columns, ", ") + ")"
}

func validate(side string, s *schema.Schema) error {
	if s == nil {
		return schema.Invariant("", "", side+" schema is nil")
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%s schema %s: %w", side, s.Name, err)
	}
	return nil
}
