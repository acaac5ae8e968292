package schema

import (
	"fmt"
	"slices"
	"strings"
)

// PrimaryKeyName is the index name MySQL reserves for the primary key.
const PrimaryKeyName = "PRIMARY"

type Column struct {
	Name     string
	Type     string // dialect-native, e.g. "varchar(255)"
	Nullable bool
	Default  Default
	Extra    string // e.g. "auto_increment", "on update CURRENT_TIMESTAMP"
}

// Equal compares the fields that participate in a column definition.
func (c Column) Equal(o Column) bool {
	return c.Name == o.Name &&
		c.Type == o.Type &&
		c.Nullable == o.Nullable &&
		c.Default.Equal(o.Default) &&
		c.Extra == o.Extra
}

type Index struct {
	Name    string
	Columns []string // ordered by SEQ_IN_INDEX
	Unique  bool
	Type    string // BTREE, HASH, FULLTEXT, SPATIAL
}

// IsPrimary reports whether the index is the table's primary key.
func (i Index) IsPrimary() bool {
	return i.Name == PrimaryKeyName
}

// Kind returns the normalized index type. BTREE and HASH are storage
// details chosen by the engine and collapse to "".
func (i Index) Kind() string {
	switch t := strings.ToUpper(i.Type); t {
	case "FULLTEXT", "SPATIAL":
		return t
	default:
		return ""
	}
}

func (i Index) Equal(o Index) bool {
	return i.Name == o.Name &&
		i.Unique == o.Unique &&
		i.Kind() == o.Kind() &&
		slices.Equal(i.Columns, o.Columns)
}

// ReferentialAction is an ON UPDATE / ON DELETE rule.
type ReferentialAction string

const (
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	Restrict   ReferentialAction = "RESTRICT"
	NoAction   ReferentialAction = "NO ACTION"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// ParseReferentialAction accepts the rule names reported by
// information_schema.REFERENTIAL_CONSTRAINTS, case-insensitively.
func ParseReferentialAction(s string) (ReferentialAction, error) {
	a := ReferentialAction(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	if !a.Valid() {
		return "", fmt.Errorf("unknown referential action %q", s)
	}
	return a, nil
}

func (a ReferentialAction) Valid() bool {
	switch a {
	case Cascade, SetNull, Restrict, NoAction, SetDefault:
		return true
	}
	return false
}

type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnUpdate   ReferentialAction
	OnDelete   ReferentialAction
}

func (f ForeignKey) Equal(o ForeignKey) bool {
	return f.Name == o.Name &&
		f.RefTable == o.RefTable &&
		f.OnUpdate == o.OnUpdate &&
		f.OnDelete == o.OnDelete &&
		slices.Equal(f.Columns, o.Columns) &&
		slices.Equal(f.RefColumns, o.RefColumns)
}

type Table struct {
	Name        string
	Columns     []Column
	Indexes     map[string]Index
	ForeignKeys map[string]ForeignKey

	// CreateStatement is the engine-native CREATE TABLE text. It is only
	// loaded for source tables that do not exist in the target.
	CreateStatement string
}

// Dependencies lists the other tables this table references, in
// constraint-name order, without duplicates.
func (t *Table) Dependencies() []string {
	names := make([]string, 0, len(t.ForeignKeys))
	for name := range t.ForeignKeys {
		names = append(names, name)
	}
	slices.Sort(names)

	var deps []string
	for _, name := range names {
		ref := t.ForeignKeys[name].RefTable
		if ref == t.Name || slices.Contains(deps, ref) {
			continue
		}
		deps = append(deps, ref)
	}
	return deps
}

type Schema struct {
	Name   string
	Tables map[string]*Table
	Order  []string // enumeration order reported by introspection
}

// NewSchema returns an empty schema ready for Add.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, Tables: make(map[string]*Table)}
}

// Add registers a table, keeping enumeration order. Adding a name twice
// replaces the table but keeps its original position.
func (s *Schema) Add(t *Table) {
	if s.Tables == nil {
		s.Tables = make(map[string]*Table)
	}
	if _, ok := s.Tables[t.Name]; !ok {
		s.Order = append(s.Order, t.Name)
	}
	s.Tables[t.Name] = t
}

// Has reports whether the schema contains the named table.
func (s *Schema) Has(name string) bool {
	_, ok := s.Tables[name]
	return ok
}

// Names returns table names in enumeration order. Tables present in the
// map but missing from Order are appended in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Tables))
	seen := make(map[string]bool, len(s.Tables))
	for _, name := range s.Order {
		if _, ok := s.Tables[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range s.Tables {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}
