package schema

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// Validate reports every structural defect of the table. The returned
// error combines all violations; each one wraps ErrInvariant.
func (t *Table) Validate() error {
	if t.Name == "" {
		return Invariant("", "", "table name is empty")
	}

	var err error
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		switch {
		case c.Name == "":
			err = multierr.Append(err, Invariant(t.Name, fmt.Sprintf("column #%d", i+1), "column name is empty"))
		case seen[c.Name]:
			err = multierr.Append(err, Invariant(t.Name, "column "+c.Name, "duplicate column name"))
		case c.Type == "":
			err = multierr.Append(err, Invariant(t.Name, "column "+c.Name, "column type is empty"))
		}
		seen[c.Name] = true
	}

	for _, name := range sortedKeys(t.Indexes) {
		idx := t.Indexes[name]
		obj := "index " + name
		switch {
		case name == "" || idx.Name != name:
			err = multierr.Append(err, Invariant(t.Name, obj, fmt.Sprintf("index keyed as %q is named %q", name, idx.Name)))
		case len(idx.Columns) == 0:
			err = multierr.Append(err, Invariant(t.Name, obj, "index has no member columns"))
		case slices.Contains(idx.Columns, ""):
			err = multierr.Append(err, Invariant(t.Name, obj, "index has an empty member column name"))
		}
	}

	for _, name := range sortedKeys(t.ForeignKeys) {
		fk := t.ForeignKeys[name]
		obj := "constraint " + name
		switch {
		case name == "" || fk.Name != name:
			err = multierr.Append(err, Invariant(t.Name, obj, fmt.Sprintf("foreign key keyed as %q is named %q", name, fk.Name)))
		case len(fk.Columns) == 0:
			err = multierr.Append(err, Invariant(t.Name, obj, "foreign key has no columns"))
		case len(fk.Columns) != len(fk.RefColumns):
			err = multierr.Append(err, Invariant(t.Name, obj,
				fmt.Sprintf("foreign key has %d local columns but %d referenced columns", len(fk.Columns), len(fk.RefColumns))))
		case fk.RefTable == "":
			err = multierr.Append(err, Invariant(t.Name, obj, "foreign key has no referenced table"))
		case !fk.OnUpdate.Valid():
			err = multierr.Append(err, Invariant(t.Name, obj, fmt.Sprintf("unknown ON UPDATE rule %q", fk.OnUpdate)))
		case !fk.OnDelete.Valid():
			err = multierr.Append(err, Invariant(t.Name, obj, fmt.Sprintf("unknown ON DELETE rule %q", fk.OnDelete)))
		}
	}
	return err
}

// Validate validates every table of the schema.
func (s *Schema) Validate() error {
	var err error
	for _, name := range s.Names() {
		t := s.Tables[name]
		if t == nil {
			err = multierr.Append(err, Invariant(name, "", "table entry is nil"))
			continue
		}
		if t.Name != name {
			err = multierr.Append(err, Invariant(name, "", fmt.Sprintf("table keyed as %q is named %q", name, t.Name)))
			continue
		}
		err = multierr.Append(err, t.Validate())
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
