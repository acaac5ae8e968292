package inspect

import (
	"database/sql"
	"fmt"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"
)

type columnRow struct {
	Name     string         `db:"column_name"`
	Type     string         `db:"column_type"`
	Nullable string         `db:"is_nullable"`
	Default  sql.NullString `db:"column_default"`
	Extra    string         `db:"extra"`
}

type indexRow struct {
	Name      string         `db:"index_name"`
	Column    sql.NullString `db:"column_name"` // NULL for functional key parts
	NonUnique int            `db:"non_unique"`
	Seq       int            `db:"seq_in_index"`
	Type      string         `db:"index_type"`
}

type foreignKeyRow struct {
	Name      string `db:"constraint_name"`
	Column    string `db:"column_name"`
	RefTable  string `db:"referenced_table_name"`
	RefColumn string `db:"referenced_column_name"`
	OnUpdate  string `db:"update_rule"`
	OnDelete  string `db:"delete_rule"`
}

func buildColumns(d dialect.Dialect, rows []columnRow) []schema.Column {
	cols := make([]schema.Column, 0, len(rows))
	for _, r := range rows {
		var raw *string
		if r.Default.Valid {
			v := r.Default.String
			raw = &v
		}
		cols = append(cols, schema.Column{
			Name:     r.Name,
			Type:     r.Type,
			Nullable: r.Nullable == "YES",
			Default:  d.ParseDefault(raw, r.Extra),
			Extra:    d.NormalizeExtra(r.Extra),
		})
	}
	return cols
}

// groupIndexes folds per-member rows (ordered by index name and
// sequence) into indexes. Indexes with an expression member are left out
// and their names returned.
func groupIndexes(rows []indexRow) (map[string]schema.Index, []string) {
	indexes := make(map[string]schema.Index)
	expression := make(map[string]bool)
	var skipped []string
	for _, r := range rows {
		if expression[r.Name] {
			continue
		}
		if !r.Column.Valid {
			expression[r.Name] = true
			delete(indexes, r.Name)
			skipped = append(skipped, r.Name)
			continue
		}
		idx, ok := indexes[r.Name]
		if !ok {
			idx = schema.Index{
				Name:   r.Name,
				Unique: r.NonUnique == 0,
				Type:   r.Type,
			}
		}
		idx.Columns = append(idx.Columns, r.Column.String)
		indexes[r.Name] = idx
	}
	return indexes, skipped
}

// groupForeignKeys folds per-column rows (ordered by constraint name and
// ordinal position) into foreign keys.
func groupForeignKeys(table string, rows []foreignKeyRow) (map[string]schema.ForeignKey, error) {
	fks := make(map[string]schema.ForeignKey)
	for _, r := range rows {
		fk, ok := fks[r.Name]
		if !ok {
			onUpdate, err := schema.ParseReferentialAction(r.OnUpdate)
			if err != nil {
				return nil, schema.Invariant(table, "constraint "+r.Name, err.Error())
			}
			onDelete, err := schema.ParseReferentialAction(r.OnDelete)
			if err != nil {
				return nil, schema.Invariant(table, "constraint "+r.Name, err.Error())
			}
			fk = schema.ForeignKey{
				Name:     r.Name,
				RefTable: r.RefTable,
				OnUpdate: onUpdate,
				OnDelete: onDelete,
			}
		} else if fk.RefTable != r.RefTable {
			return nil, schema.Invariant(table, "constraint "+r.Name,
				fmt.Sprintf("constraint references both %q and %q", fk.RefTable, r.RefTable))
		}
		fk.Columns = append(fk.Columns, r.Column)
		fk.RefColumns = append(fk.RefColumns, r.RefColumn)
		fks[r.Name] = fk
	}
	return fks, nil
}
