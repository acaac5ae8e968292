package ddl

import (
	"strings"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"
)

// RenderColumn produces the column definition used by ADD and MODIFY:
// `name` type NULL|NOT NULL [DEFAULT ...] [extra].
func RenderColumn(c schema.Column) string {
	var b strings.Builder
	b.WriteString(dialect.QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(c.Type)
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if c.Default.IsSet() {
		b.WriteString(" DEFAULT ")
		b.WriteString(RenderDefault(c.Default))
	}
	if extra := strings.TrimSpace(c.Extra); extra != "" {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	return b.String()
}

// RenderDefault renders the value of a DEFAULT clause. Only string
// defaults are quoted.
func RenderDefault(d schema.Default) string {
	switch d.Kind {
	case schema.DefaultNull:
		return "NULL"
	case schema.DefaultCurrentTimestamp:
		if d.Value == "" {
			return "CURRENT_TIMESTAMP"
		}
		return strings.ToUpper(d.Value)
	case schema.DefaultNumber:
		return d.Value
	case schema.DefaultString:
		return dialect.QuoteString(d.Value)
	default:
		return ""
	}
}

// RenderIndex renders the index clause of ALTER TABLE ... ADD.
func RenderIndex(idx schema.Index) string {
	var b strings.Builder
	switch {
	case idx.Kind() != "":
		b.WriteString(idx.Kind())
		b.WriteByte(' ')
	case idx.Unique:
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(dialect.QuoteIdentifier(idx.Name))
	b.WriteString(" (")
	b.WriteString(dialect.QuoteIdentifiers(idx.Columns))
	b.WriteByte(')')
	return b.String()
}

// RenderForeignKey renders the constraint clause of ALTER TABLE ... ADD.
func RenderForeignKey(fk schema.ForeignKey) string {
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(dialect.QuoteIdentifier(fk.Name))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(dialect.QuoteIdentifiers(fk.Columns))
	b.WriteString(") REFERENCES ")
	b.WriteString(dialect.QuoteIdentifier(fk.RefTable))
	b.WriteString(" (")
	b.WriteString(dialect.QuoteIdentifiers(fk.RefColumns))
	b.WriteString(") ON UPDATE ")
	b.WriteString(string(fk.OnUpdate))
	b.WriteString(" ON DELETE ")
	b.WriteString(string(fk.OnDelete))
	return b.String()
}
