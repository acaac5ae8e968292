// Package ddl renders structural changes as MySQL statements and
// serializes them into a reviewable script.
package ddl

import (
	"fmt"
	"strings"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"
)

// Statement is one entry of a sync script.
type Statement interface {
	SQL() string
}

// Position places an added or modified column. An empty After means FIRST.
type Position struct {
	After string
}

func First() Position              { return Position{} }
func After(column string) Position { return Position{After: column} }

func (p Position) String() string {
	if p.After == "" {
		return "FIRST"
	}
	return "AFTER " + dialect.QuoteIdentifier(p.After)
}

type AddColumn struct {
	Table    string
	Column   schema.Column
	Position Position
}

func (s AddColumn) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		dialect.QuoteIdentifier(s.Table), RenderColumn(s.Column), s.Position)
}

type ModifyColumn struct {
	Table    string
	Column   schema.Column
	Position Position
}

func (s ModifyColumn) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s",
		dialect.QuoteIdentifier(s.Table), RenderColumn(s.Column), s.Position)
}

type DropColumn struct {
	Table  string
	Column string
}

func (s DropColumn) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		dialect.QuoteIdentifier(s.Table), dialect.QuoteIdentifier(s.Column))
}

type AddIndex struct {
	Table string
	Index schema.Index
}

func (s AddIndex) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s",
		dialect.QuoteIdentifier(s.Table), RenderIndex(s.Index))
}

type DropIndex struct {
	Table string
	Index string
}

func (s DropIndex) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s",
		dialect.QuoteIdentifier(s.Table), dialect.QuoteIdentifier(s.Index))
}

type AddForeignKey struct {
	Table      string
	ForeignKey schema.ForeignKey
}

func (s AddForeignKey) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s",
		dialect.QuoteIdentifier(s.Table), RenderForeignKey(s.ForeignKey))
}

type DropForeignKey struct {
	Table      string
	ForeignKey string
}

func (s DropForeignKey) SQL() string {
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s",
		dialect.QuoteIdentifier(s.Table), dialect.QuoteIdentifier(s.ForeignKey))
}

// CreateTable carries the engine-native CREATE TABLE text verbatim.
type CreateTable struct {
	Table     string
	Statement string
}

func (s CreateTable) SQL() string {
	return strings.TrimSpace(s.Statement)
}

type DropTable struct {
	Table string
}

func (s DropTable) SQL() string {
	return "DROP TABLE " + dialect.QuoteIdentifier(s.Table)
}

// ForeignKeyChecks toggles referential-integrity checks for the session.
type ForeignKeyChecks struct {
	Enabled bool
}

func (s ForeignKeyChecks) SQL() string {
	if s.Enabled {
		return "SET FOREIGN_KEY_CHECKS = 1"
	}
	return "SET FOREIGN_KEY_CHECKS = 0"
}

// Comment is a section comment. Newlines are folded so the comment
// stays on one line.
type Comment struct {
	Text string
}

func (s Comment) SQL() string {
	return "-- " + strings.Join(strings.Fields(s.Text), " ")
}
