package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-sync/internal/ddl"
	"db-sync/internal/schema"
	"db-sync/internal/syncer"
)

var framingOnly = []string{"SET FOREIGN_KEY_CHECKS = 0;", "SET FOREIGN_KEY_CHECKS = 1;"}

func usersTable(cols ...schema.Column) *schema.Table {
	base := []schema.Column{
		{Name: "id", Type: "int(11)", Extra: "auto_increment"},
		{Name: "name", Type: "varchar(100)"},
	}
	return &schema.Table{
		Name:    "users",
		Columns: append(base, cols...),
		Indexes: map[string]schema.Index{
			"PRIMARY": {Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Type: "BTREE"},
		},
		ForeignKeys: map[string]schema.ForeignKey{},
	}
}

func fkTo(name, ref string, cols ...string) schema.ForeignKey {
	return schema.ForeignKey{
		Name:       name,
		Columns:    cols,
		RefTable:   ref,
		RefColumns: []string{"id"},
		OnUpdate:   schema.Cascade,
		OnDelete:   schema.Restrict,
	}
}

const ordersCreate = "CREATE TABLE `orders` (\n" +
	"  `id` int(11) NOT NULL AUTO_INCREMENT,\n" +
	"  `user_id` int(11) NOT NULL,\n" +
	"  PRIMARY KEY (`id`),\n" +
	"  CONSTRAINT `fk_orders_user` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`)\n" +
	") ENGINE=InnoDB"

func scenario() (source, target *schema.Schema) {
	source = schema.NewSchema("app")
	source.Add(usersTable(schema.Column{Name: "email", Type: "varchar(255)", Nullable: true}))
	source.Add(&schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: "int(11)", Extra: "auto_increment"},
			{Name: "user_id", Type: "int(11)"},
		},
		Indexes: map[string]schema.Index{
			"PRIMARY": {Name: "PRIMARY", Columns: []string{"id"}, Unique: true},
		},
		ForeignKeys: map[string]schema.ForeignKey{
			"fk_orders_user": fkTo("fk_orders_user", "users", "user_id"),
		},
		CreateStatement: ordersCreate,
	})

	target = schema.NewSchema("app_prod")
	target.Add(usersTable())
	target.Add(&schema.Table{
		Name: "legacy",
		Columns: []schema.Column{
			{Name: "id", Type: "int(11)"},
			{Name: "user_id", Type: "int(11)"},
		},
		ForeignKeys: map[string]schema.ForeignKey{
			"fk_legacy_user": fkTo("fk_legacy_user", "users", "user_id"),
		},
	})
	return source, target
}

func TestGenerate_EndToEnd(t *testing.T) {
	source, target := scenario()

	script, err := syncer.Generate(source, target, syncer.Options{})
	require.NoError(t, err)
	lines := script.Lines()

	assert.Equal(t, []string{
		"SET FOREIGN_KEY_CHECKS = 0;",
		"ALTER TABLE `users` ADD COLUMN `email` varchar(255) NULL AFTER `name`;",
		"",
		"-- Create new table orders",
		ordersCreate + ";",
		"",
		"-- Drop table legacy",
		"DROP TABLE `legacy`;",
		"SET FOREIGN_KEY_CHECKS = 1;",
	}, lines)

	for _, l := range lines {
		if strings.Contains(l, "`legacy`") {
			assert.Equal(t, "DROP TABLE `legacy`;", l, "legacy must only be dropped")
		}
	}
}

func TestPlanner_EndToEnd(t *testing.T) {
	source, target := scenario()
	var progressed []string
	planner := &syncer.Planner{
		Progress: func(done, total int, table string) {
			progressed = append(progressed, fmt.Sprintf("%d/%d %s", done, total, table))
		},
	}

	script, err := planner.Plan(context.Background(),
		syncer.Snapshot{Schema: source}, syncer.Snapshot{Schema: target}, syncer.Options{})
	require.NoError(t, err)

	lines := script.Lines()
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "SET FOREIGN_KEY_CHECKS = 0;", lines[0])
	assert.Equal(t, "SET FOREIGN_KEY_CHECKS = 1;", lines[len(lines)-1])
	assert.Contains(t, lines, ordersCreate+";")

	dropAt := -1
	for i, l := range lines {
		if l == "DROP TABLE `legacy`;" {
			dropAt = i
		}
	}
	require.NotEqual(t, -1, dropAt)
	for i, l := range lines[:dropAt] {
		assert.NotContains(t, l, "legacy`", "line %d precedes the drop but mentions legacy", i)
	}
	assert.Equal(t, len(lines)-2, dropAt, "the drop is the last statement before re-enabling checks")

	// users and orders from source, users from target
	assert.Equal(t, []string{"1/3 users", "2/3 orders", "3/3 users"}, progressed)
}

func TestGenerate_Idempotent(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		f := gofakeit.New(seed)
		s := randomSchema(f)

		script, err := syncer.Generate(s, s, syncer.Options{})
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, framingOnly, script.Lines(), "seed %d", seed)

		planned, err := (&syncer.Planner{}).Plan(context.Background(),
			syncer.Snapshot{Schema: s}, syncer.Snapshot{Schema: s}, syncer.Options{OrderByDependency: true})
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, framingOnly, planned.Lines(), "seed %d", seed)
	}
}

func TestGenerate_EmptySchemas(t *testing.T) {
	script, err := syncer.Generate(schema.NewSchema("a"), schema.NewSchema("b"), syncer.Options{})
	require.NoError(t, err)
	assert.Equal(t, framingOnly, script.Lines())
}

func TestGenerate_PerTableOrder(t *testing.T) {
	source := schema.NewSchema("src")
	st := usersTable(schema.Column{Name: "email", Type: "varchar(255)"})
	st.Indexes["uq_email"] = schema.Index{Name: "uq_email", Columns: []string{"email"}, Unique: true}
	st.ForeignKeys["fk_users_team"] = fkTo("fk_users_team", "users", "name")
	source.Add(st)

	target := schema.NewSchema("tgt")
	target.Add(usersTable())

	script, err := syncer.Generate(source, target, syncer.Options{})
	require.NoError(t, err)

	require.Len(t, script, 5)
	assert.IsType(t, ddl.AddColumn{}, script[1])
	assert.IsType(t, ddl.AddIndex{}, script[2])
	assert.IsType(t, ddl.AddForeignKey{}, script[3])
}

func TestGenerate_PrimaryKeyDifferenceIsAnnotated(t *testing.T) {
	source := schema.NewSchema("src")
	st := usersTable()
	st.Indexes["PRIMARY"] = schema.Index{Name: "PRIMARY", Columns: []string{"id", "name"}, Unique: true}
	source.Add(st)
	target := schema.NewSchema("tgt")
	target.Add(usersTable())

	var warnings []string
	script, err := syncer.Generate(source, target, syncer.Options{
		Warn: func(table, msg string) { warnings = append(warnings, table+": "+msg) },
	})
	require.NoError(t, err)

	require.Len(t, script, 3)
	comment, ok := script[1].(ddl.Comment)
	require.True(t, ok)
	assert.Contains(t, comment.SQL(), "WARNING: table users primary key differs")
	assert.Contains(t, comment.SQL(), "source: (id, name), target: (id)")
	assert.Len(t, warnings, 1)
	for _, l := range script.Lines() {
		assert.NotContains(t, l, "PRIMARY")
	}
}

func TestGenerate_TableFilter(t *testing.T) {
	source, target := scenario()

	script, err := syncer.Generate(source, target, syncer.Options{Tables: []string{"users"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SET FOREIGN_KEY_CHECKS = 0;",
		"ALTER TABLE `users` ADD COLUMN `email` varchar(255) NULL AFTER `name`;",
		"SET FOREIGN_KEY_CHECKS = 1;",
	}, script.Lines())
}

func TestPlanner_TableFilterWithoutMatches(t *testing.T) {
	source, target := scenario()

	_, err := (&syncer.Planner{}).Plan(context.Background(),
		syncer.Snapshot{Schema: source}, syncer.Snapshot{Schema: target},
		syncer.Options{Tables: []string{"nope"}})
	assert.ErrorContains(t, err, "no matching tables found")
}

func TestGenerate_OrderByDependency(t *testing.T) {
	source := schema.NewSchema("src")
	for _, name := range []string{"order_items", "orders", "customers"} {
		tbl := &schema.Table{
			Name:            name,
			Columns:         []schema.Column{{Name: "id", Type: "int"}, {Name: "parent_id", Type: "int"}},
			ForeignKeys:     map[string]schema.ForeignKey{},
			CreateStatement: "CREATE TABLE `" + name + "` (`id` int)",
		}
		source.Add(tbl)
	}
	source.Tables["order_items"].ForeignKeys["fk_items_order"] = fkTo("fk_items_order", "orders", "parent_id")
	source.Tables["orders"].ForeignKeys["fk_orders_customer"] = fkTo("fk_orders_customer", "customers", "parent_id")

	script, err := syncer.Generate(source, schema.NewSchema("tgt"), syncer.Options{OrderByDependency: true})
	require.NoError(t, err)

	var created []string
	for _, stmt := range script {
		if c, ok := stmt.(ddl.CreateTable); ok {
			created = append(created, c.Table)
		}
	}
	assert.Equal(t, []string{"customers", "orders", "order_items"}, created)
}

func TestGenerate_InvariantViolations(t *testing.T) {
	t.Run("missing create statement", func(t *testing.T) {
		source := schema.NewSchema("src")
		source.Add(usersTable())

		script, err := syncer.Generate(source, schema.NewSchema("tgt"), syncer.Options{})
		assert.Nil(t, script)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrInvariant))
		assert.Contains(t, err.Error(), "table users")
	})

	t.Run("foreign key column count mismatch", func(t *testing.T) {
		source := schema.NewSchema("src")
		st := usersTable()
		bad := fkTo("fk_bad", "teams", "team_id", "tenant_id")
		st.ForeignKeys["fk_bad"] = bad
		source.Add(st)
		target := schema.NewSchema("tgt")
		target.Add(usersTable())

		script, err := syncer.Generate(source, target, syncer.Options{})
		assert.Nil(t, script)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrInvariant))
		assert.Contains(t, err.Error(), "constraint fk_bad")
		assert.Contains(t, err.Error(), "source schema src")
	})
}

type failingInspector struct {
	syncer.Snapshot
	failOn string
}

func (f failingInspector) TableStructure(ctx context.Context, table string) ([]schema.Column, map[string]schema.Index, map[string]schema.ForeignKey, error) {
	if table == f.failOn {
		return nil, nil, nil, schema.Introspection(table, errors.New("access denied"))
	}
	return f.Snapshot.TableStructure(ctx, table)
}

func TestPlanner_IntrospectionFailureAbortsRun(t *testing.T) {
	source, target := scenario()

	script, err := (&syncer.Planner{}).Plan(context.Background(),
		failingInspector{Snapshot: syncer.Snapshot{Schema: source}, failOn: "orders"},
		syncer.Snapshot{Schema: target}, syncer.Options{})

	assert.Nil(t, script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrIntrospection))
	assert.Contains(t, err.Error(), "table orders")
}

func TestPlanner_CanceledContext(t *testing.T) {
	source, target := scenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&syncer.Planner{}).Plan(ctx,
		syncer.Snapshot{Schema: source}, syncer.Snapshot{Schema: target}, syncer.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

var (
	columnTypes = []string{"int(11)", "bigint(20) unsigned", "varchar(64)", "text", "datetime", "decimal(10,2)", "tinyint(1)"}
	actions     = []schema.ReferentialAction{schema.Cascade, schema.SetNull, schema.Restrict, schema.NoAction, schema.SetDefault}
)

// randomSchema builds a well-formed schema whose tables only reference
// tables created before them.
func randomSchema(f *gofakeit.Faker) *schema.Schema {
	s := schema.NewSchema(f.LetterN(8))
	tableCount := f.Number(1, 6)
	for ti := 0; ti < tableCount; ti++ {
		t := &schema.Table{
			Name:            fmt.Sprintf("%s_%d", strings.ToLower(f.LetterN(6)), ti),
			Indexes:         map[string]schema.Index{},
			ForeignKeys:     map[string]schema.ForeignKey{},
			CreateStatement: "CREATE TABLE placeholder (id int)",
		}
		t.Columns = append(t.Columns, schema.Column{Name: "id", Type: "int(11)", Extra: "auto_increment"})
		columnCount := f.Number(1, 8)
		for ci := 0; ci < columnCount; ci++ {
			t.Columns = append(t.Columns, randomColumn(f, ci))
		}
		t.Indexes["PRIMARY"] = schema.Index{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Type: "BTREE"}
		indexCount := f.Number(0, 3)
		for ii := 0; ii < indexCount; ii++ {
			name := fmt.Sprintf("idx_%d", ii)
			var cols []string
			for _, c := range t.Columns[1:] {
				if f.Bool() {
					cols = append(cols, c.Name)
				}
			}
			if len(cols) == 0 {
				cols = []string{t.Columns[len(t.Columns)-1].Name}
			}
			t.Indexes[name] = schema.Index{Name: name, Columns: cols, Unique: f.Bool()}
		}
		if ti > 0 && f.Bool() {
			ref := s.Names()[f.Number(0, ti-1)]
			name := fmt.Sprintf("fk_%s_%d", t.Name, ti)
			t.ForeignKeys[name] = schema.ForeignKey{
				Name:       name,
				Columns:    []string{t.Columns[1].Name},
				RefTable:   ref,
				RefColumns: []string{"id"},
				OnUpdate:   actions[f.Number(0, len(actions)-1)],
				OnDelete:   actions[f.Number(0, len(actions)-1)],
			}
		}
		s.Add(t)
	}
	return s
}

func randomColumn(f *gofakeit.Faker, i int) schema.Column {
	c := schema.Column{
		Name:     fmt.Sprintf("%s_%d", strings.ToLower(f.Word()), i),
		Type:     columnTypes[f.Number(0, len(columnTypes)-1)],
		Nullable: f.Bool(),
	}
	switch f.Number(0, 4) {
	case 1:
		c.Default = schema.NullDefault()
	case 2:
		c.Default = schema.CurrentTimestampDefault()
	case 3:
		c.Default = schema.StringDefault(f.Word() + "'" + f.Word())
	case 4:
		c.Default = schema.NumberDefault(fmt.Sprint(f.Number(0, 1000)))
	}
	if f.Number(0, 5) == 0 {
		c.Extra = "on update CURRENT_TIMESTAMP"
	}
	return c
}

func TestDiffTable(t *testing.T) {
	source := usersTable(schema.Column{Name: "email", Type: "varchar(255)", Nullable: true})
	target := usersTable()
	target.Columns[1].Type = "varchar(50)"
	target.Indexes["idx_name"] = schema.Index{Name: "idx_name", Columns: []string{"name"}}

	stmts := syncer.DiffTable(source, target)

	var got []string
	for _, s := range stmts {
		got = append(got, s.SQL())
	}
	assert.Equal(t, []string{
		"ALTER TABLE `users` MODIFY COLUMN `name` varchar(100) NOT NULL AFTER `id`",
		"ALTER TABLE `users` ADD COLUMN `email` varchar(255) NULL AFTER `name`",
		"ALTER TABLE `users` DROP INDEX `idx_name`",
	}, got)
	assert.Empty(t, syncer.DiffTable(source, source))
}
