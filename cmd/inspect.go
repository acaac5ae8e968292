package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"db-sync/internal/ddl"
	"db-sync/internal/schema"
	"db-sync/internal/syncer"
)

var (
	side         string
	inspectOrder bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the introspected structure of the source or target database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&side, "side", "source", "Which database to inspect (source or target)")
	inspectCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables to inspect (comma-separated)")
	inspectCmd.Flags().BoolVar(&inspectOrder, "order-by-dependency", false, "List tables referenced-first")
}

func runInspect(ctx context.Context) (err error) {
	if side != "source" && side != "target" {
		return fmt.Errorf("--side must be source or target, got %q", side)
	}
	ctx, cancel := withTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()

	cfg, err := LoadDBConfig(viper.GetViper(), side)
	if err != nil {
		return err
	}
	analyzer, db, err := openSide(ctx, cfg)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	names, err := analyzer.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		want := make(map[string]bool, len(tables))
		for _, t := range tables {
			want[t] = true
		}
		var filtered []string
		for _, n := range names {
			if want[n] {
				filtered = append(filtered, n)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("no matching tables found for inputs: %v", tables)
		}
		names = filtered
	}

	s, err := syncer.Load(ctx, analyzer, analyzer.Schema(), names, nil)
	if err != nil {
		return err
	}

	ordered := make([]*schema.Table, 0, len(names))
	for _, n := range s.Names() {
		ordered = append(ordered, s.Tables[n])
	}
	if inspectOrder {
		var breaks []string
		ordered, breaks = schema.SortByDependency(ordered)
		if len(breaks) > 0 {
			fmt.Printf("! circular dependencies broken at: %s\n", strings.Join(breaks, ", "))
		}
	}

	fmt.Printf("🔍 %s database %s: %d tables\n", side, cfg, len(ordered))
	for i, t := range ordered {
		printTable(os.Stdout, i+1, len(ordered), t)
	}
	return nil
}

func printTable(w io.Writer, n, total int, t *schema.Table) {
	fmt.Fprintf(w, "\n[%02d/%02d] %s (Dependencies: %v)\n", n, total, t.Name, t.Dependencies())
	for _, c := range t.Columns {
		fmt.Fprintf(w, "    %s\n", ddl.RenderColumn(c))
	}
	for _, name := range slices.Sorted(maps.Keys(t.Indexes)) {
		idx := t.Indexes[name]
		if idx.IsPrimary() {
			fmt.Fprintf(w, "    PRIMARY KEY (%s)\n", strings.Join(idx.Columns, ", "))
			continue
		}
		fmt.Fprintf(w, "    %s\n", ddl.RenderIndex(idx))
	}
	for _, name := range slices.Sorted(maps.Keys(t.ForeignKeys)) {
		fmt.Fprintf(w, "    %s\n", ddl.RenderForeignKey(t.ForeignKeys[name]))
	}
}
