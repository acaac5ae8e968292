package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"db-sync/internal/ddl"
	"db-sync/internal/inspect"
	"db-sync/internal/schema"
	"db-sync/internal/syncer"
)

var (
	tables       []string
	showProgress bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the DDL script that syncs the target schema to the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output", "o", "sync_queries.sql", "Output SQL file path (- for stdout)")
	generateCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables to sync (comma-separated)")
	generateCmd.Flags().Bool("order-by-dependency", false, "Process source tables referenced-first")
	generateCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar while reading table structures")
	generateCmd.Flags().Duration("timeout", 0, "Abort introspection after this long (0 disables)")

	viper.BindPFlag("output", generateCmd.Flags().Lookup("output"))
	viper.BindPFlag("order_by_dependency", generateCmd.Flags().Lookup("order-by-dependency"))
	viper.BindPFlag("timeout", generateCmd.Flags().Lookup("timeout"))
}

func runGenerate(ctx context.Context) (err error) {
	ctx, cancel := withTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()

	srcCfg, srcErr := LoadDBConfig(viper.GetViper(), "source")
	tgtCfg, tgtErr := LoadDBConfig(viper.GetViper(), "target")
	if err := multierr.Combine(srcErr, tgtErr); err != nil {
		return err
	}

	source, srcDB, err := openSide(ctx, srcCfg)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(srcDB))

	target, tgtDB, err := openSide(ctx, tgtCfg)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(tgtDB))

	// Flag > Config > All
	targetTables := tables
	if len(targetTables) == 0 {
		targetTables = viper.GetStringSlice("tables")
	}

	planner := &syncer.Planner{Logger: Logger}
	if showProgress {
		var bar *uiprogress.Bar
		uiprogress.Start()
		planner.Progress = func(done, total int, table string) {
			if bar == nil {
				bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
				bar.PrependFunc(func(b *uiprogress.Bar) string {
					return "Reading tables: "
				})
			}
			bar.Set(done)
		}
	}

	start := time.Now()
	script, err := planner.Plan(ctx, source, target, syncer.Options{
		Tables:            targetTables,
		OrderByDependency: viper.GetBool("order_by_dependency"),
	})
	if showProgress {
		uiprogress.Stop()
	}
	if err != nil {
		return err
	}

	output := viper.GetString("output")
	if err := writeScript(output, script); err != nil {
		return err
	}
	Logger.Debug("generate finished", zap.Duration("elapsed", time.Since(start)))

	report := os.Stdout
	if output == "-" {
		report = os.Stderr
	} else {
		fmt.Fprintf(report, "SQL queries saved to %s\n", output)
	}
	fmt.Fprintf(report, "%d statements to apply on %s\n", script.Count(), tgtCfg)
	fmt.Fprintln(report, "Review the SQL file before executing it!")
	return nil
}

// openSide connects to one database and returns an introspector for it.
func openSide(ctx context.Context, cfg *DBConfig) (*inspect.Analyzer, *sqlx.DB, error) {
	db, err := inspect.Open(ctx, cfg.FormatDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("%s database %s: %w", cfg.Side, cfg, err)
	}
	d, err := inspect.DetectDialect(ctx, db, cfg.Flavor)
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("%s database %s: %w", cfg.Side, cfg, err), db.Close())
	}
	log := Logger.With(zap.String("side", cfg.Side))
	log.Info("connected", zap.String("database", cfg.String()), zap.String("dialect", d.Name()))
	return inspect.NewAnalyzer(db, d, cfg.SchemaName(), log), db, nil
}

// writeScript writes the script to path, or to stdout for "-".
func writeScript(path string, script ddl.Script) error {
	if path == "-" {
		return outputError(path, writeTo(os.Stdout, script))
	}
	return outputError(path, writeFileAtomic(path, func(w io.Writer) error {
		return writeTo(w, script)
	}))
}

// writeFileAtomic writes into a temporary file next to path and renames it
// into place. A failed write leaves path untouched.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if err := write(f); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err := f.Chmod(0o644); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func writeTo(w io.Writer, script ddl.Script) error {
	_, err := script.WriteTo(w)
	return err
}

func outputError(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("write %s: %w", path, &schema.Error{Kind: schema.ErrOutputWrite, Err: err})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
