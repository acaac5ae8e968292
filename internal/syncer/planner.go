package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"db-sync/internal/ddl"
	"db-sync/internal/schema"
)

// Planner drives a sync run against two introspection ports.
type Planner struct {
	Logger *zap.Logger

	// Progress is called after each table structure is read, with the
	// number of tables read so far and the total to read. May be nil.
	Progress func(done, total int, table string)
}

// Plan enumerates both sides, loads the structures it needs and returns
// the script produced by Generate. Source tables missing from the target
// are loaded together with their CREATE text; target tables missing from
// the source are only enumerated.
func (p *Planner) Plan(ctx context.Context, source, target Inspector, opts Options) (ddl.Script, error) {
	log := nopIfNil(p.Logger)
	include := opts.includes()

	srcNames, err := source.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source tables: %w", err)
	}
	tgtNames, err := target.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list target tables: %w", err)
	}
	srcNames = filterNames(srcNames, include)
	tgtNames = filterNames(tgtNames, include)
	if len(opts.Tables) > 0 && len(srcNames) == 0 && len(tgtNames) == 0 {
		return nil, fmt.Errorf("no matching tables found for inputs: %s", strings.Join(opts.Tables, ", "))
	}

	inSource := toSet(srcNames)
	inTarget := toSet(tgtNames)
	var shared []string
	for _, name := range srcNames {
		if inTarget[name] {
			shared = append(shared, name)
		}
	}
	log.Info("enumerated tables",
		zap.Int("source", len(srcNames)),
		zap.Int("target", len(tgtNames)),
		zap.Int("shared", len(shared)))

	total := len(srcNames) + len(shared)
	done := 0
	tick := func(table string) {
		done++
		if p.Progress != nil {
			p.Progress(done, total, table)
		}
	}

	srcSchema, err := Load(ctx, progressInspector{source, tick}, "source", srcNames,
		func(name string) bool { return !inTarget[name] })
	if err != nil {
		return nil, fmt.Errorf("load source schema: %w", err)
	}
	tgtSchema, err := Load(ctx, progressInspector{target, tick}, "target", shared, nil)
	if err != nil {
		return nil, fmt.Errorf("load target schema: %w", err)
	}
	for _, name := range tgtNames {
		if !inSource[name] {
			tgtSchema.Add(&schema.Table{Name: name})
		}
	}
	tgtSchema.Order = tgtNames

	if opts.Warn == nil {
		opts.Warn = func(table, msg string) {
			log.Warn(msg, zap.String("table", table))
		}
	}
	script, err := Generate(srcSchema, tgtSchema, opts)
	if err != nil {
		return nil, err
	}
	log.Info("planned sync", zap.Int("statements", script.Count()))
	return script, nil
}

type progressInspector struct {
	Inspector
	tick func(table string)
}

func (p progressInspector) TableStructure(ctx context.Context, table string) ([]schema.Column, map[string]schema.Index, map[string]schema.ForeignKey, error) {
	cols, idx, fks, err := p.Inspector.TableStructure(ctx, table)
	if err == nil {
		p.tick(table)
	}
	return cols, idx, fks, err
}

func filterNames(names []string, include func(string) bool) []string {
	var out []string
	for _, n := range names {
		if include(n) {
			out = append(out, n)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
