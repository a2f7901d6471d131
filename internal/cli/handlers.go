package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"relmap/internal/analyze"
	"relmap/internal/diagnostic"
	"relmap/internal/directive"
	"relmap/internal/introspect"
	"relmap/internal/logger"
	"relmap/internal/plan"
)

// resolveOptions are shared by the commands that resolve entities.
type resolveOptions struct {
	// Live resolves against the tables of the configured database.
	Live bool
}

// runResolve analyzes the entity packages and resolves them. The plan is
// returned even when resolution recorded errors; the caller reports them.
func runResolve(ctx context.Context, root *RootOptions, opts *resolveOptions, patterns []string) (*plan.ResolvedPlan, error) {
	cfg := root.Config()

	if len(patterns) == 0 {
		patterns = cfg.Packages
	}

	if len(patterns) == 0 {
		return nil, errors.New("no entity packages given: pass package patterns or set packages in the config file")
	}

	graph, err := analyze.NewAnalyzer().LoadPackages(patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var directives *directive.File

	if cfg.Directives != "" {
		directives, err = directive.LoadFile(cfg.Directives)
		if err != nil {
			return nil, err
		}
	}

	resolver := plan.NewResolver(graph, directives, cfg.Resolution())

	if opts.Live {
		if err := cfg.RequireDSN(); err != nil {
			return nil, err
		}

		in, err := introspect.Open(ctx, cfg.Dialect, cfg.DSN)
		if err != nil {
			return nil, err
		}
		defer in.Close()

		resolver.SetLoader(in.Loader(ctx))
	}

	p, err := resolver.Resolve()
	if err != nil && !errors.Is(err, plan.ErrStrict) {
		return nil, err
	}

	logger.Infof("resolved %d classes from %s", len(p.Classes), strings.Join(patterns, ", "))

	return p, err
}

// reportDiagnostics writes every diagnostic to w and returns an error when
// any of them is an error.
func reportDiagnostics(w io.Writer, d diagnostic.Diagnostics) error {
	for _, group := range [][]diagnostic.Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			fmt.Fprintf(w, "%s: %s\n", diag.Severity, diag)
		}
	}

	if n := len(d.Errors); n > 0 {
		return fmt.Errorf("resolution finished with %d errors", n)
	}

	return nil
}

func printSummary(w io.Writer, summary []plan.ClassSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, s := range summary {
		head := s.Name
		if s.Superclass != "" {
			head += " extends " + s.Superclass
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", head, s.Strategy, s.Table, keyString(s.PrimaryKey))

		for _, f := range s.Fields {
			cols := strings.Join(f.Columns, ", ")
			if f.Related != "" {
				cols += " -> " + f.Related
			}

			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Name, f.Strategy, f.Table, cols)
		}
	}

	return tw.Flush()
}

func keyString(cols []string) string {
	if len(cols) == 0 {
		return ""
	}

	return "pk(" + strings.Join(cols, ", ") + ")"
}

// dump writes v with spew when debugging is on.
func dump(root *RootOptions, w io.Writer, v any) {
	if !root.Debug {
		return
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, v)
}
