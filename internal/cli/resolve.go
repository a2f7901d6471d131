package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"relmap/internal/directive"
	"relmap/internal/plan"
)

type ResolveOptions struct {
	resolveOptions

	Format  string
	SyncOut string
}

func NewResolveCmd(root *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [packages...]",
		Short: "Resolve entity mappings and print them",
		Long: `Resolve loads the entity packages, applies the directive file and
resolves every class. The mapping of each class is printed followed by
all diagnostics. With --sync-out the minimal directives reproducing the
result are written to a file.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runResolveCmd(c, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "o", "text", "Output format: text or yaml")
	cmd.Flags().StringVar(&opts.SyncOut, "sync-out", "", "Write synced directives to this file")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "Resolve against the tables of the configured database")

	return cmd
}

func runResolveCmd(c *cobra.Command, root *RootOptions, opts *ResolveOptions, args []string) error {
	if opts.Format != "text" && opts.Format != "yaml" {
		return fmt.Errorf("unknown format %q: use text or yaml", opts.Format)
	}

	p, err := runResolve(c.Context(), root, &opts.resolveOptions, args)
	if p == nil {
		return err
	}

	if err := writePlan(c, opts.Format, p); err != nil {
		return err
	}

	dump(root, c.ErrOrStderr(), p.Summary())

	if opts.SyncOut != "" && !p.Diagnostics.HasErrors() {
		if err := directive.WriteFile(p.Sync(), opts.SyncOut); err != nil {
			return err
		}

		fmt.Fprintf(c.ErrOrStderr(), "Synced directives written to %s\n", opts.SyncOut)
	}

	if rerr := reportDiagnostics(c.ErrOrStderr(), p.Diagnostics); rerr != nil && err == nil {
		err = rerr
	}

	return err
}

func writePlan(c *cobra.Command, format string, p *plan.ResolvedPlan) error {
	if format == "text" {
		return printSummary(c.OutOrStdout(), p.Summary())
	}

	enc := yaml.NewEncoder(c.OutOrStdout())
	enc.SetIndent(2)

	if err := enc.Encode(p.Summary()); err != nil {
		return err
	}

	return enc.Close()
}
