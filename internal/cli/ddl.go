package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relmap/internal/dict"
	"relmap/internal/gen"
	"relmap/internal/schema"
)

type DDLOptions struct {
	resolveOptions

	Out           string
	NoIndexes     bool
	NoForeignKeys bool
}

func NewDDLCmd(root *RootOptions) *cobra.Command {
	opts := &DDLOptions{}

	cmd := &cobra.Command{
		Use:   "ddl [packages...]",
		Short: "Print the DDL creating the resolved schema",
		RunE: func(c *cobra.Command, args []string) error {
			p, err := runResolve(c.Context(), root, &opts.resolveOptions, args)
			if err != nil {
				if p != nil {
					_ = reportDiagnostics(c.ErrOrStderr(), p.Diagnostics)
				}

				return err
			}

			if err := reportDiagnostics(c.ErrOrStderr(), p.Diagnostics); err != nil {
				return err
			}

			d, err := dict.New(root.Config().Dialect)
			if err != nil {
				return err
			}

			return writeDDL(c, d, opts.config(), p.Schema, opts.Out)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the script to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.NoIndexes, "no-indexes", false, "Skip CREATE INDEX statements")
	cmd.Flags().BoolVar(&opts.NoForeignKeys, "no-foreign-keys", false, "Skip foreign key constraints")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "Resolve against the tables of the configured database")

	return cmd
}

func (o *DDLOptions) config() gen.Config {
	cfg := gen.DefaultConfig()
	cfg.Indexes = !o.NoIndexes
	cfg.ForeignKeys = !o.NoForeignKeys

	return cfg
}

// writeDDL renders g and writes it to out, or to stdout when out is empty.
func writeDDL(c *cobra.Command, d *dict.Dictionary, cfg gen.Config, g *schema.Group, out string) error {
	script, err := gen.NewGenerator(d, cfg).Generate(g)
	if err != nil {
		return err
	}

	if out == "" {
		_, err = script.WriteTo(c.OutOrStdout())
		return err
	}

	if err := gen.WriteFile(script, out); err != nil {
		return err
	}

	fmt.Fprintf(c.ErrOrStderr(), "%d statements written to %s\n", len(script.Statements), out)

	return nil
}
