package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"relmap/internal/gen"
	"relmap/internal/introspect"
	"relmap/internal/schema"
)

type ReflectOptions struct {
	DBSchema    string
	DDL         bool
	Concurrency int
}

func NewReflectCmd(root *RootOptions) *cobra.Command {
	opts := &ReflectOptions{}

	cmd := &cobra.Command{
		Use:   "reflect [tables...]",
		Short: "Read tables from the configured database",
		Long: `Reflect reads the named tables, or every table of the schema, from the
configured database and prints their columns and keys. With --ddl the
tables are printed as a script for the same dialect instead.`,
		RunE: func(c *cobra.Command, args []string) error {
			cfg := root.Config()
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			in, err := introspect.Open(c.Context(), cfg.Dialect, cfg.DSN)
			if err != nil {
				return err
			}
			defer in.Close()

			if opts.Concurrency > 0 {
				in.SetConcurrency(opts.Concurrency)
			}

			g := schema.NewGroup()
			if err := in.Load(c.Context(), g, opts.DBSchema, args...); err != nil {
				return err
			}

			dump(root, c.ErrOrStderr(), g.Tables())

			if opts.DDL {
				return writeDDL(c, in.Dictionary(), gen.DefaultConfig(), g, "")
			}

			return printTables(c.OutOrStdout(), g.Tables())
		},
	}

	cmd.Flags().StringVar(&opts.DBSchema, "db-schema", "", "Database schema to read (default: the connection's schema)")
	cmd.Flags().BoolVar(&opts.DDL, "ddl", false, "Print the tables as DDL")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", introspect.DefaultConcurrency, "Tables read at once")

	return cmd
}

func printTables(w io.Writer, tables []*schema.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, t := range tables {
		fmt.Fprintf(tw, "%s\t\t%s\n", t.FullName(), keyString(names(t.PrimaryKeyColumns())))

		for _, c := range t.Columns() {
			var flags []string
			if c.NotNull {
				flags = append(flags, "not null")
			}

			if c.AutoAssigned {
				flags = append(flags, "auto")
			}

			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, typeString(c), strings.Join(flags, ", "))
		}

		for _, fk := range t.ForeignKeys() {
			fmt.Fprintf(tw, "  %s\t(%s) -> %s (%s)\t%s\n", fk.Name,
				strings.Join(names(fk.Columns()), ", "),
				fk.PrimaryKeyTable().FullName(),
				strings.Join(names(fk.PrimaryKeyColumns()), ", "),
				strings.ToLower(fk.DeleteAction.SQL()))
		}
	}

	return tw.Flush()
}

func typeString(c *schema.Column) string {
	s := c.TypeName
	if s == "" {
		s = c.Type.String()
	}

	switch {
	case c.Size > 0 && c.DecimalDigits > 0:
		return fmt.Sprintf("%s(%d,%d)", s, c.Size, c.DecimalDigits)
	case c.Size > 0:
		return fmt.Sprintf("%s(%d)", s, c.Size)
	default:
		return s
	}
}

func names(cols []*schema.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}

	return out
}
