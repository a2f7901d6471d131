// Command relmap resolves Go entity mappings onto relational schemas.
package main

import (
	"os"

	"relmap/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
