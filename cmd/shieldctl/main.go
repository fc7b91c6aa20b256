// shieldctl inspects and verifies exported ledger snapshots. It is a
// read-only tool: operation submission belongs to the host platform's
// transaction envelope, not this CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "shieldctl",
		Short:         "Inspect and verify shieldkit ledger snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(snapshotCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shieldctl:", err)
		os.Exit(1)
	}
}
