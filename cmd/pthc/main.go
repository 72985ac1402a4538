// Command pthc writes pre-tokenized header caches for C-like source files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zcc-tools/pthc/cmd/pthc/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pthc",
		Short:         "pthc - pre-tokenized header cache writer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewWriteCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
