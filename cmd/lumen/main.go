package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Reactive render core server",
		Long: `Lumen serves reactive render-core applications over websockets.

The guest runtime diffs a virtual DOM into a compact binary mutation
stream; connected hosts apply it to their tree and feed captured
events back in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}
