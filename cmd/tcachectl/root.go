package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tcache/cmd/tcachectl/internal/tlog"
)

var (
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "tcachectl",
	Short: "Exercise and inspect a tcache allocator pool",
	Long: `tcachectl drives a tcache.Pool from the command line: it can run
allocation scenarios, stress the pool with concurrent workers, dump a
point-in-time diagnostic snapshot, or benchmark raw Allocate/Deallocate
throughput.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Log in JSON format")
}

func logger() *slog.Logger {
	return tlog.New(verbose, quiet, jsonOut)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
