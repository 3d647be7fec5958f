// Package main is the entry point for the pgquery CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/biyonik/pgquery/cmd/pgquery/commands"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := run(); err != nil {
		// Envelope hataları komut tarafından zaten yazıldı.
		if !errors.Is(err, commands.ErrResultFailed) {
			color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:           "pgquery",
		Short:         "Supabase-compatible PostgreSQL query builder",
		Long:          "pgquery runs Supabase style query chains against PostgreSQL, from the command line or as a REST gateway.",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewQueryCommand(commands.OpenClient))
	rootCmd.AddCommand(commands.NewInsertCommand(commands.OpenClient))
	rootCmd.AddCommand(commands.NewUpdateCommand(commands.OpenClient))
	rootCmd.AddCommand(commands.NewUpsertCommand(commands.OpenClient))
	rootCmd.AddCommand(commands.NewTokenCommand())

	return rootCmd.Execute()
}
