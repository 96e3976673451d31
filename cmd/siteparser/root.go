package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteparser/internal/parser"
)

// Exit codes. Invalid arguments and configuration problems exit 2; the
// only runtime failure the crawler surfaces — an invalid start URL —
// exits 1.
const (
	exitOK         = 0
	exitRuntime    = 1
	exitBadRequest = 2
)

// NewRootCmd creates the root command for siteparser.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteparser",
		Short: "Harvest contact data from a single web site",
		Long: `siteparser crawls the pages reachable from a start URL, staying on the
start URL's registered domain, and harvests email addresses and phone
numbers. The result is deduplicated, canonicalized JSON.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().String("log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR")

	// Add subcommands
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and maps errors to exit codes.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, parser.ErrInvalidURL) {
			return exitRuntime
		}
		return exitBadRequest
	}
	return exitOK
}
