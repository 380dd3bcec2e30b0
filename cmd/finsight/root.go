package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootLog zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Ask questions about your receivables and payables in plain language",
	Long: `finsight answers natural-language questions about a small business
ledger: receivable and payable aging, DSO/DPO/CCC, due dates, customer and
supplier balances, and a consolidated executive report.

Periods can come from the question itself ("last month", "del 1 al 15 de
marzo", "2025-03-10") or be pinned with --period.`,
	Version: version,
}

// Execute wires the logger in and runs the CLI.
func Execute(log zerolog.Logger) {
	rootLog = log
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
