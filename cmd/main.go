package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stelladrift/fits/pkg/commands"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "fitsctl",
	Short:        "Inspect, validate and rewrite FITS files",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return commands.SetLogLevel(logLevel)
	},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log verbosity: debug, info, warn, error, disabled")
	rootCmd.AddCommand(
		commands.DumpCmd,
		commands.StatCmd,
		commands.CopyCmd,
		commands.ScanCmd,
		commands.StoreCmd,
		commands.FetchCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
