// Command optrisk validates proposed option trades against portfolio risk limits.
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"options-risk/internal/cli"
	internalerrors "options-risk/internal/errors"
	"options-risk/internal/logging"
)

func main() {
	// A missing .env file is normal; OPTRISK_* may come from the shell.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		color.New(color.FgYellow).Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	logger := logging.NewLogger()
	rootCmd := cli.NewRootCmd(nil, logger)

	if err := rootCmd.Execute(); err != nil {
		// A blocked trade has already been rendered; only the exit code remains.
		if !errors.Is(err, internalerrors.ErrTradeBlocked) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
