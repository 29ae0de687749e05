package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootConfigPath  string
	rootStoragePath string
	rootURL         string
)

var rootCmd = &cobra.Command{
	Use:   "pagewarden",
	Short: "Deterrence and telemetry layer for headless page sessions",
	Long: "Resolves a page's security policy, runs the page in a headless session and arms detectors\n" +
		"that count suspicious activity. Too many alerts degrade the page and navigate it away.\n" +
		"Best-effort deterrence only; it does not protect content.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to pagewarden.yaml (default ~/.pagewarden/pagewarden.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootStoragePath, "storage", "", "Path to the local storage database (default ~/.pagewarden/storage.db)")
	rootCmd.PersistentFlags().StringVar(&rootURL, "url", "", "Page location; empty means a local file")
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.msg)
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
