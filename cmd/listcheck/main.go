// Package main provides the listcheck command line client for the job service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listcheck",
	Short: "Verify email lists and extract emails from websites",
	Long:  "listcheck submits CSV/TXT lists and pasted lines to the verification job service, then pages and exports the results.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
	SilenceUsage: true,
}

var (
	backendURL string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Job service base URL (overrides BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
