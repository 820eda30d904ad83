package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Server-rendered online shop",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the process environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}
