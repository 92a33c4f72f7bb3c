package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	addrFlag  string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "brainpalctl",
		Short: "CLI client for the BrainPal backend REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&addrFlag, "addr", "a", "http://localhost:8080", "BrainPal service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token for authenticated endpoints")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
