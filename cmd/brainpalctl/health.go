package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/health")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}

	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Probe the storage backend synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/health/db")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	healthCmd.AddCommand(dbCmd)

	rootCmd.AddCommand(healthCmd)
}
