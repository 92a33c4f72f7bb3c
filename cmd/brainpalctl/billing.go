package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	billingCmd := &cobra.Command{Use: "billing", Short: "Billing operations"}

	creditsCmd := &cobra.Command{
		Use:   "credits",
		Short: "Show credit balances and subscription state",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/billing/credits")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	billingCmd.AddCommand(creditsCmd)

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent billing transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/billing/history"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum transactions to return")
	billingCmd.AddCommand(historyCmd)

	rootCmd.AddCommand(billingCmd)
}
