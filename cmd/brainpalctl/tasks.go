package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	tasksCmd := &cobra.Command{Use: "tasks", Short: "Task operations"}

	var status, analysisID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/tasks"
			sep := "?"
			if status != "" {
				path += sep + "status=" + status
				sep = "&"
			}
			if analysisID != "" {
				path += sep + "analysisId=" + analysisID
			}
			data, err := doGet(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, in_progress, completed)")
	listCmd.Flags().StringVar(&analysisID, "analysis", "", "Filter by analysis ID")
	tasksCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get TASK_ID",
		Short: "Get a task by its compound id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/tasks/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tasksCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task by its compound id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doDelete("/api/tasks/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tasksCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(tasksCmd)
}
