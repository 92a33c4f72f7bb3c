package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	promptsCmd := &cobra.Command{Use: "prompts", Short: "Prompt administration (requires an admin token)"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/admin/prompts")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	promptsCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Get a prompt by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/admin/prompts/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	promptsCmd.AddCommand(getCmd)

	var content, description string
	var active bool
	putCmd := &cobra.Command{
		Use:   "put NAME",
		Short: "Create or update a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" {
				return fmt.Errorf("--content required")
			}
			payload := map[string]interface{}{
				"content": content,
				"active":  active,
			}
			if description != "" {
				payload["description"] = description
			}
			data, err := doPutJSON("/api/admin/prompts/"+args[0], payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	putCmd.Flags().StringVarP(&content, "content", "c", "", "Prompt content (required)")
	putCmd.Flags().StringVarP(&description, "description", "d", "", "Prompt description")
	putCmd.Flags().BoolVar(&active, "active", true, "Whether the prompt is active")
	_ = putCmd.MarkFlagRequired("content")
	promptsCmd.AddCommand(putCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doDelete("/api/admin/prompts/" + args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	promptsCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(promptsCmd)
}
