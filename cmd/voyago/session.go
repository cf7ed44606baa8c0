package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyago/voyago/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted conversations",
	Long:  `List, inspect, and remove conversations from the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved conversations",
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing voyago: %v\n", err)
			os.Exit(1)
		}
		if err := cli.ListConversations(cmd.Context(), engine); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Inspect the state of a conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing voyago: %v\n", err)
			os.Exit(1)
		}
		if err := cli.InspectConversation(cmd.Context(), engine, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>...",
	Short: "Remove one or more conversations",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing voyago: %v\n", err)
			os.Exit(1)
		}

		hasError := false
		for _, id := range args {
			if err := cli.RemoveConversation(cmd.Context(), engine, id); err != nil {
				fmt.Printf("Error: %v\n", err)
				hasError = true
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
