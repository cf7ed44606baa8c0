package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyago/voyago/internal/cli"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive planning conversation",
	Long: `Starts the interactive REPL. The conversation is persisted after every
turn, so you can quit at any point and pick up where you left off with
the same conversation ID.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing voyago: %v\n", err)
			os.Exit(1)
		}

		conversationID, _ := cmd.Flags().GetString("conversation")
		plain, _ := cmd.Flags().GetBool("plain")

		if err := cli.RunChat(cmd.Context(), engine, cli.ChatOptions{
			ConversationID: conversationID,
			Plain:          plain,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("conversation", "c", "", "Conversation ID to resume (default: a fresh one)")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")

	// Make 'chat' the default when no command is provided.
	rootCmd.Run = chatCmd.Run
}
