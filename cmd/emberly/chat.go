package main

import (
	"context"

	"github.com/aretw0/emberly/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Runs one conversation in the terminal. Type a message to send it;
/help lists the commands. Ctrl+C cancels the draft or pending reply.

With --json the conversation is driven by JSON lines on stdin and every
state change is written as a JSON frame on stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, debug := commonFlags(cmd)
		jsonMode, _ := cmd.Flags().GetBool("json")
		baseURL, _ := cmd.Flags().GetString("base-url")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		// Ctrl+C belongs to the runner here; the context only ends with the run.
		return cli.RunChat(context.Background(), cli.ChatOptions{
			ConfigPath: configPath,
			BaseURL:    baseURL,
			JSON:       jsonMode,
			Debug:      debug,
			NoBanner:   noBanner,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Headless mode: JSON lines in, JSON frames out")
	chatCmd.Flags().String("base-url", "", "Call this API directly instead of the configured one")
	chatCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}
