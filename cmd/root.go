package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailpilot application
var rootCmd = &cobra.Command{
	Use:   "mailpilot",
	Short: "AI-assisted email productivity client",
	Long: `mailpilot is a terminal client for an AI email productivity backend.

It manages your session, connected Gmail and Outlook accounts, the
categorized inbox, reply drafts and prompt templates, and opens an
interactive chat with the email assistant.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailpilot version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: user config dir)")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newInboxCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newDraftsCmd())
	rootCmd.AddCommand(newPromptsCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newVersionCmd())
}
