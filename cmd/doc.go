// Package cmd implements the command-line interface for mailpilot.
//
// This package provides the following commands:
//   - auth: Log in, register, and manage the persisted backend session
//   - inbox: Browse, filter, recategorize and sync the categorized inbox
//   - accounts: Connect, disconnect and sync Gmail and Outlook accounts
//   - drafts: Manage local-first reply drafts
//   - prompts: Manage the assistant's prompt templates
//   - chat: Open an interactive websocket session with the email assistant
//   - version: Display version information
package cmd
