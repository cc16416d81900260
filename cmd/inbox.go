package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/inbox"
)

func newInboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Browse and manage the categorized inbox",
	}

	cmd.AddCommand(newInboxListCmd())
	cmd.AddCommand(newInboxShowCmd())
	cmd.AddCommand(newInboxSetCategoryCmd())
	cmd.AddCommand(newInboxSyncCmd())
	return cmd
}

func (a *app) inboxStore() *inbox.Store {
	return inbox.NewStore(a.client, a.session, a.logger)
}

func newInboxListCmd() *cobra.Command {
	var category, search, sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inbox emails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store := a.inboxStore()
			if err := store.Load(cmd.Context()); err != nil {
				// The store fell back to demo data; tell the user and
				// keep rendering.
				rec := a.faults.Handle(cmd.Context(), err)
				fmt.Printf("! %s Showing demo data.\n\n", rec.Message)
			}

			emails := store.View(
				inbox.Filter{Category: category, Search: search},
				inbox.SortOrder(sortBy),
			)
			if len(emails) == 0 {
				fmt.Println("No emails match.")
				return nil
			}
			for _, e := range emails {
				read := " "
				if !e.IsRead {
					read = "*"
				}
				fmt.Printf("%s %-14s %-13s %-28s %s\n",
					read, e.ID, e.Category, truncate(e.Sender, 28), truncate(e.Subject, 60))
			}
			if store.FromFixture() {
				fmt.Println("\n(demo data, log in to see your inbox)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", inbox.CategoryAll, "Filter by category")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on sender, subject and body")
	cmd.Flags().StringVar(&sortBy, "sort", string(inbox.SortNewest), "Sort order: newest, oldest or sender")
	return cmd
}

func newInboxShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <email-id>",
		Short: "Show one email in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store := a.inboxStore()
			if err := store.Load(cmd.Context()); err != nil {
				return a.fail(cmd.Context(), err)
			}
			e, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no email with id %s", args[0])
			}

			fmt.Printf("From:     %s\n", e.Sender)
			fmt.Printf("Subject:  %s\n", e.Subject)
			fmt.Printf("Date:     %s\n", e.Timestamp)
			fmt.Printf("Category: %s", e.Category)
			if e.Priority != "" {
				fmt.Printf("  (%s priority)", e.Priority)
			}
			fmt.Println()
			if e.Summary != "" {
				fmt.Printf("Summary:  %s\n", e.Summary)
			}
			fmt.Printf("\n%s\n", e.Body)
			if len(e.ActionItems) > 0 {
				fmt.Println("\nAction items:")
				for _, item := range e.ActionItems {
					line := "- " + item.Task
					if item.Deadline != "" {
						line += " (due " + item.Deadline + ")"
					}
					fmt.Println(line)
				}
			}
			return nil
		},
	}
}

func newInboxSetCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <email-id> <category>",
		Short: "Recategorize an email",
		Long: `Recategorize an email. Valid categories are Important, Newsletter,
Spam, To-Do and Uncategorized.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}
			store := a.inboxStore()
			if err := store.Load(cmd.Context()); err != nil {
				return a.fail(cmd.Context(), err)
			}
			if err := store.UpdateCategory(cmd.Context(), args[0], args[1]); err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Moved %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newInboxSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull new mail from all connected accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}
			store := a.inboxStore()
			result, err := store.SyncAll(cmd.Context())
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Println(result.Message)
			fmt.Printf("%d emails in inbox\n", store.Len())
			return nil
		},
	}
}

// truncate shortens s to at most n characters. It counts runes, not
// bytes, so multibyte senders and subjects are never cut mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
