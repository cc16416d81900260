package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/drafts"
)

func newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage reply drafts",
		Long: `Manage reply drafts. Drafts live locally first: anonymous sessions keep
them in memory only, logged-in sessions mirror every change to the
backend.`,
	}

	cmd.AddCommand(newDraftsListCmd())
	cmd.AddCommand(newDraftsShowCmd())
	cmd.AddCommand(newDraftsCreateCmd())
	cmd.AddCommand(newDraftsUpdateCmd())
	cmd.AddCommand(newDraftsDeleteCmd())
	cmd.AddCommand(newDraftsMarkReadyCmd())
	return cmd
}

func (a *app) draftsStore() *drafts.Store {
	return drafts.NewStore(a.client, a.session, a.logger)
}

// loadedDraftsStore builds the store and, for logged-in sessions, loads
// the persisted drafts so id lookups work.
func (a *app) loadedDraftsStore(cmd *cobra.Command) (*drafts.Store, error) {
	store := a.draftsStore()
	if a.session.Authenticated() {
		if err := store.Load(cmd.Context()); err != nil {
			return nil, a.fail(cmd.Context(), err)
		}
	}
	return store, nil
}

func newDraftsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			list := store.List()
			if len(list) == 0 {
				fmt.Println("No drafts.")
				return nil
			}
			for _, d := range list {
				fmt.Printf("%-14s %-7s %-28s %s\n",
					d.ID, d.Status, truncate(d.Recipient, 28), truncate(d.Subject, 60))
			}
			return nil
		},
	}
}

func newDraftsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Show one draft in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			d, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no draft with id %s", args[0])
			}
			fmt.Printf("To:      %s\n", d.Recipient)
			fmt.Printf("Subject: %s\n", d.Subject)
			fmt.Printf("Status:  %s\n", d.Status)
			if d.Tone != "" {
				fmt.Printf("Tone:    %s\n", d.Tone)
			}
			if d.ContextEmailID != "" {
				fmt.Printf("Reply to email: %s\n", d.ContextEmailID)
			}
			fmt.Printf("\n%s\n", d.Body)
			return nil
		},
	}
}

func newDraftsCreateCmd() *cobra.Command {
	var to, subject, body, contextEmail, tone string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			d, err := store.Create(cmd.Context(), drafts.Draft{
				Recipient:      to,
				Subject:        subject,
				Body:           body,
				ContextEmailID: contextEmail,
				Tone:           tone,
			})
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Created draft %s\n", d.ID)
			if !a.session.Authenticated() {
				fmt.Println("(local only, log in to persist drafts)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject line")
	cmd.Flags().StringVar(&body, "body", "", "Draft body")
	cmd.Flags().StringVar(&contextEmail, "context-email", "", "Inbox email this draft replies to")
	cmd.Flags().StringVar(&tone, "tone", "", "Writing tone, e.g. professional or casual")
	return cmd
}

func newDraftsUpdateCmd() *cobra.Command {
	var to, subject, body, tone string

	cmd := &cobra.Command{
		Use:   "update <draft-id>",
		Short: "Update a draft's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			d, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no draft with id %s", args[0])
			}

			if cmd.Flags().Changed("to") {
				d.Recipient = to
			}
			if cmd.Flags().Changed("subject") {
				d.Subject = subject
			}
			if cmd.Flags().Changed("body") {
				d.Body = body
			}
			if cmd.Flags().Changed("tone") {
				d.Tone = tone
			}

			if _, err := store.Update(cmd.Context(), d); err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Updated draft %s\n", d.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject line")
	cmd.Flags().StringVar(&body, "body", "", "Draft body")
	cmd.Flags().StringVar(&tone, "tone", "", "Writing tone")
	return cmd
}

func newDraftsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Deleted draft %s\n", args[0])
			return nil
		},
	}
}

func newDraftsMarkReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-ready <draft-id>",
		Short: "Mark a draft ready to send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedDraftsStore(cmd)
			if err != nil {
				return err
			}
			d, err := store.MarkReady(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Draft %s is %s\n", d.ID, d.Status)
			return nil
		},
	}
}
