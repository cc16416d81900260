package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/accounts"
	"github.com/mailpilot/mailpilot/internal/provider"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage connected email accounts",
	}

	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsConnectCmd())
	cmd.AddCommand(newAccountsDisconnectCmd())
	cmd.AddCommand(newAccountsSyncCmd())
	return cmd
}

func (a *app) accountsStore() *accounts.Store {
	store := accounts.NewStore(a.client, a.logger)
	store.Instrument(a.instr.Metrics())
	return store
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connected accounts",
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
			store := a.accountsStore()
			list, err := store.Load(cmd.Context())
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			if len(list) == 0 {
				fmt.Println("No accounts connected. Run 'mailpilot accounts connect gmail' or 'connect outlook'.")
				return nil
			}
			for _, acct := range list {
				state := "inactive"
				if acct.IsActive {
					state = "active"
				}
				primary := ""
				if acct.IsPrimary {
					primary = " primary"
				}
				fmt.Printf("%-14s %-8s %-30s %s%s", acct.ID, acct.Provider, acct.Email, state, primary)
				if acct.LastSync != "" {
					fmt.Printf("  last sync %s", acct.LastSync)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newAccountsConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a mail provider account",
	}

	cmd.AddCommand(newAccountsConnectGmailCmd())
	cmd.AddCommand(newAccountsConnectOutlookCmd())
	return cmd
}

func newAccountsConnectGmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gmail",
		Short: "Connect a Gmail account via OAuth",
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
			store := a.accountsStore()

			// With a local OAuth client configured the code exchange
			// happens here; otherwise the backend builds the consent URL
			// and exchanges the code itself.
			if a.cfg.OAuth.GmailClientID != "" {
				flow := provider.Gmail(
					a.cfg.OAuth.GmailClientID,
					a.cfg.OAuth.GmailClientSecret,
					a.cfg.OAuth.RedirectURL,
				)
				acct, err := a.connectWithFlow(cmd, store.ConnectGmail, flow)
				if err != nil {
					return err
				}
				fmt.Printf("Connected %s\n", acct.Email)
				return nil
			}

			authURL, err := store.GmailAuthURL(cmd.Context(), a.cfg.OAuth.RedirectURL)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Open this URL in a browser and authorize access:\n\n  %s\n\n", authURL)
			code, err := promptLine("Authorization code: ")
			if err != nil {
				return err
			}
			acct, err := store.ConnectGmailCode(cmd.Context(), code, a.cfg.OAuth.RedirectURL)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Connected %s\n", acct.Email)
			return nil
		},
	}
}

func newAccountsConnectOutlookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outlook",
		Short: "Connect an Outlook account via OAuth",
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
			flow := provider.Outlook(
				a.cfg.OAuth.OutlookClientID,
				a.cfg.OAuth.OutlookClientSecret,
				a.cfg.OAuth.RedirectURL,
			)
			acct, err := a.connectWithFlow(cmd, a.accountsStore().ConnectOutlook, flow)
			if err != nil {
				return err
			}
			fmt.Printf("Connected %s\n", acct.Email)
			return nil
		},
	}
}

// connectWithFlow runs the local consent flow: print the URL, collect the
// code, exchange it for tokens locally and hand them to the backend.
func (a *app) connectWithFlow(cmd *cobra.Command, connect connectFunc, flow *provider.Flow) (*accounts.Account, error) {
	state := uuid.NewString()
	fmt.Printf("Open this URL in a browser and authorize access:\n\n  %s\n\n", flow.AuthURL(state))

	code, err := promptLine("Authorization code: ")
	if err != nil {
		return nil, err
	}
	email, err := promptLine("Account email address: ")
	if err != nil {
		return nil, err
	}

	creds, err := flow.Exchange(cmd.Context(), code, email)
	if err != nil {
		return nil, a.fail(cmd.Context(), err)
	}
	acct, err := connect(cmd.Context(), creds)
	if err != nil {
		return nil, a.fail(cmd.Context(), err)
	}
	return acct, nil
}

// connectFunc is the shape of the store's per-provider connect methods.
type connectFunc func(ctx context.Context, creds accounts.Credentials) (*accounts.Account, error)

func newAccountsDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <account-id>",
		Short: "Disconnect an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}
			store := a.accountsStore()
			if err := store.Disconnect(cmd.Context(), args[0]); err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Println("Account disconnected")
			return nil
		},
	}
}

func newAccountsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <account-id>",
		Short: "Sync one account now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}
			store := a.accountsStore()
			result, err := store.Sync(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("%s: %s\n", result.Status, result.Message)
			return nil
		},
	}
}
