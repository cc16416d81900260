package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/session"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the backend session",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	cmd.AddCommand(newAuthVerifyCmd())
	cmd.AddCommand(newAuthForgotPasswordCmd())
	cmd.AddCommand(newAuthResetPasswordCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if password == "" {
				if password, err = promptLine("Password: "); err != nil {
					return err
				}
			}

			user, err := a.session.Login(cmd.Context(), args[0], password)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Logged in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var password, fullName string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if password == "" {
				if password, err = promptLine("Password: "); err != nil {
					return err
				}
			}

			result, err := a.session.Register(cmd.Context(), session.RegisterInput{
				Email:    args[0],
				Password: password,
				FullName: fullName,
			})
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			if result.Message != "" {
				fmt.Println(result.Message)
			}
			if result.AutoLogin {
				fmt.Printf("Logged in as %s\n", result.User.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			a.session.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session, revalidated against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.session.Authenticated() {
				fmt.Println("Not logged in")
				return nil
			}
			if err := a.session.CheckAuth(cmd.Context()); err != nil {
				return a.fail(cmd.Context(), err)
			}
			user := a.session.User()
			if user == nil {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s (%s)\n", user.Email, user.FullName)
			if !user.IsVerified {
				fmt.Println("Email not verified yet")
			}
			return nil
		},
	}
}

func newAuthVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify the account email with a token from the verification mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			msg, err := a.session.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func newAuthForgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			msg, err := a.session.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func newAuthResetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if password == "" {
				if password, err = promptLine("New password: "); err != nil {
					return err
				}
			}
			msg, err := a.session.ResetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	return cmd
}
