package cli

import (
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Identity and login operations",
	}

	cmd.AddCommand(newAuthMeCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthVerifyCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Identity
			if err := client.Get("/api/v1/auth/me", &result); err != nil {
				return err
			}

			// The server may mint or rotate the session; keep it
			if err := cfg.SaveSession(client.Session()); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Request a magic login link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatusResult
			body := map[string]string{"email": args[0]}
			if err := client.Post("/api/v1/auth/magic-link/start", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Login link sent, redeem it with: duelboard auth verify <token>")
			return nil
		},
	}
}

func newAuthVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Redeem a magic login token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Identity
			body := map[string]string{"token": args[0]}
			if err := client.Post("/api/v1/auth/magic-link/verify", body, &result); err != nil {
				return err
			}

			if err := cfg.SaveSession(client.Session()); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logout is csrf-protected, so fetch a token first
			var csrfResult CsrfResult
			if err := client.Get("/api/v1/auth/csrf", &csrfResult); err != nil {
				return err
			}
			client.SetCsrf(csrfResult.Token)

			var result StatusResult
			if err := client.Post("/api/v1/auth/logout", nil, &result); err != nil {
				return err
			}

			if err := cfg.SaveSession(client.Session()); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
