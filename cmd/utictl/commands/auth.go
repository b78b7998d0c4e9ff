package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func loginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (admin: %t)\n", opts.username, res.IsAdmin)
			return nil
		},
	}
}

func forceLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force-logout <user-id>",
		Short: "Revoke every session of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.adminSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.ForceLogout(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s logged out\n", args[0])
			return nil
		},
	}
}

func adminLinkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "admin-link <user-id>",
		Short: "Issue a one-time login link for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.adminSession(cmd.Context())
			if err != nil {
				return err
			}
			link, err := c.IssueAdminLink(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires at %s\n", link.URL, link.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}

func grantProCmd(opts *options) *cobra.Command {
	var plan string
	cmd := &cobra.Command{
		Use:   "grant-pro <user-id>",
		Short: "Grant or extend a UTI PRO subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.adminSession(cmd.Context())
			if err != nil {
				return err
			}
			var out map[string]any
			if err := c.GrantPro(cmd.Context(), args[0], plan, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "monthly", "subscription plan (monthly|annual)")
	return cmd
}
