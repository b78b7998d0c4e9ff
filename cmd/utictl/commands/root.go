package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/utidosgames/storefront/pkg/authclient"
)

type options struct {
	baseURL  string
	username string
	password string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "utictl",
		Short:         "UTI dos Games back-office CLI",
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("UTICTL_BASE_URL", "http://localhost:8080"), "storefront API base URL")
	root.PersistentFlags().StringVarP(&opts.username, "username", "u", os.Getenv("UTICTL_USERNAME"), "admin username")
	root.PersistentFlags().StringVarP(&opts.password, "password", "p", os.Getenv("UTICTL_PASSWORD"), "admin password")

	root.AddCommand(
		loginCmd(opts),
		forceLogoutCmd(opts),
		adminLinkCmd(opts),
		grantProCmd(opts),
		coinsCmd(opts),
	)
	return root
}

// session logs in and returns a client holding the admin cookies.
func (o *options) session(ctx context.Context) (*authclient.Client, *authclient.LoginResponse, error) {
	if o.username == "" || o.password == "" {
		return nil, nil, fmt.Errorf("username and password are required (--username/--password or UTICTL_USERNAME/UTICTL_PASSWORD)")
	}
	c := authclient.NewClient(o.baseURL)
	res, err := c.Login(ctx, o.username, o.password)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	return c, res, nil
}

func (o *options) adminSession(ctx context.Context) (*authclient.Client, error) {
	c, res, err := o.session(ctx)
	if err != nil {
		return nil, err
	}
	if !res.IsAdmin {
		return nil, fmt.Errorf("user %q is not an admin", o.username)
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
