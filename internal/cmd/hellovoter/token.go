package hellovoter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	platformcmd "github.com/hellovoter/hellovoter/internal/platform/cmd"
	"github.com/hellovoter/hellovoter/internal/services/canvass/app"
	"github.com/hellovoter/hellovoter/internal/services/canvass/credential"
)

func (c *cli) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   platformcmd.CommandToken,
		Short: "Manage the stored login token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <jwt>",
			Short: "Store the token issued by the login service",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
					if err := rt.Credentials.Save(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(c.out, "Token saved.")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the claims of the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
					token, err := rt.Credentials.Token(ctx)
					if err != nil {
						return err
					}
					if token == "" {
						fmt.Fprintln(c.out, "No token stored.")
						return nil
					}
					claims, err := credential.Decode(token)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.out, "user:     %s\n", claims.Subject)
					fmt.Fprintf(c.out, "audience: %s\n", strings.Join(claims.Audience, ", "))
					if !claims.ExpiresAt.IsZero() {
						fmt.Fprintf(c.out, "expires:  %s\n", claims.ExpiresAt.Format(time.RFC3339))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
					if err := rt.Credentials.Discard(ctx); err != nil {
						return err
					}
					fmt.Fprintln(c.out, "Token cleared.")
					return nil
				})
			},
		},
	)
	return cmd
}
