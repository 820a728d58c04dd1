package hellovoter

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	platformcmd "github.com/hellovoter/hellovoter/internal/platform/cmd"
	"github.com/hellovoter/hellovoter/internal/services/canvass/app"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

var unauthorizedOutcome = domain.Outcome{Kind: domain.OutcomeUnauthorized}

func (c *cli) statusCommand() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   platformcmd.CommandStatus,
		Short: "Look up your own organization in a state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return platformcmd.RunWithTelemetry(cmd.Context(), platformcmd.CommandStatus, c.cfg.Telemetry, func(ctx context.Context) error {
				return c.withRuntime(ctx, nil, func(ctx context.Context, rt *app.Runtime) error {
					result, err := rt.Discovery.PollOwnOrg(ctx, region)
					if err != nil {
						return err
					}
					presenter := c.presenter()
					switch {
					case result.Entry != nil:
						fmt.Fprintf(c.out, "Your organization %s on %s was added to your campaigns.\n", result.Entry.OrgID, result.Entry.HostAddress)
					case result.CredentialDiscarded:
						fmt.Fprintln(c.out, presenter.Outcome(unauthorizedOutcome))
						return &ExitError{Code: ExitUnauthorized, Reason: "unauthorized"}
					case result.Blocked:
						fmt.Fprintln(c.out, presenter.Blocked(result.Status))
						return &ExitError{Code: ExitBlocked, Reason: "blocked"}
					default:
						fmt.Fprintln(c.out, "You do not own an organization in this state.")
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "two-letter state code")
	_ = cmd.MarkFlagRequired("region")
	return cmd
}

func (c *cli) importLegacyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   platformcmd.CommandImportLegacy,
		Short: "Import campaigns saved by older app versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
				report, err := rt.Discovery.ImportLegacy(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Imported %d campaign(s).\n", len(report.Imported))
				for _, skip := range report.Skipped {
					fmt.Fprintf(c.out, "Skipped form %d: backend %q needs a manual conversion.\n", skip.Index, skip.Backend)
				}
				return nil
			})
		},
	}
}

func (c *cli) inviteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   platformcmd.CommandInvite + " <url>",
		Short: "Save an invite link for the next join",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
				if err := rt.Discovery.SavePendingInvite(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Invite saved. Run \"hellovoter join\" to use it.")
				return nil
			})
		},
	}
}
