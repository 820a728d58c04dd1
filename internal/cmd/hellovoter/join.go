package hellovoter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	platformcmd "github.com/hellovoter/hellovoter/internal/platform/cmd"
	"github.com/hellovoter/hellovoter/internal/services/canvass/app"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

type joinFlags struct {
	org       string
	server    string
	invite    string
	inviteURL string
	live      domain.Location
	area      domain.Location
	json      bool
}

// joinResult is the --json rendering of an outcome.
type joinResult struct {
	Outcome         string   `json:"outcome"`
	Host            string   `json:"host,omitempty"`
	OrgID           string   `json:"orgId,omitempty"`
	Status          int      `json:"status,omitempty"`
	Attempts        int      `json:"attempts"`
	Forms           []string `json:"forms,omitempty"`
	IsAdministrator bool     `json:"admin,omitempty"`
	Message         string   `json:"message"`
}

func (c *cli) joinCommand() *cobra.Command {
	f := &joinFlags{}
	cmd := &cobra.Command{
		Use:   platformcmd.CommandJoin,
		Short: "Ask a campaign server to admit you",
		Long: `Run the admission handshake against a campaign.

The campaign is taken from --org or --server, from --invite-url, or from a
pending invite saved with "hellovoter invite". A position is required; the
canvassing area (--area-lat/--area-lng) wins over the live position.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return platformcmd.RunWithTelemetry(cmd.Context(), platformcmd.CommandJoin, c.cfg.Telemetry, func(ctx context.Context) error {
				return c.join(ctx, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.org, "org", "", "organization id, e.g. CA1234")
	cmd.Flags().StringVar(&f.server, "server", "", "campaign server host")
	cmd.Flags().StringVar(&f.invite, "invite", "", "invite code")
	cmd.Flags().StringVar(&f.inviteURL, "invite-url", "", "invite link or QR payload")
	cmd.Flags().Float64Var(&f.live.Latitude, "lat", c.cfg.Latitude, "live latitude")
	cmd.Flags().Float64Var(&f.live.Longitude, "lng", c.cfg.Longitude, "live longitude")
	cmd.Flags().Float64Var(&f.area.Latitude, "area-lat", 0, "canvassing area latitude")
	cmd.Flags().Float64Var(&f.area.Longitude, "area-lng", 0, "canvassing area longitude")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the outcome as JSON")
	return cmd
}

func (c *cli) join(ctx context.Context, f *joinFlags) error {
	presenter := c.presenter()
	onProgress := func(state domain.ProgressState) {
		if state.Tick == 1 || state.Tick%10 == 0 {
			fmt.Fprintln(c.errOut, presenter.Progress(state))
		}
	}
	return c.withRuntime(ctx, onProgress, func(ctx context.Context, rt *app.Runtime) error {
		target, err := c.joinTarget(ctx, rt, f)
		if err != nil {
			return err
		}
		outcome, err := rt.Protocol.Admit(ctx, target, domain.PreferredLocation(f.live, f.area))
		if err != nil {
			return err
		}
		message := presenter.Outcome(outcome)
		if f.json {
			if err := c.writeJSON(outcome, message); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(c.out, message)
		}
		return exitFor(outcome)
	})
}

// joinTarget picks the campaign from flags, then from a pending invite.
func (c *cli) joinTarget(ctx context.Context, rt *app.Runtime, f *joinFlags) (domain.CampaignTarget, error) {
	if f.inviteURL != "" {
		return domain.ParseInvite(f.inviteURL)
	}
	if f.org != "" || f.server != "" {
		return domain.CampaignTarget{OrgID: f.org, HostAddress: f.server, InviteCode: f.invite}, nil
	}
	target, ok, err := rt.Discovery.TakePendingInvite(ctx)
	if err != nil {
		return domain.CampaignTarget{}, err
	}
	if !ok {
		return domain.CampaignTarget{}, errors.New("no campaign given: use --org, --server or --invite-url")
	}
	return target, nil
}

func (c *cli) writeJSON(outcome domain.Outcome, message string) error {
	result := joinResult{
		Outcome:         outcome.Kind.String(),
		Host:            outcome.Target.Host,
		OrgID:           outcome.Target.OrgID,
		Status:          outcome.Code,
		Attempts:        outcome.Attempts,
		IsAdministrator: outcome.IsAdministrator,
		Message:         message,
	}
	if len(outcome.Forms) > 0 {
		result.Forms = domain.FormIDs(outcome.Forms)
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func exitFor(outcome domain.Outcome) error {
	if outcome.Joined() {
		return nil
	}
	code := 0
	switch outcome.Kind {
	case domain.OutcomeInvalidTarget:
		code = ExitInvalidTarget
	case domain.OutcomeUnauthorized:
		code = ExitUnauthorized
	case domain.OutcomeBlocked:
		code = ExitBlocked
	case domain.OutcomeOutOfHours:
		code = ExitOutOfHours
	case domain.OutcomeNetworkFailure:
		code = ExitNetworkFailure
	}
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code, Reason: outcome.Kind.String()}
}
