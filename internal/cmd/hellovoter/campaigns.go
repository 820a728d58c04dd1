package hellovoter

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	platformcmd "github.com/hellovoter/hellovoter/internal/platform/cmd"
	"github.com/hellovoter/hellovoter/internal/services/canvass/app"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

func (c *cli) campaignsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   platformcmd.CommandCampaigns,
		Short: "List campaigns you have joined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRuntime(cmd.Context(), nil, func(ctx context.Context, rt *app.Runtime) error {
				list, err := rt.Cache.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(c.out, "No campaigns yet.")
					return nil
				}
				w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SERVER\tORG\tFORMS")
				for _, entry := range list {
					org := entry.OrgID
					if org == "" {
						org = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", entry.HostAddress, org, formList(entry.Forms))
				}
				return w.Flush()
			})
		},
	}
}

func formList(forms []domain.Form) string {
	if len(forms) == 0 {
		return "-"
	}
	return strings.Join(domain.FormIDs(forms), ",")
}
