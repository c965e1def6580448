package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/output"
)

var addOwner int64

var addCmd = &cobra.Command{
	Use:     "add <domain>",
	Aliases: []string{"create"},
	Short:   "Provision a virtual host",
	Long: `Provision a virtual host: allocate a port, record the host, create its
document root and proxy configuration, then reload the webserver.

A failure before the reload rolls back everything this command created.
A failed reload leaves the host in place; run "vhostctl reconcile" or
"vhostctl webserver reload" once the webserver is healthy.

Examples:
  vhostctl add example.test
  vhostctl add shop.example.test --owner 7`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().Int64Var(&addOwner, "owner", 1, "Owner id the host belongs to")

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *App) error {
		h, err := app.Service.Create(ctx, args[0], addOwner)
		if h == nil {
			return err
		}
		if err != nil && errors.Is(err, errors.ErrReloadPending) {
			if jsonOutput {
				_ = output.JSON(newHostResult(h))
			} else {
				output.Warn("Host %s recorded on port %d but the webserver was not reloaded", h.Domain, h.Port)
			}
			return err
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.JSON(newHostResult(h))
		}
		output.Success("Virtual host has been created.")
		output.Print("  Domain:  %s", h.Domain)
		output.Print("  Port:    %d", h.Port)
		output.Print("  URL:     %s", h.URL())
		output.Print("  ID:      %d", h.ID)
		return nil
	})
}
