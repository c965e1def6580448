package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/input"
	"github.com/ksyq12/vhostctl/internal/output"
)

var (
	removeOwner int64
	forceRemove bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <id|domain>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a virtual host",
	Long: `Remove a virtual host: delete its proxy configuration and document root,
drop the record, return its port to the reuse pool and reload the webserver.

Examples:
  vhostctl remove example.test
  vhostctl rm 12 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().Int64Var(&removeOwner, "owner", 0, "Only match a host owned by this id")
	removeCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "Force removal without confirmation")

	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	filter, err := parseTarget(args[0], removeOwner)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *App) error {
		h, err := app.Service.Get(ctx, filter)
		if err != nil {
			return err
		}

		if !forceRemove {
			output.Prompt("Are you sure you want to remove virtual host '%s' (port %d)? [y/N]: ", h.Domain, h.Port)
			ok, err := input.Confirm(deps.StdinReader)
			if err != nil {
				return err
			}
			if !ok {
				output.Info("Removal cancelled")
				return nil
			}
		}

		if err := app.Service.Delete(ctx, host.Filter{ID: h.ID}); err != nil {
			return err
		}
		return outputResult(newSuccessResult(h.Domain, "removed"), "Virtual host has been deleted.")
	})
}
