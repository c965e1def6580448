package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/output"
	"github.com/ksyq12/vhostctl/internal/vhost"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair missing document roots and proxy configurations",
	Long: `Walk every recorded host, re-create a missing document root or proxy
configuration, then reload the webserver once. Hosts are never deleted.

Examples:
  vhostctl reconcile
  vhostctl reconcile --json`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *App) error {
		report, err := app.Service.Reconcile(ctx)
		if jsonOutput {
			if jerr := output.JSON(report); jerr != nil {
				return jerr
			}
		} else {
			displayReconcile(report)
		}
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return errors.Wrap(errors.ErrCodeInternal,
				fmt.Sprintf("%d of %d hosts could not be repaired", len(report.Failed), report.Checked), nil)
		}
		return nil
	})
}

func displayReconcile(report vhost.ReconcileReport) {
	output.Info("Checked %d hosts", report.Checked)
	for _, r := range report.Repaired {
		output.Success("%s - repaired %s", r.Domain, repairedParts(r))
	}
	for _, r := range report.Failed {
		output.Error("%s - %s", r.Domain, r.Error)
	}
	if len(report.Repaired) == 0 && len(report.Failed) == 0 {
		output.Success("Nothing to repair")
	}
	if report.Reloaded {
		output.Success("Webserver reloaded")
	}
}

func repairedParts(r vhost.Repair) string {
	switch {
	case r.Directory && r.Config:
		return "document root and configuration"
	case r.Directory:
		return "document root"
	default:
		return "configuration"
	}
}
