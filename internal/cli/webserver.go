package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/driver"
)

var webserverCmd = &cobra.Command{
	Use:   "webserver <start|stop|restart|reload|test>",
	Short: "Control the webserver process",
	Long: `Run a process-control command against the configured webserver.

Examples:
  vhostctl webserver reload
  vhostctl webserver test`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop", "restart", "reload", "test"},
	RunE:      runWebserver,
}

func init() {
	rootCmd.AddCommand(webserverCmd)
}

func runWebserver(cmd *cobra.Command, args []string) error {
	verb := driver.Verb(args[0])
	return withApp(cmd, func(ctx context.Context, app *App) error {
		if err := app.Service.Control(ctx, verb); err != nil {
			return err
		}
		result := CommandResult{Success: true, Action: string(verb), Message: "Command has been completed successfully."}
		return outputResult(result, "Command has been completed successfully.")
	})
}
