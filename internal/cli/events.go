package cli

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/audit"
	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/output"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events [id]",
	Short: "Show recorded lifecycle events",
	Long: `Show the newest lifecycle events from the audit log, oldest first.
Pass a host id to show only that host's events. Events of deleted hosts
remain in the log.

Examples:
  vhostctl events
  vhostctl events 12 --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "Maximum number of events")

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	var hostID int64
	if len(args) == 1 {
		filter, err := parseTarget(args[0], 0)
		if err != nil {
			return err
		}
		if filter.ID == 0 {
			return errors.Validation("Events are looked up by host id.")
		}
		hostID = filter.ID
	}

	return withApp(cmd, func(ctx context.Context, app *App) error {
		events, err := app.Events(ctx, hostID, eventsLimit)
		if err != nil {
			return err
		}
		if events == nil {
			events = []audit.Event{}
		}

		if jsonOutput {
			return output.JSON(events)
		}
		if len(events) == 0 {
			output.Info("No events recorded")
			return nil
		}

		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				string(e.Action),
				strconv.FormatInt(e.HostID, 10),
				strconv.FormatInt(e.OwnerID, 10),
				eventDomain(e),
			})
		}
		output.Table([]string{"TIME", "ACTION", "HOST", "OWNER", "DOMAIN"}, rows)
		return nil
	})
}

// eventDomain reads the domain from the event's host snapshot.
func eventDomain(e audit.Event) string {
	var snapshot struct {
		Domain string `json:"domain"`
	}
	if err := json.Unmarshal(e.Data, &snapshot); err != nil {
		return ""
	}
	return snapshot.Domain
}
