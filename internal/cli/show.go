package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/output"
)

var showOwner int64

var showCmd = &cobra.Command{
	Use:   "show <id|domain>",
	Short: "Show details of a virtual host",
	Long: `Show the record of a virtual host and whether its document root and
proxy configuration are present on disk.

Examples:
  vhostctl show example.test
  vhostctl show 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Int64Var(&showOwner, "owner", 0, "Only match a host owned by this id")

	rootCmd.AddCommand(showCmd)
}

// ShowResult is a host plus the state of its artifacts.
type ShowResult struct {
	HostResult
	DocumentRoot     string `json:"document_root"`
	DirectoryPresent bool   `json:"directory_present"`
	ConfigAvailable  bool   `json:"config_available"`
	ConfigEnabled    bool   `json:"config_enabled"`
}

func runShow(cmd *cobra.Command, args []string) error {
	filter, err := parseTarget(args[0], showOwner)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *App) error {
		h, err := app.Service.Get(ctx, filter)
		if err != nil {
			return err
		}

		result := ShowResult{HostResult: newHostResult(h)}
		if dir, err := app.Directories.Path(h.Domain); err == nil {
			result.DocumentRoot = dir
		}
		result.DirectoryPresent = app.Directories.Exists(h.Domain)
		result.ConfigAvailable, result.ConfigEnabled = app.Configs.Exists(h.Domain)

		if jsonOutput {
			return output.JSON(result)
		}

		output.Print("Domain:        %s", result.Domain)
		output.Print("ID:            %d", result.ID)
		output.Print("Owner:         %d", result.OwnerID)
		output.Print("Port:          %d", result.Port)
		output.Print("URL:           %s", result.URL)
		output.Print("Created:       %s", result.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		output.Print("Document root: %s", result.DocumentRoot)
		output.Print("Directory:     %s", presence(result.DirectoryPresent))
		output.Print("Config:        available %s, enabled %s",
			presence(result.ConfigAvailable), presence(result.ConfigEnabled))

		if !result.DirectoryPresent || !result.ConfigAvailable || !result.ConfigEnabled {
			output.Warn("Artifacts are missing; run 'vhostctl reconcile' to repair")
		}
		return nil
	})
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
