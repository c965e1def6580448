package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/output"
)

// withApp loads the config, wires an App and runs fn against it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}
	app, err := deps.AppFactory.Build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	return fn(commandContext(cmd), app)
}

// commandContext returns the command's context, or Background when the
// command runs outside cobra (tests call RunE functions directly).
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// parseTarget turns an "<id|domain>" argument into a filter.
func parseTarget(arg string, ownerID int64) (host.Filter, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if id < 1 {
			return host.Filter{}, errors.Validation("The id must be a positive integer.")
		}
		return host.Filter{ID: id, OwnerID: ownerID}, nil
	}
	domain, err := host.NormalizeDomain(arg)
	if err != nil {
		return host.Filter{}, err
	}
	return host.Filter{Domain: domain, OwnerID: ownerID}, nil
}

// HostResult is the JSON view of a host printed by the CLI.
type HostResult struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Domain    string    `json:"domain"`
	Port      int       `json:"port"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func newHostResult(h *host.Host) HostResult {
	return HostResult{
		ID:        h.ID,
		OwnerID:   h.OwnerID,
		Domain:    h.Domain,
		Port:      h.Port,
		URL:       h.URL(),
		CreatedAt: h.CreatedAt,
	}
}

// CommandResult represents a common result structure for CLI commands
type CommandResult struct {
	Success bool   `json:"success"`
	Domain  string `json:"domain,omitempty"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}

// newSuccessResult creates a success result
func newSuccessResult(domain, action string) CommandResult {
	return CommandResult{
		Success: true,
		Domain:  domain,
		Action:  action,
	}
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}
