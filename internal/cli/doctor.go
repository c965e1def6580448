package cli

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/executor"
	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/output"
	"github.com/ksyq12/vhostctl/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the system and the recorded hosts.

Checks:
  - Configuration validity
  - Writability of the content root and proxy config directories
  - Webserver control binaries and configuration test
  - Store reachability and the port reuse pool
  - Document root and configuration of every host

Examples:
  vhostctl doctor
  vhostctl doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// Check statuses.
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// HostStatus represents the status of a single host
type HostStatus struct {
	Domain string        `json:"domain"`
	Port   int           `json:"port"`
	Checks []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	Configuration []CheckResult `json:"configuration"`
	System        []CheckResult `json:"system"`
	Hosts         []HostStatus  `json:"hosts"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	report := &DoctorReport{Hosts: []HostStatus{}}
	report.Configuration = checkConfiguration(cfg)

	if cfg.Validate() == nil {
		app, err := deps.AppFactory.Build(cfg)
		if err != nil {
			report.System = append(report.System, CheckResult{statusError, fmt.Sprintf("Failed to initialize: %v", err)})
		} else {
			defer func() { _ = app.Close() }()
			ctx := commandContext(cmd)
			report.System = checkSystem(ctx, deps.Executor, app)
			report.Hosts = checkHosts(ctx, app)
		}
	}

	if jsonOutput {
		return output.JSON(report)
	}
	displayDoctorResults(report)
	return nil
}

func checkConfiguration(cfg *config.Config) []CheckResult {
	if err := cfg.Validate(); err != nil {
		return []CheckResult{{statusError, fmt.Sprintf("Configuration invalid: %v", err)}}
	}
	return []CheckResult{
		{statusSuccess, fmt.Sprintf("Configuration valid (driver %s, port floor %d)", cfg.Driver, cfg.PortFloor)},
		{statusSuccess, fmt.Sprintf("Store: %s, audit sink: %s", cfg.Store.Driver, cfg.Audit.Sink)},
	}
}

func checkSystem(ctx context.Context, exec executor.CommandExecutor, app *App) []CheckResult {
	results := []CheckResult{}
	cfg := app.Config

	results = append(results, writableCheck("Content root", cfg.Paths.ContentRoot, app.Directories.Writable()))
	available, enabled := app.Configs.Writable()
	results = append(results, writableCheck("Available directory", cfg.Paths.Available, available))
	results = append(results, writableCheck("Enabled directory", cfg.Paths.Enabled, enabled))

	web := app.Service.Webserver()
	if ctrl, ok := web.(*driver.CommandController); ok {
		results = append(results, checkBinaries(exec, ctrl)...)
	}
	if tester, ok := web.(driver.Tester); ok {
		if err := tester.Test(ctx); err != nil {
			results = append(results, CheckResult{statusError, fmt.Sprintf("Webserver configuration test failed: %v", err)})
		} else {
			results = append(results, CheckResult{statusSuccess, "Webserver configuration test passed"})
		}
	}

	if err := app.Store.Ping(ctx); err != nil {
		results = append(results, CheckResult{statusError, fmt.Sprintf("Store unreachable: %v", err)})
		return results
	}
	results = append(results, CheckResult{statusSuccess, "Store reachable"})

	ports, err := app.Service.Reclaimed(ctx)
	if err != nil {
		results = append(results, CheckResult{statusWarning, fmt.Sprintf("Could not read reclaimed ports: %v", err)})
	} else {
		results = append(results, CheckResult{statusSuccess, fmt.Sprintf("%d reclaimed ports waiting for reuse", len(ports))})
	}
	return results
}

func writableCheck(name, path string, ok bool) CheckResult {
	if ok {
		return CheckResult{statusSuccess, fmt.Sprintf("%s writable (%s)", name, path)}
	}
	return CheckResult{statusError, fmt.Sprintf("%s not writable (%s)", name, path)}
}

// checkBinaries looks up the program of every configured command line.
func checkBinaries(exec executor.CommandExecutor, ctrl *driver.CommandController) []CheckResult {
	results := []CheckResult{}
	seen := make(map[string]bool)
	for _, verb := range driver.Verbs() {
		for _, line := range ctrl.Commands(verb) {
			words, err := shellquote.Split(line)
			if err != nil || len(words) == 0 || seen[words[0]] {
				continue
			}
			seen[words[0]] = true
			if path, err := exec.LookPath(words[0]); err == nil {
				results = append(results, CheckResult{statusSuccess, fmt.Sprintf("%s found (%s)", words[0], path)})
			} else {
				results = append(results, CheckResult{statusWarning, fmt.Sprintf("%s not found in PATH", words[0])})
			}
		}
	}
	return results
}

func checkHosts(ctx context.Context, app *App) []HostStatus {
	var hosts []host.Host
	err := app.Store.View(ctx, func(tx store.Tx) error {
		var err error
		hosts, err = store.All(ctx, tx)
		return err
	})
	if err != nil {
		return []HostStatus{}
	}

	statuses := make([]HostStatus, 0, len(hosts))
	for _, h := range hosts {
		status := HostStatus{Domain: h.Domain, Port: h.Port}
		if !app.Directories.Exists(h.Domain) {
			status.Checks = append(status.Checks, CheckResult{statusWarning, "document root missing"})
		}
		available, enabled := app.Configs.Exists(h.Domain)
		if !available {
			status.Checks = append(status.Checks, CheckResult{statusWarning, "configuration missing"})
		}
		if !enabled {
			status.Checks = append(status.Checks, CheckResult{statusWarning, "configuration not enabled"})
		}
		if len(status.Checks) == 0 {
			status.Checks = append(status.Checks, CheckResult{statusSuccess, fmt.Sprintf("OK (%s)", h.URL())})
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func displayDoctorResults(report *DoctorReport) {
	output.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(check)
	}
	output.Print("")

	if len(report.System) > 0 {
		output.Print("Checking system...")
		for _, check := range report.System {
			displayCheck(check)
		}
		output.Print("")
	}

	if len(report.Hosts) == 0 {
		output.Print("No virtual hosts")
		return
	}
	output.Print("Checking hosts...")
	for _, h := range report.Hosts {
		for _, check := range h.Checks {
			displayCheck(CheckResult{check.Status, h.Domain + " - " + check.Message})
		}
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case statusSuccess:
		output.Success("%s", check.Message)
	case statusWarning:
		output.Warn("%s", check.Message)
	case statusError:
		output.Error("%s", check.Message)
	}
}
