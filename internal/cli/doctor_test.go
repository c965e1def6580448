package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/executor"
)

func TestRunDoctor(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t)
		env.add(t, "example.test", 1)
		env.out.Reset()
		jsonOutput = true

		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var report DoctorReport
		env.decode(t, &report)

		for _, c := range append(report.Configuration, report.System...) {
			if c.Status != statusSuccess {
				t.Errorf("unexpected %s check: %s", c.Status, c.Message)
			}
		}
		if !containsMessage(report.System, "Store reachable") {
			t.Errorf("missing store check: %+v", report.System)
		}
		if !containsMessage(report.System, "Webserver configuration test passed") {
			t.Errorf("missing webserver test check: %+v", report.System)
		}
		if len(report.Hosts) != 1 || report.Hosts[0].Checks[0].Status != statusSuccess {
			t.Errorf("unexpected hosts %+v", report.Hosts)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.Driver = "lighttpd"

		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := env.out.String()
		if !strings.Contains(out, "Configuration invalid") {
			t.Errorf("expected invalid config report:\n%s", out)
		}
		if strings.Contains(out, "Checking system") {
			t.Errorf("system checks need a valid config:\n%s", out)
		}
	})

	t.Run("drifted host", func(t *testing.T) {
		env := newTestEnv(t)
		env.add(t, "example.test", 1)
		env.out.Reset()
		env.cfg.Paths.ContentRoot = env.dir + "/elsewhere"

		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := env.out.String()
		if !strings.Contains(out, "Content root not writable") {
			t.Errorf("expected content root error:\n%s", out)
		}
		if !strings.Contains(out, "example.test - document root missing") {
			t.Errorf("expected missing document root:\n%s", out)
		}
	})

	t.Run("command controller", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.Driver = "nginx"
		exec := &executor.MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				if file == "nginx" {
					return "", fmt.Errorf("not found")
				}
				return "/usr/bin/" + file, nil
			},
		}
		deps.AppFactory = &MockAppFactory{Executor: exec}
		deps.Executor = exec
		jsonOutput = true

		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var report DoctorReport
		env.decode(t, &report)

		if !containsMessage(report.System, "systemctl found (/usr/bin/systemctl)") {
			t.Errorf("missing systemctl check: %+v", report.System)
		}
		if !containsMessage(report.System, "nginx not found in PATH") {
			t.Errorf("missing nginx check: %+v", report.System)
		}
		if lines := exec.CallLines(); len(lines) != 1 || lines[0] != "nginx -t" {
			t.Errorf("expected a single config test, got %v", lines)
		}
	})
}

func TestCheckBinaries(t *testing.T) {
	exec := &executor.MockExecutor{
		LookPathFunc: func(file string) (string, error) {
			if file == "caddy" {
				return "", fmt.Errorf("not found")
			}
			return "/bin/" + file, nil
		},
	}
	ctrl := driver.NewWithCommands("custom", driver.Commands{
		driver.VerbStart:  {"systemctl start caddy"},
		driver.VerbReload: {"systemctl reload caddy", "caddy reload --config '/etc/caddy/My Caddyfile'"},
		driver.VerbTest:   {"caddy validate"},
	}, exec, time.Second)

	results := checkBinaries(exec, ctrl)
	if len(results) != 2 {
		t.Fatalf("expected 2 unique binaries, got %+v", results)
	}
	if results[0].Status != statusSuccess || results[0].Message != "systemctl found (/bin/systemctl)" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Status != statusWarning || results[1].Message != "caddy not found in PATH" {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func containsMessage(checks []CheckResult, msg string) bool {
	for _, c := range checks {
		if strings.Contains(c.Message, msg) {
			return true
		}
	}
	return false
}
