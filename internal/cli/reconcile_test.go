package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/vhost"
)

func TestRunReconcile(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, "a.example.test", 1)
	env.add(t, "b.example.test", 1)
	env.out.Reset()
	env.ctrl.Reset()

	if err := os.RemoveAll(filepath.Join(env.cfg.Paths.ContentRoot, "a.example.test")); err != nil {
		t.Fatal(err)
	}

	jsonOutput = true
	if err := runReconcile(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report vhost.ReconcileReport
	env.decode(t, &report)

	if report.Checked != 2 {
		t.Errorf("Checked = %d, want 2", report.Checked)
	}
	if len(report.Repaired) != 1 || report.Repaired[0].Domain != "a.example.test" || !report.Repaired[0].Directory {
		t.Errorf("unexpected repairs %+v", report.Repaired)
	}
	if !report.Reloaded || env.ctrl.Count(driver.VerbReload) != 1 {
		t.Errorf("expected exactly one reload, got %d", env.ctrl.Count(driver.VerbReload))
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.ContentRoot, "a.example.test")); err != nil {
		t.Errorf("document root not restored: %v", err)
	}

	jsonOutput = false
	if err := runReconcile(nil, nil); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(env.out.String(), "Nothing to repair") {
		t.Errorf("second run should repair nothing:\n%s", env.out.String())
	}
}

func TestRunReconcileReloadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, "example.test", 1)
	env.out.Reset()
	env.ctrl.ReloadFunc = func(ctx context.Context) error {
		return fmt.Errorf("nginx is down")
	}

	if err := runReconcile(nil, nil); err == nil {
		t.Fatal("expected reload error, got nil")
	}
	if strings.Contains(env.out.String(), "Webserver reloaded") {
		t.Errorf("reload must not be reported:\n%s", env.out.String())
	}
}
