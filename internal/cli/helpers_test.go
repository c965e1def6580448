package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/output"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// testEnv is a provisioning root in a temp directory with a mock webserver.
type testEnv struct {
	dir  string
	cfg  *config.Config
	ctrl *driver.MockController
	out  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := config.New()
	cfg.Paths = config.Paths{
		ContentRoot: filepath.Join(dir, "www"),
		Available:   filepath.Join(dir, "sites-available"),
		Enabled:     filepath.Join(dir, "sites-enabled"),
	}
	for _, p := range []string{cfg.Paths.ContentRoot, cfg.Paths.Available, cfg.Paths.Enabled} {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", p, err)
		}
	}
	cfg.Store = config.Store{Driver: config.StoreFile, Path: filepath.Join(dir, "state", "hosts.yaml")}
	cfg.Audit = config.Audit{Sink: config.SinkFile, Path: filepath.Join(dir, "state", "audit.jsonl"), Buffer: 16}

	env := &testEnv{
		dir:  dir,
		cfg:  cfg,
		ctrl: driver.NewMockController("mock"),
		out:  &bytes.Buffer{},
	}

	oldDeps := deps
	deps = NewMockDeps().
		WithConfig(cfg).
		WithController(env.ctrl).
		Build()
	output.SetOutput(env.out)
	resetFlags()

	t.Cleanup(func() {
		deps = oldDeps
		output.SetOutput(nil)
		resetFlags()
	})
	return env
}

// resetFlags restores every command flag to its default.
func resetFlags() {
	configPath = ""
	jsonOutput = false
	addOwner = 1
	removeOwner = 0
	forceRemove = false
	listOwner = 0
	listPage = 1
	showOwner = 0
	eventsLimit = 20
	initDriver = config.DefaultDriver
	initForce = false
	serveListen = ""
}

// add provisions domain for owner and fails the test on error.
func (e *testEnv) add(t *testing.T, domain string, owner int64) {
	t.Helper()
	saved := addOwner
	addOwner = owner
	defer func() { addOwner = saved }()
	if err := runAdd(nil, []string{domain}); err != nil {
		t.Fatalf("add %s: %v", domain, err)
	}
}

// decode parses the captured JSON output into v and resets the buffer.
func (e *testEnv) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(e.out.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, e.out.String())
	}
	e.out.Reset()
}
